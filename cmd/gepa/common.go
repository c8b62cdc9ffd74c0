package main

import (
	"github.com/gepaopt/gepa/internal/config"
	"github.com/gepaopt/gepa/internal/gepa/llmcollab"
	"github.com/gepaopt/gepa/internal/llm"
)

// Version information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// Shared global variables populated by the root command's PersistentPreRunE
var (
	cfg       *config.Config
	llmClient *llm.Client
	collab    *llmcollab.Adapter
)

// maskSecret masks a secret string for display
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "(set)"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
