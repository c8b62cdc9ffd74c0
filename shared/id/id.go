// Package id provides ID generation helpers used across services.
package id

import (
	nanoid "github.com/matoous/go-nanoid/v2"
)

const DefaultLength = 21

const (
	PrefixRun        = "run"
	PrefixCandidate  = "cand"
	PrefixStrategy   = "strat"
	PrefixIteration  = "iter"
)

func New(prefix string) string {
	id, err := nanoid.New(DefaultLength)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

func NewWithLength(prefix string, length int) string {
	id, err := nanoid.New(length)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

func NewRun() string       { return New(PrefixRun) }
func NewCandidate() string { return New(PrefixCandidate) }
func NewStrategy() string  { return New(PrefixStrategy) }
