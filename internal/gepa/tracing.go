package gepa

import "context"

// Span is a single traced operation, following the teacher's
// WithTracer/Span option idiom generalized from per-module to
// per-iteration tracing.
type Span interface {
	End()
	SetAttribute(key string, value any)
}

// Tracer starts a span around each engine iteration; individual
// collaborator calls are not given spans of their own.
// The zero value is not usable; use NoOpTracer when tracing is disabled.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
}

type noOpSpan struct{}

func (noOpSpan) End()                       {}
func (noOpSpan) SetAttribute(string, any)  {}

// NoOpTracer discards every span; it is the engine's default so it runs
// untraced unless a real Tracer is supplied via WithTracer.
type NoOpTracer struct{}

func (NoOpTracer) Start(ctx context.Context, name string) (context.Context, Span) {
	return ctx, noOpSpan{}
}
