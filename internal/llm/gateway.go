package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

var (
	// ErrEmptyPrompt is returned before dispatch when the prompt is blank.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrNoContent is returned before dispatch when there is no feedback text.
	ErrNoContent = errors.New("no feedback to summarize")
	// ErrInFlight is returned when the same operation is already running.
	ErrInFlight = errors.New("request already in progress")
)

// GenerationError wraps a failed or unusable layout generation.
type GenerationError struct{ Err error }

func (e *GenerationError) Error() string { return "generate layout: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// SummarizationError wraps a failed feedback summarization.
type SummarizationError struct{ Err error }

func (e *SummarizationError) Error() string { return "summarize feedback: " + e.Err.Error() }
func (e *SummarizationError) Unwrap() error { return e.Err }

var errUnusableOutput = errors.New("model returned no usable output")

const (
	opGenerate  = "generate_layout"
	opSummarize = "summarize_feedback"
)

// Gateway validates requests, allows a single in-flight call per operation
// and classifies provider failures. It never retries.
type Gateway struct {
	provider Provider
	timeout  time.Duration
	metrics  *Metrics

	generating  atomic.Bool
	summarizing atomic.Bool
}

type GatewayOption func(*Gateway)

// WithTimeout bounds each provider call. Zero means no bound.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.timeout = d }
}

func WithMetrics(m *Metrics) GatewayOption {
	return func(g *Gateway) { g.metrics = m }
}

func NewGateway(p Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{provider: p}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generating and Summarizing report whether a call of that kind is running;
// hosts use them to disable the triggering control.
func (g *Gateway) Generating() bool  { return g.generating.Load() }
func (g *Gateway) Summarizing() bool { return g.summarizing.Load() }

// GenerateLayout asks the provider for layout markup.
func (g *Gateway) GenerateLayout(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		g.metrics.observe(opGenerate, "rejected", time.Time{})
		return "", ErrEmptyPrompt
	}
	if !g.generating.CompareAndSwap(false, true) {
		g.metrics.observe(opGenerate, "busy", time.Time{})
		return "", ErrInFlight
	}
	defer g.generating.Store(false)

	ctx, cancel := g.bound(ctx)
	defer cancel()
	started := time.Now()
	resp, err := g.provider.GenerateLayout(ctx, GenerateLayoutRequest{Prompt: prompt})
	if err != nil {
		g.metrics.observe(opGenerate, "error", started)
		return "", &GenerationError{Err: err}
	}
	markup := stripFences(resp.LayoutSuggestion)
	if markup == "" {
		g.metrics.observe(opGenerate, "error", started)
		return "", &GenerationError{Err: errUnusableOutput}
	}
	g.metrics.observe(opGenerate, "ok", started)
	return markup, nil
}

// SummarizeFeedback drops blank entries and asks the provider for a summary.
func (g *Gateway) SummarizeFeedback(ctx context.Context, feedback []string) (string, error) {
	texts := NonEmpty(feedback)
	if len(texts) == 0 {
		g.metrics.observe(opSummarize, "rejected", time.Time{})
		return "", ErrNoContent
	}
	if !g.summarizing.CompareAndSwap(false, true) {
		g.metrics.observe(opSummarize, "busy", time.Time{})
		return "", ErrInFlight
	}
	defer g.summarizing.Store(false)

	ctx, cancel := g.bound(ctx)
	defer cancel()
	started := time.Now()
	resp, err := g.provider.SummarizeFeedback(ctx, SummarizeFeedbackRequest{Feedback: texts})
	if err != nil {
		g.metrics.observe(opSummarize, "error", started)
		return "", &SummarizationError{Err: err}
	}
	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		g.metrics.observe(opSummarize, "error", started)
		return "", &SummarizationError{Err: errUnusableOutput}
	}
	g.metrics.observe(opSummarize, "ok", started)
	return summary, nil
}

func (g *Gateway) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// NonEmpty returns the entries of texts that are not empty, in order.
func NonEmpty(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Describe renders a gateway error as a short user-facing message.
func Describe(err error) string {
	var genErr *GenerationError
	var sumErr *SummarizationError
	switch {
	case errors.Is(err, ErrEmptyPrompt):
		return "Please enter a description for the layout."
	case errors.Is(err, ErrNoContent):
		return "There are no feedback comments to summarize."
	case errors.Is(err, ErrInFlight):
		return "Still working on the previous request."
	case errors.As(err, &genErr):
		return "Failed to generate layout."
	case errors.As(err, &sumErr):
		return "Failed to summarize feedback."
	case err == nil:
		return ""
	}
	return fmt.Sprintf("Unexpected error: %v", err)
}
