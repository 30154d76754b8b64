package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider is the remote model behind the gateway. Implementations perform a
// single request per call and never retry.
type Provider interface {
	GenerateLayout(ctx context.Context, req GenerateLayoutRequest) (GenerateLayoutResponse, error)
	SummarizeFeedback(ctx context.Context, req SummarizeFeedbackRequest) (SummarizeFeedbackResponse, error)
}

// Request/response shapes mirror the remote contract.
type GenerateLayoutRequest struct {
	Prompt string `json:"prompt"`
}

type GenerateLayoutResponse struct {
	LayoutSuggestion string `json:"layoutSuggestion"`
}

type SummarizeFeedbackRequest struct {
	Feedback []string `json:"feedback"`
}

type SummarizeFeedbackResponse struct {
	Summary string `json:"summary"`
}

// NewProvider picks a provider by name. Unknown names fall back to offline.
func NewProvider(name, apiKey, model, endpoint string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return NewOpenAIProvider(apiKey, model, endpoint), nil
	case "azure":
		p, err := NewAzureProvider(endpoint, apiKey, model)
		if err != nil {
			return nil, fmt.Errorf("azure provider: %w", err)
		}
		return p, nil
	default:
		return NewOfflineProvider(), nil
	}
}

// stripFences removes a surrounding markdown code fence, which chat models
// like to add around HTML.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
