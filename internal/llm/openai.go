package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider calls the chat completions API through the official SDK.
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *openai.Client
}

func NewOpenAIProvider(apiKey, model, baseURL string) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
		baseURL: strings.TrimSpace(baseURL),
	}
}

var ErrNoAPIKey = errors.New("llm: api key not configured")

func (p *OpenAIProvider) ensureClient() error {
	if p.apiKey == "" {
		return ErrNoAPIKey
	}
	if p.client == nil {
		opts := []option.RequestOption{option.WithAPIKey(p.apiKey), option.WithMaxRetries(0)}
		if p.baseURL != "" {
			opts = append(opts, option.WithBaseURL(p.baseURL))
		}
		c := openai.NewClient(opts...)
		p.client = &c
	}
	return nil
}

func (p *OpenAIProvider) GenerateLayout(ctx context.Context, req GenerateLayoutRequest) (GenerateLayoutResponse, error) {
	user, err := prompts.GenerateLayout.render(req)
	if err != nil {
		return GenerateLayoutResponse{}, err
	}
	text, err := p.complete(ctx, prompts.GenerateLayout.System, user, 2000)
	if err != nil {
		return GenerateLayoutResponse{}, err
	}
	return GenerateLayoutResponse{LayoutSuggestion: stripFences(text)}, nil
}

func (p *OpenAIProvider) SummarizeFeedback(ctx context.Context, req SummarizeFeedbackRequest) (SummarizeFeedbackResponse, error) {
	user, err := prompts.SummarizeFeedback.render(req)
	if err != nil {
		return SummarizeFeedbackResponse{}, err
	}
	text, err := p.complete(ctx, prompts.SummarizeFeedback.System, user, 400)
	if err != nil {
		return SummarizeFeedbackResponse{}, err
	}
	return SummarizeFeedbackResponse{Summary: text}, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	if err := p.ensureClient(); err != nil {
		return "", err
	}
	model := p.model
	if model == "" {
		model = "gpt-4o-mini"
	}
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxCompletionTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
