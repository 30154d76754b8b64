package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
)

// AzureProvider talks to an Azure OpenAI deployment.
type AzureProvider struct {
	client       *azopenai.Client
	deploymentID string
}

func NewAzureProvider(endpoint, apiKey, deploymentID string) (*AzureProvider, error) {
	return newAzureProvider(endpoint, apiKey, deploymentID, nil)
}

// newAzureProvider sends through transport when it is non-nil. Retries are
// off: a failed call is reported, never repeated.
func newAzureProvider(endpoint, apiKey, deploymentID string, transport policy.Transporter) (*AzureProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("endpoint required")
	}
	opts := &azopenai.ClientOptions{ClientOptions: azcore.ClientOptions{
		Retry:     policy.RetryOptions{MaxRetries: -1},
		Transport: transport,
	}}
	client, err := azopenai.NewClientWithKeyCredential(endpoint, azcore.NewKeyCredential(apiKey), opts)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &AzureProvider{client: client, deploymentID: deploymentID}, nil
}

func (p *AzureProvider) GenerateLayout(ctx context.Context, req GenerateLayoutRequest) (GenerateLayoutResponse, error) {
	user, err := prompts.GenerateLayout.render(req)
	if err != nil {
		return GenerateLayoutResponse{}, err
	}
	text, err := p.complete(ctx, prompts.GenerateLayout.System+"\n\n"+user)
	if err != nil {
		return GenerateLayoutResponse{}, err
	}
	return GenerateLayoutResponse{LayoutSuggestion: stripFences(text)}, nil
}

func (p *AzureProvider) SummarizeFeedback(ctx context.Context, req SummarizeFeedbackRequest) (SummarizeFeedbackResponse, error) {
	user, err := prompts.SummarizeFeedback.render(req)
	if err != nil {
		return SummarizeFeedbackResponse{}, err
	}
	text, err := p.complete(ctx, prompts.SummarizeFeedback.System+"\n\n"+user)
	if err != nil {
		return SummarizeFeedbackResponse{}, err
	}
	return SummarizeFeedbackResponse{Summary: text}, nil
}

func (p *AzureProvider) complete(ctx context.Context, promptText string) (string, error) {
	resp, err := p.client.GetChatCompletions(ctx, azopenai.ChatCompletionsOptions{
		DeploymentName: to.Ptr(p.deploymentID),
		Messages: []azopenai.ChatRequestMessageClassification{
			&azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(promptText),
			},
		},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("azure openai: %w", err)
	}
	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil && resp.Choices[0].Message.Content != nil {
		return strings.TrimSpace(*resp.Choices[0].Message.Content), nil
	}
	return "", fmt.Errorf("azure openai: no completion received")
}
