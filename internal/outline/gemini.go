package outline

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProposer asks a Gemini model for a plan payload.
type GeminiProposer struct {
	client        *genai.Client
	model         string
	promptBuilder *PromptBuilder
}

func NewGeminiProposer(ctx context.Context, apiKey string, modelName string) (*GeminiProposer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiProposer{
		client:        client,
		model:         modelName,
		promptBuilder: &PromptBuilder{},
	}, nil
}

func (p *GeminiProposer) ProposePlan(ctx context.Context, title, instruction string, sections []string, totalChars int) (string, error) {
	prompt := p.promptBuilder.BuildPlanPrompt(title, instruction, sections, totalChars)
	contents := genai.Text(prompt)
	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
