package outline

import (
	"context"
	"fmt"
	"strings"
)

type ProposerOptions struct {
	Provider string
	APIKey   string
	Model    string
}

func NewProposer(ctx context.Context, opts ProposerOptions) (Proposer, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "static"
	}

	switch provider {
	case "gemini":
		return NewGeminiProposer(ctx, opts.APIKey, opts.Model)
	case "static":
		return NewStaticProposer(), nil
	default:
		return nil, fmt.Errorf("unsupported proposer provider: %s", opts.Provider)
	}
}
