package adk

import (
	"context"
	"fmt"
)

// Providers lists the supported provider names.
var Providers = []string{"gemini"}

func NewProvider(ctx context.Context, providerName, apiKey, modelName string) (LLMProvider, error) {
	switch providerName {
	case "", "gemini":
		return NewGeminiProvider(ctx, apiKey, modelName)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: %v)", providerName, Providers)
	}
}
