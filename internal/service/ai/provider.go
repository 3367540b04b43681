package ai

import (
	"context"
	"fmt"

	"github.com/metamorphosis-agency/site/backend/internal/config"
	"github.com/metamorphosis-agency/site/backend/internal/model/agency"
)

// NewFromConfig builds the client for the configured provider. Missing
// credentials are not fatal: the returned client answers with the fallback
// reply and the error explains why.
func NewFromConfig(ctx context.Context, cfg *config.Config, profile agency.Profile, observer Observer) (*Client, error) {
	system := BuildSystemInstruction(profile)

	switch cfg.Chat.Provider {
	case config.ProviderArk:
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			return NewClient(config.ProviderArk, nil, observer), err
		}
		gen, err := NewArkGenerator(ctx, chatModel, system)
		if err != nil {
			return NewClient(config.ProviderArk, nil, observer), err
		}
		return NewClient(config.ProviderArk, gen, observer), nil
	case config.ProviderGemini, "":
		gen, err := NewGeminiGenerator(ctx, cfg.Chat.APIKey, cfg.Chat.Model, system)
		if err != nil {
			return NewClient(config.ProviderGemini, nil, observer), err
		}
		return NewClient(config.ProviderGemini, gen, observer), nil
	default:
		return NewClient(cfg.Chat.Provider, nil, observer), fmt.Errorf("unknown chat provider %q", cfg.Chat.Provider)
	}
}
