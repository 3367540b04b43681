package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/metamorphosis-agency/site/backend/internal/model/chat"
)

// DefaultGeminiModel is the model the widget talks to unless configured otherwise.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiGenerator opens a fresh Gemini chat per message, seeded with the prior turns.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiGenerator builds a Gemini API client with the given credential.
func NewGeminiGenerator(ctx context.Context, apiKey, model, systemInstruction string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		},
	}, nil
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, history []chat.Turn, message string) (string, error) {
	session, err := g.client.Chats.Create(ctx, g.model, g.config, toGenaiHistory(history))
	if err != nil {
		return "", fmt.Errorf("failed to open gemini chat: %w", err)
	}

	resp, err := session.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("gemini send failed: %w", err)
	}
	return resp.Text(), nil
}

func toGenaiHistory(turns []chat.Turn) []*genai.Content {
	history := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := genai.Role(genai.RoleUser)
		if chat.NormalizeRole(turn.Role) == chat.RoleModel {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(turn.Content, role))
	}
	return history
}
