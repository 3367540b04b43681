package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/metamorphosis-agency/site/backend/internal/model/chat"
)

// ArkGenerator runs an eino prompt chain against any eino chat model,
// in production the Volcengine Ark model.
type ArkGenerator struct {
	system string
	chain  compose.Runnable[map[string]any, *schema.Message]
}

// NewArkGenerator compiles the system/history/query chain around chatModel.
func NewArkGenerator(ctx context.Context, chatModel model.ChatModel, systemInstruction string) (*ArkGenerator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	// The system instruction is passed as a variable so braces inside it are not parsed.
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ArkGenerator{system: systemInstruction, chain: runnable}, nil
}

// Generate implements Generator.
func (g *ArkGenerator) Generate(ctx context.Context, history []chat.Turn, message string) (string, error) {
	response, err := g.chain.Invoke(ctx, map[string]any{
		"system":  g.system,
		"history": toSchemaHistory(history),
		"query":   message,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}
	if response == nil {
		return "", nil
	}
	return response.Content, nil
}

func toSchemaHistory(turns []chat.Turn) []*schema.Message {
	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch chat.NormalizeRole(turn.Role) {
		case chat.RoleModel:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		default:
			history = append(history, schema.UserMessage(turn.Content))
		}
	}
	return history
}
