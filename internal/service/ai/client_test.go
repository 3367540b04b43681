package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/metamorphosis-agency/site/backend/internal/config"
	"github.com/metamorphosis-agency/site/backend/internal/model/agency"
	"github.com/metamorphosis-agency/site/backend/internal/model/chat"
)

type stubGenerator struct {
	reply   string
	err     error
	history []chat.Turn
	message string
}

func (s *stubGenerator) Generate(_ context.Context, history []chat.Turn, message string) (string, error) {
	s.history = history
	s.message = message
	return s.reply, s.err
}

func TestSendMessageReturnsReply(t *testing.T) {
	gen := &stubGenerator{reply: "We build websites."}
	var outcomes []string
	client := NewClient("stub", gen, func(o string) { outcomes = append(outcomes, o) })

	history := []chat.Turn{{Role: chat.RoleModel, Content: "Hello"}}
	got := client.SendMessage(context.Background(), "What do you do?", history)

	require.Equal(t, "We build websites.", got)
	require.Equal(t, "What do you do?", gen.message)
	require.Equal(t, history, gen.history)
	require.Equal(t, []string{"ok"}, outcomes)
}

func TestSendMessageFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		gen     Generator
		want    string
		outcome string
	}{
		{name: "error", gen: &stubGenerator{err: errors.New("timeout")}, want: FallbackConnection, outcome: "error"},
		{name: "empty", gen: &stubGenerator{reply: "   "}, want: FallbackEmpty, outcome: "empty"},
		{name: "no backend", gen: nil, want: FallbackConnection, outcome: "error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var outcome string
			client := NewClient("stub", tc.gen, func(o string) { outcome = o })
			require.Equal(t, tc.want, client.SendMessage(context.Background(), "hi", nil))
			require.Equal(t, tc.outcome, outcome)
		})
	}
}

func TestBackendName(t *testing.T) {
	require.Equal(t, "none", NewClient("gemini", nil, nil).Backend())
	require.Equal(t, "gemini", NewClient("gemini", &stubGenerator{}, nil).Backend())
}

func TestBuildSystemInstruction(t *testing.T) {
	got := BuildSystemInstruction(agency.Seed())

	require.Contains(t, got, `"Morph"`)
	require.Contains(t, got, "Metamorphosis Agency")
	for _, title := range agency.Seed().ServiceTitles() {
		require.Contains(t, got, title)
	}
	require.Contains(t, got, "+264813879841")
	require.Contains(t, got, "egabrella231@gmail.com")
	require.Contains(t, got, "booking a consultation")
	require.Contains(t, got, "under 100 words")
}

func TestHistoryConversions(t *testing.T) {
	turns := []chat.Turn{
		{Role: chat.RoleModel, Content: "Hi, I'm Morph."},
		{Role: chat.RoleUser, Content: "Pricing?"},
	}

	msgs := toSchemaHistory(turns)
	require.Len(t, msgs, 2)
	require.Equal(t, schema.Assistant, msgs[0].Role)
	require.Equal(t, schema.User, msgs[1].Role)

	contents := toGenaiHistory(turns)
	require.Len(t, contents, 2)
	require.Equal(t, string(genai.RoleModel), contents[0].Role)
	require.Equal(t, string(genai.RoleUser), contents[1].Role)
	require.Equal(t, "Pricing?", contents[1].Parts[0].Text)
}

type fakeChatModel struct {
	input []*schema.Message
	reply string
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func TestArkGeneratorBuildsPrompt(t *testing.T) {
	ctx := context.Background()
	fake := &fakeChatModel{reply: "Book a consultation {for} a quote."}

	gen, err := NewArkGenerator(ctx, fake, "You are {Morph}.")
	require.NoError(t, err)

	got, err := gen.Generate(ctx, []chat.Turn{{Role: chat.RoleModel, Content: "Hello"}}, "How much?")
	require.NoError(t, err)
	require.Equal(t, "Book a consultation {for} a quote.", got)

	require.Len(t, fake.input, 3)
	require.Equal(t, schema.System, fake.input[0].Role)
	require.Equal(t, "You are {Morph}.", fake.input[0].Content)
	require.Equal(t, schema.Assistant, fake.input[1].Role)
	require.Equal(t, schema.User, fake.input[2].Role)
	require.Equal(t, "How much?", fake.input[2].Content)
}

func TestNewFromConfigWithoutCredentials(t *testing.T) {
	cfg := &config.Config{Chat: config.ChatConfig{Provider: config.ProviderArk}}
	client, err := NewFromConfig(context.Background(), cfg, agency.Seed(), nil)
	require.Error(t, err)
	require.Equal(t, "none", client.Backend())
	require.True(t, strings.HasPrefix(client.SendMessage(context.Background(), "hi", nil), "I'm having trouble"))

	cfg.Chat.Provider = config.ProviderGemini
	client, err = NewFromConfig(context.Background(), cfg, agency.Seed(), nil)
	require.Error(t, err)
	require.Equal(t, "none", client.Backend())
}
