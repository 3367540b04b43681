package ai

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/metamorphosis-agency/site/backend/internal/model/chat"
)

// Canned replies used whenever the backend cannot produce an answer.
const (
	FallbackConnection = "I'm having trouble connecting to my neural network right now. Please try again later or contact us directly via WhatsApp."
	FallbackEmpty      = "I'm undergoing a small metamorphosis myself and couldn't process that. Could you try again?"
)

// ErrNoBackend is logged when the client was built without a generator.
var ErrNoBackend = errors.New("no chat backend configured")

// Generator produces one reply from a remote model. The system instruction is
// fixed when the generator is constructed.
type Generator interface {
	Generate(ctx context.Context, history []chat.Turn, message string) (string, error)
}

// Observer is notified of every reply outcome.
type Observer func(outcome string)

// Client normalizes a Generator into a call that always yields text.
type Client struct {
	gen      Generator
	name     string
	observer Observer
}

// NewClient wraps gen. A nil gen is allowed and always yields the connection fallback.
func NewClient(name string, gen Generator, observer Observer) *Client {
	return &Client{gen: gen, name: name, observer: observer}
}

// Backend names the configured provider.
func (c *Client) Backend() string {
	if c.gen == nil {
		return "none"
	}
	return c.name
}

// SendMessage asks the backend for a reply to message given the prior turns.
// Failures are logged and converted into a fallback reply.
func (c *Client) SendMessage(ctx context.Context, message string, history []chat.Turn) string {
	if c.gen == nil {
		log.Printf("[ai] %v", ErrNoBackend)
		c.observe("error")
		return FallbackConnection
	}

	reply, err := c.gen.Generate(ctx, history, message)
	if err != nil {
		log.Printf("[ai] %s generation failed: %v", c.name, err)
		c.observe("error")
		return FallbackConnection
	}
	if strings.TrimSpace(reply) == "" {
		log.Printf("[ai] %s returned an empty reply", c.name)
		c.observe("empty")
		return FallbackEmpty
	}

	log.Printf("[ai] %s generated reply, history=%d, length=%d", c.name, len(history), len(reply))
	c.observe("ok")
	return reply
}

func (c *Client) observe(outcome string) {
	if c.observer != nil {
		c.observer(outcome)
	}
}
