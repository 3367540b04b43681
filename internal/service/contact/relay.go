package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/metamorphosis-agency/site/backend/internal/model/contact"
)

// Sender delivers a submission to the form endpoint.
type Sender interface {
	Send(ctx context.Context, data contact.FormData) error
}

// RemoteError is a non-2xx answer from the form endpoint.
type RemoteError struct {
	StatusCode int
	Messages   []string
}

func (e *RemoteError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("form endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("form endpoint returned status %d: %s", e.StatusCode, strings.Join(e.Messages, ", "))
}

// TransportError wraps a failure to reach the form endpoint at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "form endpoint unreachable: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// Relay posts submissions as JSON to a Formspree-compatible endpoint.
type Relay struct {
	endpoint string
	client   *http.Client
}

// NewRelay targets endpoint. A zero timeout keeps the transport default.
func NewRelay(endpoint string, timeout time.Duration) *Relay {
	return &Relay{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

type errorBody struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Send implements Sender.
func (r *Relay) Send(ctx context.Context, data contact.FormData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build form request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	remote := &RemoteError{StatusCode: resp.StatusCode}
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		for _, e := range body.Errors {
			if msg := strings.TrimSpace(e.Message); msg != "" {
				remote.Messages = append(remote.Messages, msg)
			}
		}
	}
	return remote
}
