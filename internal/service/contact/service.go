package contact

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/metamorphosis-agency/site/backend/internal/model/contact"
)

// ErrSessionNotFound is returned for sessions the live check rejects.
var ErrSessionNotFound = errors.New("session not found")

// Service keeps one Form per widget session.
type Service struct {
	mu      sync.Mutex
	forms   map[string]*Form
	sender  Sender
	success time.Duration
	after   AfterFunc
	observe func(outcome string)
	live    func(sessionID string) bool
}

// NewService creates forms lazily, and only for sessions live reports; a nil
// live accepts every session. observe, when set, receives "ok", "invalid",
// "remote_error" or "network_error" for each submission attempt.
func NewService(sender Sender, success time.Duration, after AfterFunc, observe func(string), live func(string) bool) *Service {
	return &Service{
		forms:   make(map[string]*Form),
		sender:  sender,
		success: success,
		after:   after,
		observe: observe,
		live:    live,
	}
}

// form checks liveness under s.mu so a concurrent eviction either sees the
// new form in Forget or prevents its creation.
func (s *Service) form(sessionID string) (*Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live != nil && !s.live(sessionID) {
		delete(s.forms, sessionID)
		return nil, ErrSessionNotFound
	}
	f, ok := s.forms[sessionID]
	if !ok {
		f = NewForm(s.sender, s.success, s.after)
		s.forms[sessionID] = f
	}
	return f, nil
}

// State returns the session's form.
func (s *Service) State(sessionID string) (contact.State, error) {
	f, err := s.form(sessionID)
	if err != nil {
		return contact.State{}, err
	}
	return f.State(), nil
}

// Update replaces the session's form fields.
func (s *Service) Update(sessionID string, data contact.FormData) (contact.State, error) {
	f, err := s.form(sessionID)
	if err != nil {
		return contact.State{}, err
	}
	return f.Update(data), nil
}

// Submit relays the session's form. The relay outlives ctx so a visitor
// leaving mid-request still gets the delivery it asked for.
func (s *Service) Submit(ctx context.Context, sessionID string) (contact.State, error) {
	f, err := s.form(sessionID)
	if err != nil {
		return contact.State{}, err
	}
	st, err := f.Submit(context.WithoutCancel(ctx))
	if !errors.Is(err, ErrSubmitDisabled) {
		s.record(err)
	}
	return st, err
}

// Forget drops the session's form.
func (s *Service) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.forms, sessionID)
	s.mu.Unlock()
}

func (s *Service) record(err error) {
	if s.observe == nil {
		return
	}
	s.observe(Outcome(err))
}

// Outcome classifies a Submit error for metrics.
func Outcome(err error) string {
	var validation *ValidationError
	var remote *RemoteError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &validation):
		return "invalid"
	case errors.As(err, &remote):
		return "remote_error"
	default:
		return "network_error"
	}
}
