package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/metamorphosis-agency/site/backend/internal/model/agency"
	"github.com/metamorphosis-agency/site/backend/internal/model/chat"
	speechmodel "github.com/metamorphosis-agency/site/backend/internal/model/speech"
	"github.com/metamorphosis-agency/site/backend/internal/service/speech"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrReplyInFlight     = errors.New("a reply is already being generated")
	ErrSpeechUnsupported = errors.New("speech recognition is not supported")
	ErrAlreadyListening  = errors.New("dictation already in progress")
)

// GreetingID is the identifier of the seeded greeting message.
const GreetingID = "1"

const subscriberBuffer = 16

// Replier produces the assistant's reply for a message. It never fails;
// backend errors surface as fallback text.
type Replier interface {
	SendMessage(ctx context.Context, message string, history []chat.Turn) string
}

// Option customizes a Service.
type Option func(*Service)

// WithGreeting sets the text of the seeded model message.
func WithGreeting(text string) Option {
	return func(s *Service) { s.greeting = text }
}

// WithRecognizer enables dictation.
func WithRecognizer(r speech.Recognizer) Option {
	return func(s *Service) { s.recognizer = r }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDictationObserver is notified with "ok", "empty" or "error" after each dictation.
func WithDictationObserver(fn func(outcome string)) Option {
	return func(s *Service) { s.onDictation = fn }
}

// WithEvictHook runs for every session dropped by EvictIdle.
func WithEvictHook(fn func(sessionID string)) Option {
	return func(s *Service) { s.onEvict = fn }
}

type entry struct {
	session  chat.Session
	lastID   int64
	lastSeen time.Time
	subs     map[int]chan chat.Event
	nextSub  int
}

// Service owns every widget session. All state is in memory.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*entry

	replier     Replier
	recognizer  speech.Recognizer
	greeting    string
	now         func() time.Time
	onDictation func(string)
	onEvict     func(string)
}

// NewService builds the store around replier.
func NewService(replier Replier, opts ...Option) *Service {
	s := &Service{
		sessions:   make(map[string]*entry),
		replier:    replier,
		recognizer: speech.Unsupported{},
		greeting:   agency.Seed().Greeting,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession provisions a closed widget seeded with the greeting.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	now := s.now().UTC()
	e := &entry{
		session: chat.Session{
			ID: uuid.NewString(),
			Messages: []chat.Message{{
				ID:        GreetingID,
				Role:      chat.RoleModel,
				Text:      s.greeting,
				Timestamp: now,
			}},
			CreatedAt: now,
			UpdatedAt: now,
		},
		lastID:   1,
		lastSeen: now,
		subs:     make(map[int]chan chat.Event),
	}

	s.mu.Lock()
	s.sessions[e.session.ID] = e
	s.mu.Unlock()

	log.Printf("[chat] session created id=%s", e.session.ID)
	return snapshot(e.session), nil
}

// GetSession returns a copy of the session.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return snapshot(e.session), nil
}

// Exists reports whether the session is live.
func (s *Service) Exists(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionID]
	return ok
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// AppendMessage adds a message to the end of the conversation.
func (s *Service) AppendMessage(_ context.Context, sessionID string, role chat.Role, text string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return chat.Message{}, ErrSessionNotFound
	}
	return s.appendLocked(e, role, text), nil
}

// SetLoading toggles the reply-pending flag.
func (s *Service) SetLoading(_ context.Context, sessionID string, loading bool) error {
	return s.mutate(sessionID, func(e *entry) {
		e.session.IsLoading = loading
		s.publishState(e)
	})
}

// Open shows the widget. Messages and draft are untouched.
func (s *Service) Open(_ context.Context, sessionID string) (chat.Session, error) {
	var out chat.Session
	err := s.mutate(sessionID, func(e *entry) {
		e.session.IsOpen = true
		s.publishState(e)
		s.publish(e, chat.Event{Type: chat.EventScroll})
		out = snapshot(e.session)
	})
	return out, err
}

// Close hides the widget. In-flight replies keep running.
func (s *Service) Close(_ context.Context, sessionID string) (chat.Session, error) {
	var out chat.Session
	err := s.mutate(sessionID, func(e *entry) {
		e.session.IsOpen = false
		s.publishState(e)
		out = snapshot(e.session)
	})
	return out, err
}

// SetDraft replaces the pending input text.
func (s *Service) SetDraft(_ context.Context, sessionID, text string) error {
	return s.mutate(sessionID, func(e *entry) {
		e.session.InputText = text
		s.publishDraft(e)
	})
}

// Send submits textOverride, or the draft when the override is empty, and
// waits for the assistant's reply. The remote call is not cancelled when ctx is.
func (s *Service) Send(ctx context.Context, sessionID, textOverride string) (chat.Message, error) {
	text := textOverride
	if text == "" {
		s.mu.Lock()
		if e, ok := s.sessions[sessionID]; ok {
			text = e.session.InputText
		} else {
			s.mu.Unlock()
			return chat.Message{}, ErrSessionNotFound
		}
		s.mu.Unlock()
	}
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	history, err := s.beginSend(sessionID, text)
	if err != nil {
		return chat.Message{}, err
	}
	defer func() {
		if err := s.SetLoading(ctx, sessionID, false); err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Printf("[chat] release loading failed id=%s: %v", sessionID, err)
		}
	}()

	reply := s.replier.SendMessage(context.WithoutCancel(ctx), text, history)

	msg, err := s.AppendMessage(ctx, sessionID, chat.RoleModel, reply)
	if err != nil {
		return chat.Message{}, fmt.Errorf("store reply: %w", err)
	}
	return msg, nil
}

// beginSend appends the user message, clears the draft and marks the session
// loading. It returns the history preceding the new message.
func (s *Service) beginSend(sessionID, text string) ([]chat.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if e.session.IsLoading {
		return nil, ErrReplyInFlight
	}

	history := chat.ToTurns(e.session.Messages)
	s.appendLocked(e, chat.RoleUser, text)
	e.session.InputText = ""
	e.session.IsLoading = true
	s.publishDraft(e)
	s.publishState(e)
	return history, nil
}

// Dictate transcribes audio and replaces the draft with the result.
// An empty transcript leaves the draft as it was.
func (s *Service) Dictate(ctx context.Context, sessionID string, audio io.Reader, format string) (string, error) {
	if s.recognizer == nil || !s.recognizer.Supported() {
		return "", ErrSpeechUnsupported
	}

	if err := s.beginListening(sessionID); err != nil {
		return "", err
	}
	defer s.endListening(sessionID)

	transcript, err := s.recognizer.Recognize(ctx, &speechmodel.Utterance{
		SessionID: sessionID,
		Audio:     audio,
		Format:    format,
		Language:  speechmodel.DefaultLanguage,
	})
	if err != nil {
		s.observeDictation("error")
		return "", fmt.Errorf("dictation failed: %w", err)
	}

	text := strings.TrimSpace(transcript.Text)
	if text == "" {
		s.observeDictation("empty")
		return "", nil
	}

	if err := s.SetDraft(ctx, sessionID, text); err != nil {
		return "", err
	}
	s.observeDictation("ok")
	return text, nil
}

// Subscribe registers for the session's events and returns the session as
// of registration. Every later change arrives on the channel, none are in
// the snapshot. The returned func unsubscribes and closes the channel.
func (s *Service) Subscribe(sessionID string) (chat.Session, <-chan chat.Event, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, nil, nil, ErrSessionNotFound
	}

	id := e.nextSub
	e.nextSub++
	ch := make(chan chat.Event, subscriberBuffer)
	e.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(sub)
			}
		})
	}
	return snapshot(e.session), ch, cancel, nil
}

// EvictIdle drops sessions untouched for longer than ttl. Sessions with a
// pending reply, an active dictation or a live subscriber are kept.
func (s *Service) EvictIdle(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	var evicted []string

	s.mu.Lock()
	for id, e := range s.sessions {
		if e.lastSeen.After(cutoff) || e.session.IsLoading || e.session.IsListening || len(e.subs) > 0 {
			continue
		}
		delete(s.sessions, id)
		evicted = append(evicted, id)
	}
	s.mu.Unlock()

	for _, id := range evicted {
		if s.onEvict != nil {
			s.onEvict(id)
		}
	}
	if len(evicted) > 0 {
		log.Printf("[chat] evicted %d idle sessions", len(evicted))
	}
	return len(evicted)
}

func (s *Service) beginListening(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if e.session.IsListening {
		return ErrAlreadyListening
	}
	e.session.IsListening = true
	e.lastSeen = s.now()
	s.publishState(e)
	return nil
}

func (s *Service) endListening(sessionID string) {
	_ = s.mutate(sessionID, func(e *entry) {
		e.session.IsListening = false
		s.publishState(e)
		s.publish(e, chat.Event{Type: chat.EventFocus})
	})
}

func (s *Service) observeDictation(outcome string) {
	if s.onDictation != nil {
		s.onDictation(outcome)
	}
}

func (s *Service) mutate(sessionID string, fn func(e *entry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	fn(e)
	e.session.UpdatedAt = s.now().UTC()
	e.lastSeen = s.now()
	return nil
}

func (s *Service) appendLocked(e *entry, role chat.Role, text string) chat.Message {
	now := s.now()
	id := now.UnixMilli()
	if id <= e.lastID {
		id = e.lastID + 1
	}
	e.lastID = id

	msg := chat.Message{
		ID:        strconv.FormatInt(id, 10),
		Role:      chat.NormalizeRole(role),
		Text:      text,
		Timestamp: now.UTC(),
	}
	e.session.Messages = append(e.session.Messages, msg)
	e.session.UpdatedAt = now.UTC()
	e.lastSeen = now

	s.publish(e, chat.Event{Type: chat.EventMessage, Message: &msg})
	s.publish(e, chat.Event{Type: chat.EventScroll})
	return msg
}

func (s *Service) publishState(e *entry) {
	snap := snapshot(e.session)
	snap.Messages = nil
	s.publish(e, chat.Event{Type: chat.EventState, Session: &snap})
}

func (s *Service) publishDraft(e *entry) {
	snap := chat.Session{ID: e.session.ID, InputText: e.session.InputText}
	s.publish(e, chat.Event{Type: chat.EventDraft, Session: &snap})
}

// publish never blocks; a full subscriber misses the event.
func (s *Service) publish(e *entry, evt chat.Event) {
	evt.SessionID = e.session.ID
	for _, ch := range e.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func snapshot(session chat.Session) chat.Session {
	out := session
	out.Messages = make([]chat.Message, len(session.Messages))
	copy(out.Messages, session.Messages)
	return out
}
