package contact

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/metamorphosis-agency/site/backend/internal/model/contact"
)

var (
	ErrInvalidForm    = errors.New("form is incomplete")
	ErrSubmitDisabled = errors.New("form is already submitting or was just submitted")
)

// Banners shown when the endpoint gives no usable error messages.
const (
	BannerSubmitFailed  = "Oops! There was a problem submitting your form. Please try again."
	BannerNetworkFailed = "Oops! There was a problem connecting to the server. Please try again later."
)

// ValidationError lists the fields that blocked a submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidForm, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidForm }

// AfterFunc schedules f after d. It matches time.AfterFunc so tests can
// substitute a manual clock.
type AfterFunc func(d time.Duration, f func())

func realAfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// Form is one visitor's contact form.
type Form struct {
	mu      sync.Mutex
	state   contact.State
	sender  Sender
	after   AfterFunc
	success time.Duration
	// generation invalidates a pending acknowledgment revert.
	generation int
}

// NewForm starts with default fields.
func NewForm(sender Sender, success time.Duration, after AfterFunc) *Form {
	if after == nil {
		after = realAfterFunc
	}
	return &Form{
		state:   contact.State{Data: contact.Defaults()},
		sender:  sender,
		after:   after,
		success: success,
	}
}

// State returns a snapshot.
func (f *Form) State() contact.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Update replaces every field. Edits made while a submission is running are dropped.
func (f *Form) Update(data contact.FormData) contact.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.state.Submitting {
		f.state.Data = data
	}
	return f.state
}

// Submit validates the fields and relays them. The returned state always
// reflects the outcome; the error is nil only on success.
func (f *Form) Submit(ctx context.Context) (contact.State, error) {
	f.mu.Lock()
	if f.state.Submitting || f.state.Submitted {
		st := f.state
		f.mu.Unlock()
		return st, ErrSubmitDisabled
	}
	if missing := f.state.Data.MissingFields(); len(missing) > 0 {
		st := f.state
		f.mu.Unlock()
		return st, &ValidationError{Fields: missing}
	}
	data := f.state.Data
	f.state.Submitting = true
	f.state.ErrorMessage = ""
	f.mu.Unlock()

	err := f.sender.Send(ctx, data)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Submitting = false

	if err != nil {
		f.state.ErrorMessage = bannerFor(err)
		log.Printf("[contact] submission failed: %v", err)
		return f.state, err
	}

	f.state.Submitted = true
	f.state.Data = contact.Defaults()
	f.generation++
	gen := f.generation
	f.after(f.success, func() { f.clearSubmitted(gen) })
	log.Printf("[contact] submission delivered service=%q", data.Service)
	return f.state, nil
}

func (f *Form) clearSubmitted(gen int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generation == gen {
		f.state.Submitted = false
	}
}

func bannerFor(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) {
		if len(remote.Messages) > 0 {
			return strings.Join(remote.Messages, ", ")
		}
		return BannerSubmitFailed
	}
	return BannerNetworkFailed
}
