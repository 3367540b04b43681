package speech

import (
	"context"
	"errors"

	speechmodel "github.com/metamorphosis-agency/site/backend/internal/model/speech"
)

// ErrUnsupported is returned by the Unsupported recognizer.
var ErrUnsupported = errors.New("speech recognition is not supported")

// Recognizer turns one recorded utterance into its best final transcript.
type Recognizer interface {
	Supported() bool
	Recognize(ctx context.Context, u *speechmodel.Utterance) (*speechmodel.Transcript, error)
}

// Unsupported is the Recognizer used when no speech backend is configured.
type Unsupported struct{}

// Supported always reports false.
func (Unsupported) Supported() bool { return false }

// Recognize always fails with ErrUnsupported.
func (Unsupported) Recognize(context.Context, *speechmodel.Utterance) (*speechmodel.Transcript, error) {
	return nil, ErrUnsupported
}

// Detect picks the Volcengine recognizer when credentials are present.
func Detect(cfg *speechmodel.Config) Recognizer {
	if _, _, err := resolveCredentials(cfg); err != nil {
		return Unsupported{}
	}
	return NewVolcengineRecognizer(cfg)
}
