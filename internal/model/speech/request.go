package speech

import "io"

// DefaultLanguage is the locale dictation runs in.
const DefaultLanguage = "en-US"

// Utterance is a single recorded phrase submitted for recognition.
type Utterance struct {
	SessionID string    `json:"sessionId"`
	Audio     io.Reader `json:"-"`
	Format    string    `json:"format"`   // wav, pcm, ogg or mp3
	Language  string    `json:"language"` // en-US unless overridden by configuration
}
