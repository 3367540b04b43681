package speech

// Config holds the credentials and defaults of the speech recognition backend.
type Config struct {
	AppID          string `json:"appId"`
	AccessToken    string `json:"accessToken"`
	APIKey         string `json:"apiKey,omitempty"` // legacy alias of AccessToken
	BaseURL        string `json:"baseUrl"`
	ConcurrentMode bool   `json:"concurrentMode"` // false selects the per-hour resource

	Model    string `json:"model"`
	Language string `json:"language"`

	Timeout int `json:"timeout"` // seconds
}
