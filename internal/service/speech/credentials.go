package speech

import (
	"fmt"
	"strings"

	speechmodel "github.com/metamorphosis-agency/site/backend/internal/model/speech"
)

// resolveCredentials returns the normalized AppID and access token.
func resolveCredentials(cfg *speechmodel.Config) (string, string, error) {
	if cfg == nil {
		return "", "", fmt.Errorf("speech config not initialized")
	}

	appID := strings.TrimSpace(cfg.AppID)
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		token = strings.TrimSpace(cfg.APIKey)
	}

	if appID == "" || token == "" {
		return "", "", fmt.Errorf("speech config is missing AppID or AccessToken")
	}
	return appID, token, nil
}
