package agency

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/metamorphosis-agency/site/backend/internal/model/agency"
)

func TestProfileRoute(t *testing.T) {
	r := chi.NewRouter()
	New(agency.NewMemoryStore(agency.Seed())).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/agency", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Name            string   `json:"name"`
		AssistantName   string   `json:"assistantName"`
		ContactServices []string `json:"contactServices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.AssistantName != "Morph" {
		t.Fatalf("unexpected assistant %q", body.AssistantName)
	}
	if len(body.ContactServices) != 4 {
		t.Fatalf("expected 4 contact services, got %v", body.ContactServices)
	}
}
