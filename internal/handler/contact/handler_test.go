package contact

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/metamorphosis-agency/site/backend/internal/model/contact"
	contactService "github.com/metamorphosis-agency/site/backend/internal/service/contact"
)

func setupRouter(t *testing.T, endpoint http.HandlerFunc) *chi.Mux {
	t.Helper()
	srv := httptest.NewServer(endpoint)
	t.Cleanup(srv.Close)

	relay := contactService.NewRelay(srv.URL, time.Second)
	live := func(id string) bool { return id == "s1" }
	forms := contactService.NewService(relay, 5*time.Second, func(time.Duration, func()) {}, nil, live)
	h := New(forms)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	h.RegisterSubmitRoute(r)
	return r
}

func do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func okEndpoint(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func TestGetDefaults(t *testing.T) {
	r := setupRouter(t, okEndpoint)

	resp := do(r, http.MethodGet, "/contact/s1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var st contact.State
	_ = json.NewDecoder(resp.Body).Decode(&st)
	if st.Data.Service != contact.ServiceWebDesign {
		t.Fatalf("expected default service, got %q", st.Data.Service)
	}
}

func TestUnknownSession(t *testing.T) {
	r := setupRouter(t, okEndpoint)

	if resp := do(r, http.MethodGet, "/contact/nope", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	form := contact.FormData{Name: "Ada", Email: "ada@example.com", Service: contact.ServiceOther, Message: "Hi"}
	if resp := do(r, http.MethodPut, "/contact/nope", form); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on update, got %d", resp.Code)
	}
	if resp := do(r, http.MethodPost, "/contact/nope/submit", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on submit, got %d", resp.Code)
	}
}

func TestSubmitFlow(t *testing.T) {
	r := setupRouter(t, okEndpoint)

	if resp := do(r, http.MethodPost, "/contact/s1/submit", nil); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty form, got %d", resp.Code)
	}

	form := contact.FormData{Name: "Ada", Email: "ada@example.com", Service: contact.ServiceOther, Message: "Hi"}
	if resp := do(r, http.MethodPut, "/contact/s1", form); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", resp.Code)
	}

	resp := do(r, http.MethodPost, "/contact/s1/submit", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var st contact.State
	_ = json.NewDecoder(resp.Body).Decode(&st)
	if !st.Submitted || st.Data != contact.Defaults() {
		t.Fatalf("unexpected state %+v", st)
	}

	if resp := do(r, http.MethodPost, "/contact/s1/submit", nil); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 while acknowledged, got %d", resp.Code)
	}
}

func TestSubmitRemoteError(t *testing.T) {
	r := setupRouter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"X"}]}`))
	})

	form := contact.FormData{Name: "Ada", Email: "ada@example.com", Service: contact.ServiceOther, Message: "Hi"}
	do(r, http.MethodPut, "/contact/s1", form)

	resp := do(r, http.MethodPost, "/contact/s1/submit", nil)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	var st contact.State
	_ = json.NewDecoder(resp.Body).Decode(&st)
	if st.ErrorMessage != "X" {
		t.Fatalf("expected banner X, got %q", st.ErrorMessage)
	}
}
