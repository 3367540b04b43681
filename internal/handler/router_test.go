package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/metamorphosis-agency/site/backend/internal/metrics"
	middlewarePkg "github.com/metamorphosis-agency/site/backend/internal/middleware"
	"github.com/metamorphosis-agency/site/backend/internal/model/agency"
	"github.com/metamorphosis-agency/site/backend/internal/model/chat"
	chatService "github.com/metamorphosis-agency/site/backend/internal/service/chat"
	contactService "github.com/metamorphosis-agency/site/backend/internal/service/contact"
	speechService "github.com/metamorphosis-agency/site/backend/internal/service/speech"
)

type cannedReplier struct{}

func (cannedReplier) SendMessage(context.Context, string, []chat.Turn) string { return "Sure!" }

func newTestRouter(limiter *middlewarePkg.LimiterPool) (http.Handler, *chatService.Service) {
	chatSvc := chatService.NewService(cannedReplier{})
	forms := contactService.NewService(contactService.NewRelay("http://127.0.0.1:1", time.Second), time.Second, nil, nil, chatSvc.Exists)
	return NewRouter(Deps{
		Profiles:   agency.NewMemoryStore(agency.Seed()),
		Chat:       chatSvc,
		Contact:    forms,
		Recognizer: speechService.Unsupported{},
		Metrics:    metrics.New(chatSvc.Count),
		Limiter:    limiter,
		Backend:    "test",
	}), chatSvc
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(nil)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, false, body["speech"])
}

func TestRoutesAreMounted(t *testing.T) {
	r, chatSvc := newTestRouter(nil)
	session, err := chatSvc.CreateSession(context.Background())
	require.NoError(t, err)

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/agency", http.StatusOK},
		{http.MethodGet, "/api/session/" + session.ID, http.StatusOK},
		{http.MethodPost, "/api/session/" + session.ID + "/open", http.StatusOK},
		{http.MethodGet, "/api/speech/capability", http.StatusOK},
		{http.MethodGet, "/api/contact/" + session.ID, http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
	} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(tc.method, tc.path, nil))
		require.Equal(t, tc.want, resp.Code, "%s %s", tc.method, tc.path)
	}
}

func TestSendIsRateLimited(t *testing.T) {
	r, chatSvc := newTestRouter(middlewarePkg.NewLimiterPool(0.001, 1))
	session, err := chatSvc.CreateSession(context.Background())
	require.NoError(t, err)

	path := "/api/session/" + session.ID + "/messages"
	send := func() int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "192.0.2.1:5000"
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}

	// The draft is empty, so the first call is a 400 that still spends a token.
	require.Equal(t, http.StatusBadRequest, send())
	require.Equal(t, http.StatusTooManyRequests, send())
}
