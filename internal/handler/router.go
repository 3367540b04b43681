package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	agencyHandler "github.com/metamorphosis-agency/site/backend/internal/handler/agency"
	"github.com/metamorphosis-agency/site/backend/internal/handler/chat"
	"github.com/metamorphosis-agency/site/backend/internal/handler/contact"
	"github.com/metamorphosis-agency/site/backend/internal/handler/speech"
	"github.com/metamorphosis-agency/site/backend/internal/handler/stream"
	"github.com/metamorphosis-agency/site/backend/internal/metrics"
	middlewarePkg "github.com/metamorphosis-agency/site/backend/internal/middleware"
	"github.com/metamorphosis-agency/site/backend/internal/model/agency"
	chatService "github.com/metamorphosis-agency/site/backend/internal/service/chat"
	contactService "github.com/metamorphosis-agency/site/backend/internal/service/contact"
	speechService "github.com/metamorphosis-agency/site/backend/internal/service/speech"
	"github.com/metamorphosis-agency/site/backend/pkg/utils"
)

// Deps are the services the router wires to HTTP routes.
type Deps struct {
	Profiles      agency.Store
	Chat          *chatService.Service
	Contact       *contactService.Service
	Recognizer    speechService.Recognizer
	Metrics       *metrics.Metrics
	Limiter       *middlewarePkg.LimiterPool
	AllowedOrigin string
	Backend       string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigin))

	chatHandler := chat.New(deps.Chat)
	streamHandler := stream.New(deps.Chat)
	speechHandler := speech.New(deps.Chat, deps.Recognizer)
	contactHandler := contact.New(deps.Contact)
	profileHandler := agencyHandler.New(deps.Profiles)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"sessions": deps.Chat.Count(),
			"backend":  deps.Backend,
			"speech":   deps.Recognizer != nil && deps.Recognizer.Supported(),
		})
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		profileHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		speechHandler.RegisterRoutes(api)
		contactHandler.RegisterRoutes(api)

		// Routes that reach paid or third-party backends are throttled per client.
		api.Group(func(limited chi.Router) {
			if deps.Limiter != nil {
				var onReject func()
				if deps.Metrics != nil {
					onReject = deps.Metrics.ObserveRateLimited
				}
				limited.Use(middlewarePkg.RateLimit(deps.Limiter, onReject))
			}
			chatHandler.RegisterSendRoute(limited)
			speechHandler.RegisterDictateRoute(limited)
			contactHandler.RegisterSubmitRoute(limited)
		})
	})

	return r
}
