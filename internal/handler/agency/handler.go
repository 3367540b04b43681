package agency

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/metamorphosis-agency/site/backend/internal/model/agency"
	"github.com/metamorphosis-agency/site/backend/internal/model/contact"
	"github.com/metamorphosis-agency/site/backend/pkg/utils"
)

// Handler serves the agency's public profile.
type Handler struct {
	profiles agency.Store
}

// New creates the profile handler.
func New(profiles agency.Store) *Handler {
	return &Handler{profiles: profiles}
}

// RegisterRoutes mounts the read-only profile routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/agency", h.handleProfile)
}

type profileResponse struct {
	agency.Profile
	ContactServices []string `json:"contactServices"`
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, profileResponse{
		Profile:         h.profiles.Profile(),
		ContactServices: contact.ServiceOptions,
	})
}
