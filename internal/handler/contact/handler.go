package contact

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/metamorphosis-agency/site/backend/internal/model/contact"
	contactService "github.com/metamorphosis-agency/site/backend/internal/service/contact"
	"github.com/metamorphosis-agency/site/backend/pkg/utils"
)

// Handler exposes the contact form of a widget session.
type Handler struct {
	forms *contactService.Service
}

// New creates the contact handler.
func New(forms *contactService.Service) *Handler {
	return &Handler{forms: forms}
}

// RegisterRoutes mounts the read and edit routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/contact/{sessionID}", h.handleGet)
	r.Put("/contact/{sessionID}", h.handleUpdate)
}

// RegisterSubmitRoute mounts POST /contact/{sessionID}/submit.
func (h *Handler) RegisterSubmitRoute(r chi.Router) {
	r.Post("/contact/{sessionID}/submit", h.handleSubmit)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	state, err := h.forms.State(chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, state)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload contact.FormData
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.forms.Update(chi.URLParam(r, "sessionID"), payload)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, state)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	state, err := h.forms.Submit(r.Context(), chi.URLParam(r, "sessionID"))
	var validation *contactService.ValidationError
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, state)
	case errors.Is(err, contactService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		utils.RespondErrorDetails(w, http.StatusUnprocessableEntity, contactService.ErrInvalidForm.Error(), validation.Fields)
	case errors.Is(err, contactService.ErrSubmitDisabled):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		// The relay failed; the banner is part of the state.
		utils.RespondJSON(w, http.StatusBadGateway, state)
	}
}
