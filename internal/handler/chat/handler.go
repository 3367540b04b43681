package chat

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/metamorphosis-agency/site/backend/internal/model/chat"
	chatService "github.com/metamorphosis-agency/site/backend/internal/service/chat"
	"github.com/metamorphosis-agency/site/backend/pkg/utils"
)

// Handler exposes the chat widget's state and actions.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates the widget handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts the widget routes. Send is registered separately
// through RegisterSendRoute so it can carry its own middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Post("/session/{sessionID}/open", h.handleOpen)
	r.Post("/session/{sessionID}/close", h.handleClose)
	r.Put("/session/{sessionID}/draft", h.handleDraft)
}

// RegisterSendRoute mounts POST /session/{sessionID}/messages.
func (h *Handler) RegisterSendRoute(r chi.Router) {
	r.Post("/session/{sessionID}/messages", h.handleSend)
}

type sendResponse struct {
	Reply chat.Message `json:"reply"`
	State chat.Session `json:"state"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.Open(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.Close(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleDraft(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if err := h.chatSvc.SetDraft(r.Context(), sessionID, payload.Text); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	// An empty body sends the current draft.
	if err := utils.DecodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	reply, err := h.chatSvc.Send(r.Context(), sessionID, payload.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	state, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sendResponse{Reply: reply, State: state})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatService.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chatService.ErrReplyInFlight):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("[chat] request failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
