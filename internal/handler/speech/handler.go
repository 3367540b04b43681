package speech

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	speechmodel "github.com/metamorphosis-agency/site/backend/internal/model/speech"
	chatservice "github.com/metamorphosis-agency/site/backend/internal/service/chat"
	speechsvc "github.com/metamorphosis-agency/site/backend/internal/service/speech"
	"github.com/metamorphosis-agency/site/backend/pkg/utils"
)

// UnsupportedNotice is shown when no recognizer is configured.
const UnsupportedNotice = "Speech recognition is not supported on this server."

const maxUploadBytes = 32 << 20

// Handler exposes dictation for the chat widget.
type Handler struct {
	chatSvc    *chatservice.Service
	recognizer speechsvc.Recognizer
}

// New creates the speech handler. recognizer only answers the capability
// probe; dictation itself goes through chatSvc.
func New(chatSvc *chatservice.Service, recognizer speechsvc.Recognizer) *Handler {
	if recognizer == nil {
		recognizer = speechsvc.Unsupported{}
	}
	return &Handler{chatSvc: chatSvc, recognizer: recognizer}
}

// RegisterRoutes mounts the read-only speech routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/speech/capability", h.handleCapability)
}

// RegisterDictateRoute mounts POST /speech/{sessionID}/dictate.
func (h *Handler) RegisterDictateRoute(r chi.Router) {
	r.Post("/speech/{sessionID}/dictate", h.handleDictate)
}

type capabilityResponse struct {
	Supported bool   `json:"supported"`
	Language  string `json:"language"`
	Notice    string `json:"notice,omitempty"`
}

type dictateResponse struct {
	Transcript string `json:"transcript"`
	Draft      string `json:"draft"`
}

func (h *Handler) handleCapability(w http.ResponseWriter, r *http.Request) {
	resp := capabilityResponse{Supported: h.recognizer.Supported(), Language: speechmodel.DefaultLanguage}
	if !resp.Supported {
		resp.Notice = UnsupportedNotice
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDictate(w http.ResponseWriter, r *http.Request) {
	if !h.recognizer.Supported() {
		utils.RespondError(w, http.StatusNotImplemented, UnsupportedNotice)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	format, ok := inferAudioFormat(header.Filename)
	if !ok {
		utils.RespondError(w, http.StatusUnsupportedMediaType, "unsupported audio format: use wav, pcm, ogg or mp3")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	transcript, err := h.chatSvc.Dictate(r.Context(), sessionID, file, format)
	switch {
	case err == nil:
	case errors.Is(err, chatservice.ErrSpeechUnsupported):
		utils.RespondError(w, http.StatusNotImplemented, UnsupportedNotice)
		return
	case errors.Is(err, chatservice.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, chatservice.ErrAlreadyListening):
		utils.RespondError(w, http.StatusConflict, err.Error())
		return
	default:
		log.Printf("[speech] dictation error session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusBadGateway, "speech recognition failed")
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, dictateResponse{Transcript: transcript, Draft: session.InputText})
}

// inferAudioFormat maps an upload name to a container the recognizer decodes.
// WebM and MP4 family uploads are rejected; browsers must record ogg or wav.
func inferAudioFormat(filename string) (string, bool) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".mp3":
		return "mp3", true
	case ".ogg", ".opus":
		return "ogg", true
	case ".pcm":
		return "pcm", true
	case ".webm", ".m4a", ".mp4", ".aac":
		return "", false
	default:
		return "wav", true
	}
}
