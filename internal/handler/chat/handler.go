package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danieljharvey/chatbat/internal/apps"
	chatModel "github.com/danieljharvey/chatbat/internal/model/chat"
	"github.com/danieljharvey/chatbat/internal/schema"
	chatService "github.com/danieljharvey/chatbat/internal/service/chat"
	"github.com/danieljharvey/chatbat/internal/service/consistency"
	"github.com/danieljharvey/chatbat/internal/service/llm"
	"github.com/danieljharvey/chatbat/pkg/utils"
)

// Handler exposes sessions and turns over HTTP.
type Handler struct {
	chatSvc *chatService.Service
	apps    apps.Store
}

func New(chatSvc *chatService.Service, appStore apps.Store) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		apps:    appStore,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/apps", h.handleListApps)
	r.Post("/session", h.handleCreateSession)
	r.Post("/turn", h.handleTurn)
	r.Get("/session/{sessionID}/messages", h.handleTranscript)
}

func (h *Handler) handleListApps(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string][]string{"apps": h.apps.List()})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		App string `json:"app"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.App == "" {
		utils.RespondError(w, http.StatusBadRequest, "app is required")
		return
	}

	if _, ok := h.apps.Find(payload.App); !ok {
		utils.RespondError(w, http.StatusBadRequest, "app not found")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.App)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleTurn runs one full dual-sample turn on the session's
// conversation. The per-session lock is held from lookup through
// commit, so concurrent turns on one session serialize.
func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	var turn *apps.Turn
	err := h.chatSvc.WithState(r.Context(), payload.SessionID, func(appName string, state *chatModel.State) error {
		app, ok := h.apps.Find(appName)
		if !ok {
			return errors.New("app no longer registered")
		}
		result, err := app.Evaluate(r.Context(), state, payload.Message)
		if err != nil {
			return err
		}
		turn = result
		return nil
	})
	if err != nil {
		respondTurnError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// respondTurnError maps a failed turn onto a status and a structured
// body telling the caller which branch failed and whether the model or
// the transport is at fault.
func respondTurnError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatService.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	var branchErr *consistency.BranchError
	if errors.As(err, &branchErr) {
		detail := map[string]string{
			"error":  branchErr.Error(),
			"branch": string(branchErr.Branch),
		}
		var decodeErr *schema.DecodeError
		var transportErr *llm.TransportError
		switch {
		case errors.As(err, &decodeErr):
			detail["stage"] = "decode"
			detail["cause"] = decodeErr.Kind.String()
		case errors.As(err, &transportErr):
			detail["stage"] = "transport"
			detail["cause"] = transportErr.Kind.String()
		}
		utils.RespondJSON(w, http.StatusBadGateway, detail)
		return
	}

	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
