package handlers

import (
	"log/slog"
	"net/http"

	"appshell/pkg/bootstrap"
)

type AuthHandler struct {
	Backend bootstrap.Backend
	Logger  *slog.Logger
}

func NewAuthHandler(backend bootstrap.Backend, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{Backend: backend, Logger: logger}
}

// FetchAuth serves the session bootstrap result to the client shell.
func (h *AuthHandler) FetchAuth(w http.ResponseWriter, r *http.Request) {
	id, err := bootstrap.FetchAuth(r, h.Backend)
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "fetch auth", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "session backend unavailable")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, h.Logger, id)
}
