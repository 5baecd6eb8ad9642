package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"appshell/pkg/claims"
	"appshell/pkg/toast"
	"appshell/pkg/user"
)

const (
	typeError   string = "error"
	typeMessage string = "message"
)

// Sessions is the part of the authentication backend the user handlers use.
type Sessions interface {
	Issue(ctx context.Context, u *user.User) (string, error)
	Revoke(ctx context.Context, sessionID string) error
	RevokeUser(ctx context.Context, userID string) error
	SetCookie(w http.ResponseWriter, token string)
	ClearCookie(w http.ResponseWriter)
}

type LoginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Handler struct {
	Service  user.ServiceInterface
	Sessions Sessions
	Toasts   *toast.Store
	Logger   *slog.Logger
}

type FieldError struct {
	Location string `json:"location"`
	Param    string `json:"param"`
	Value    string `json:"value"`
	Msg      string `json:"msg"`
}

func NewUserHandler(service user.ServiceInterface, sessions Sessions, toasts *toast.Store, logger *slog.Logger) *Handler {
	return &Handler{
		Service:  service,
		Sessions: sessions,
		Toasts:   toasts,
		Logger:   logger,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req LoginForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		WriteResp(w, h.Logger, map[string]any{
			"errors": []FieldError{{Location: "body", Param: "username", Value: req.Username, Msg: "is required"}},
		}, http.StatusUnprocessableEntity)
		return
	}
	if req.Password == "" {
		WriteResp(w, h.Logger, map[string]any{
			"errors": []FieldError{{Location: "body", Param: "password", Msg: "is required"}},
		}, http.StatusUnprocessableEntity)
		return
	}

	u, err := h.Service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, user.ErrUserExists) {
			h.Logger.ErrorContext(r.Context(), "register", "error", err)
			writeError(w, http.StatusInternalServerError, typeError, "internal error")
			return
		}
		WriteResp(w, h.Logger, map[string]any{
			"errors": []FieldError{
				{
					Location: "body",
					Param:    "username",
					Value:    req.Username,
					Msg:      "already exists",
				},
			},
		}, http.StatusUnprocessableEntity)
		return
	}

	h.startSession(w, r, u, "register", "Account created")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}

	u, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			msg = "user not found"
		case errors.Is(err, user.ErrInvalidCredentials):
			msg = "invalid password"
		default:
			h.Logger.ErrorContext(r.Context(), "login", "error", err)
			writeError(w, http.StatusInternalServerError, typeError, "internal error")
			return
		}
		if ok := WriteResp(w, h.Logger, map[string]any{"message": msg}, http.StatusUnauthorized); ok {
			h.Logger.InfoContext(r.Context(), "login rejected", "username", req.Username, "reason", msg)
		}
		return
	}

	h.startSession(w, r, u, "login", "Signed in")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var c claims.Claims
	if ok := getClaimsFromContext(w, r, &c); !ok {
		return
	}

	if err := h.Sessions.Revoke(r.Context(), c.SessionID); err != nil {
		h.Logger.ErrorContext(r.Context(), "logout", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "internal error")
		return
	}

	h.endSession(w, r, c.User.ID, "logout", "Signed out")
}

// LogoutAll revokes every session of the caller, on all devices.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	var c claims.Claims
	if ok := getClaimsFromContext(w, r, &c); !ok {
		return
	}

	if err := h.Sessions.RevokeUser(r.Context(), c.User.ID); err != nil {
		h.Logger.ErrorContext(r.Context(), "logout all", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "internal error")
		return
	}

	h.endSession(w, r, c.User.ID, "logout all", "Signed out everywhere")
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request, userID, action, notice string) {
	h.Sessions.ClearCookie(w)
	h.toast(w, r, toast.Info, notice)
	if ok := WriteResp(w, h.Logger, map[string]any{"message": "success"}, http.StatusOK); ok {
		h.Logger.InfoContext(r.Context(), action, "user", userID)
	}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	var c claims.Claims
	if ok := getClaimsFromContext(w, r, &c); !ok {
		return
	}

	u, err := h.Service.ByID(r.Context(), c.User.ID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, typeMessage, "unauthorized")
			return
		}
		h.Logger.ErrorContext(r.Context(), "me", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "internal error")
		return
	}

	WriteResp(w, h.Logger, map[string]any{"id": u.ID, "username": u.Username}, http.StatusOK)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u *user.User, action, notice string) {
	token, err := h.Sessions.Issue(r.Context(), u)
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "session issue", "action", action, "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "internal error")
		return
	}

	h.Sessions.SetCookie(w, token)
	h.toast(w, r, toast.Success, notice)

	if ok := WriteResp(w, h.Logger, map[string]any{"token": token}, http.StatusOK); ok {
		h.Logger.InfoContext(r.Context(), action, "user", u.ID)
	}
}

func (h *Handler) toast(w http.ResponseWriter, r *http.Request, level toast.Level, msg string) {
	if h.Toasts == nil {
		return
	}
	if err := h.Toasts.Add(w, r, level, msg); err != nil {
		h.Logger.WarnContext(r.Context(), "toast", "error", err)
	}
}

func DecodeJSONBody(w http.ResponseWriter, r *http.Request, req any) bool {
	if r.Header.Get("Content-Type") != "application/json" {
		writeError(w, http.StatusBadRequest, typeError, "invalid Content-Type")
		return false
	}

	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, typeError, "bad json")
		return false
	}

	return true
}

func WriteResp(w http.ResponseWriter, logger *slog.Logger, body map[string]any, status int) bool {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to write JSON response", slog.Any("err", err))
		return false
	}
	return true
}
