package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/auth"
)

// SessionManager defines the session operations needed by auth handlers.
// Satisfied by *auth.Manager; narrow interface for testability.
type SessionManager interface {
	Login(ctx context.Context, password string) (*http.Cookie, error)
	Logout(ctx context.Context, r *http.Request) (*http.Cookie, error)
	Authenticated(ctx context.Context, r *http.Request) (bool, error)
}

// AuthHandler handles the admin session endpoints.
type AuthHandler struct {
	sessions SessionManager
	log      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessions SessionManager, log *zap.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, log: handlerLogger(log, "auth")}
}

// RegisterRoutes registers auth endpoints on the given Chi router. Login
// runs behind the optional middlewares (rate limiting).
func (h *AuthHandler) RegisterRoutes(r chi.Router, loginMiddlewares ...func(http.Handler) http.Handler) {
	r.With(loginMiddlewares...).Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
	r.Get("/auth/status", h.Status)
}

// --- Request / Response types ---

type loginRequest struct {
	Password string `json:"password"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type statusResponse struct {
	Authenticated bool `json:"authenticated"`
}

// --- Handlers ---

// Login checks the admin password and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password is required"})
		return
	}

	cookie, err := h.sessions.Login(r.Context(), req.Password)
	if errors.Is(err, auth.ErrInvalidPassword) {
		h.log.Info("admin login rejected", zap.String("remote_addr", r.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
		return
	}
	if err != nil {
		h.log.Error("admin login failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Logout ends the session. It succeeds even without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := h.sessions.Logout(r.Context(), r)
	if cookie != nil {
		http.SetCookie(w, cookie)
	}
	if err != nil {
		h.log.Error("logout failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Status reports whether the caller holds an admin session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	ok, err := h.sessions.Authenticated(r.Context(), r)
	if err != nil {
		h.log.Warn("session lookup failed", zap.Error(err))
		ok = false
	}
	writeJSON(w, http.StatusOK, statusResponse{Authenticated: ok})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}

func handlerLogger(log *zap.Logger, name string) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return log.Named(name)
}
