package handler

import (
	"net/http"
	"time"

	"github.com/danhyun/simpleshop/internal/service"
)

// AuthHandler handles signup, login, logout and the current-user endpoint.
type AuthHandler struct {
	auth       *service.AuthService
	sessionTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler. sessionTTL controls the session
// cookie lifetime and should match the store's inactivity timeout.
func NewAuthHandler(auth *service.AuthService, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, sessionTTL: sessionTTL}
}

// HandleSignup registers a new account.
// POST /api/users/signup
// Request:  {"email":"...","password":"...","nickname":"..."}
// Response: 201 {"user": {...}}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Nickname string `json:"nickname"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.auth.Signup(r.Context(), req.Email, req.Password, req.Nickname)
	if err != nil {
		writeDomainError(w, err, "signup user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleLogin verifies credentials and issues a session cookie.
// POST /api/users/login
// Request:  {"email":"...","password":"..."}
// Response: 200 {"user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, sess, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err, "login user")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleLogout invalidates the current session and clears the cookie.
// Always succeeds, with or without a live session.
// POST /api/users/logout
// Response: 200 {"status":"ok"}
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		h.auth.Logout(r.Context(), cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleMe returns the currently authenticated user.
// GET /api/users/me
// Response: 200 {"user": {...}}
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), principal.UserID)
	if err != nil {
		writeDomainError(w, err, "get current user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}
