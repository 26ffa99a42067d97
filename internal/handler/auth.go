package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/social-feed/internal/auth"
)

// AuthHandler drives the request's auth.Controller. The session middleware
// must run first.
type AuthHandler struct {
	logger *slog.Logger
}

func NewAuthHandler(logger *slog.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *AuthHandler) controller(w http.ResponseWriter, r *http.Request) (*auth.Controller, bool) {
	c, ok := auth.FromContext(r.Context())
	if !ok {
		h.logger.Error("no auth controller in request context", slog.String("path", r.URL.Path))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
	return c, ok
}

// HandleSignIn handles POST /api/auth/signin.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}

	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := c.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

// HandleSignUp handles POST /api/auth/signup.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}

	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := c.SignUp(r.Context(), auth.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

// HandleSignOut handles POST /api/auth/signout. It succeeds for anonymous
// callers too.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	c.SignOut()
	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

// HandleMe handles GET /api/me.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	user := c.User()
	if user == nil {
		writeUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}
