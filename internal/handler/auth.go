package handler

import (
	"net/http"

	"minitweet/internal/httputil"
	"minitweet/internal/model"
	"minitweet/internal/service"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
	errs        ErrorMapper
}

func NewAuthHandler(userService *service.UserService, authService *service.AuthService, errs ErrorMapper) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		errs:        errs,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		h.errs.Write(w, r, "Register", err)
		return
	}

	h.writeSession(w, r, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		h.errs.Write(w, r, "Login", err)
		return
	}

	h.writeSession(w, r, http.StatusOK, user)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), userID, userID)
	if err != nil {
		h.errs.Write(w, r, "Me", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, expiresAt, err := h.authService.IssueToken(user)
	if err != nil {
		h.errs.Write(w, r, "IssueToken", err)
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), user.ID, user.ID)
	if err != nil {
		h.errs.Write(w, r, "IssueToken", err)
		return
	}

	httputil.WriteJSON(w, status, model.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      profile,
	})
}
