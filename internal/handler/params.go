package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"minitweet/internal/httputil"
	"minitweet/internal/transport/http/middleware"
	"minitweet/internal/validation"
)

// pathID returns the named URL parameter once it is known to be a UUID.
func pathID(r *http.Request, name string) (string, error) {
	id := chi.URLParam(r, name)
	if err := validation.ID(id); err != nil {
		return "", err
	}
	return id, nil
}

// currentUserID reads the authenticated user, writing 401 when absent.
func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
	}
	return userID, ok
}
