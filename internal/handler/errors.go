package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"minitweet/internal/httputil"
	"minitweet/internal/model"
)

// ErrorMapper turns service errors into HTTP responses.
// With Debug set, the wrapped error chain is returned in the detail field.
type ErrorMapper struct {
	Debug bool
}

type mappedError struct {
	status  int
	code    string
	message string
}

var sentinelErrors = []struct {
	err error
	mappedError
}{
	{model.ErrInvalidID, mappedError{http.StatusBadRequest, httputil.ErrCodeBadRequest, "Invalid ID format"}},
	{model.ErrInvalidCredentials, mappedError{http.StatusBadRequest, httputil.ErrCodeBadRequest, "Invalid credentials."}},
	{model.ErrCannotFollowSelf, mappedError{http.StatusBadRequest, httputil.ErrCodeBadRequest, "You cannot follow yourself."}},
	{model.ErrAlreadyFollowing, mappedError{http.StatusBadRequest, httputil.ErrCodeBadRequest, "You are already following this user."}},
	{model.ErrNotFollowing, mappedError{http.StatusBadRequest, httputil.ErrCodeBadRequest, "You are not following this user."}},
	{model.ErrAlreadyLiked, mappedError{http.StatusBadRequest, httputil.ErrCodeBadRequest, "You already liked this tweet."}},
	{model.ErrNotLiked, mappedError{http.StatusBadRequest, httputil.ErrCodeBadRequest, "You have not liked this tweet."}},
	{model.ErrFileTooLarge, mappedError{http.StatusBadRequest, httputil.ErrCodeFileTooLarge, "Profile picture exceeds 5MB limit"}},
	{model.ErrInvalidImageType, mappedError{http.StatusBadRequest, httputil.ErrCodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp"}},
	{model.ErrTokenExpired, mappedError{http.StatusUnauthorized, httputil.ErrCodeTokenExpired, "Unauthorized: Token expired"}},
	{model.ErrTokenInvalid, mappedError{http.StatusUnauthorized, httputil.ErrCodeUnauthorized, "Unauthorized: Invalid token"}},
	{model.ErrNotTweetOwner, mappedError{http.StatusForbidden, httputil.ErrCodeForbidden, "Forbidden: You are not the owner of this tweet"}},
	{model.ErrUserNotFound, mappedError{http.StatusNotFound, httputil.ErrCodeNotFound, "User not found"}},
	{model.ErrTweetNotFound, mappedError{http.StatusNotFound, httputil.ErrCodeNotFound, "Tweet not found"}},
	{model.ErrStorageNotConfigured, mappedError{http.StatusServiceUnavailable, httputil.ErrCodeServiceUnavailable, "File storage is not configured"}},
	{model.ErrServiceUnavailable, mappedError{http.StatusServiceUnavailable, httputil.ErrCodeServiceUnavailable, "Service temporarily unavailable"}},
	{context.DeadlineExceeded, mappedError{http.StatusServiceUnavailable, httputil.ErrCodeServiceUnavailable, "Service temporarily unavailable"}},
}

func classify(r *http.Request, err error) mappedError {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return mappedError{http.StatusBadRequest, httputil.ErrCodeValidation, ve.Message}
	}
	var dup *model.DuplicateFieldError
	if errors.As(err, &dup) {
		return mappedError{http.StatusBadRequest, httputil.ErrCodeDuplicateField, dup.Error()}
	}
	for _, s := range sentinelErrors {
		if errors.Is(err, s.err) {
			return s.mappedError
		}
	}
	// Drivers don't always wrap ctx.Err(), so check the request deadline directly.
	if errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		return mappedError{http.StatusServiceUnavailable, httputil.ErrCodeServiceUnavailable, "Service temporarily unavailable"}
	}
	return mappedError{http.StatusInternalServerError, httputil.ErrCodeInternal, "Internal Server Error"}
}

// Write maps err to a status and writes the error body. op names the handler for logs.
func (m ErrorMapper) Write(w http.ResponseWriter, r *http.Request, op string, err error) {
	mapped := classify(r, err)
	if mapped.status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s: %v", op, err)
	}

	resp := httputil.ErrorResponse{Message: mapped.message, Code: mapped.code}
	if m.Debug {
		resp.Detail = err.Error()
	}
	httputil.WriteJSON(w, mapped.status, resp)
}
