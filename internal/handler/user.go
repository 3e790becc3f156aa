package handler

import (
	"errors"
	"log"
	"net/http"

	"minitweet/internal/httputil"
	"minitweet/internal/model"
	"minitweet/internal/service"
)

type UserHandler struct {
	userService  *service.UserService
	feedService  *service.FeedService
	mediaService *service.MediaService
	errs         ErrorMapper
}

// NewUserHandler wires profile endpoints. mediaService may be nil when storage is not configured.
func NewUserHandler(
	userService *service.UserService,
	feedService *service.FeedService,
	mediaService *service.MediaService,
	errs ErrorMapper,
) *UserHandler {
	return &UserHandler{
		userService:  userService,
		feedService:  feedService,
		mediaService: mediaService,
		errs:         errs,
	}
}

// GetProfile handles GET /users/{id}: the profile plus that user's tweets.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "id")
	if err != nil {
		h.errs.Write(w, r, "GetProfile", err)
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), userID, viewerID)
	if err != nil {
		h.errs.Write(w, r, "GetProfile", err)
		return
	}

	tweets, err := h.feedService.UserTimeline(r.Context(), userID)
	if err != nil {
		h.errs.Write(w, r, "GetProfile", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.ProfilePage{User: profile, Tweets: tweets})
}

// Search handles GET /users/search?q=
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.errs.Write(w, r, "Search", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// UpdateProfile handles PUT /users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	user, oldKey, err := h.userService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		h.errs.Write(w, r, "UpdateProfile", err)
		return
	}
	h.deletePicture(r, oldKey)

	httputil.WriteJSON(w, http.StatusOK, model.ProfileUpdateResponse{
		Message: "Profile updated successfully",
		User:    user,
	})
}

// UploadProfilePicture handles POST /users/profile/picture (multipart field "picture").
func (h *UserHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	maxFormSize := int64(model.MaxPictureSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
		case errors.As(err, &maxErr):
			h.errs.Write(w, r, "UploadProfilePicture", model.ErrFileTooLarge)
		default:
			httputil.WriteBadRequest(w, "Invalid form data")
		}
		return
	}

	file, header, err := r.FormFile("picture")
	if err != nil {
		h.errs.Write(w, r, "UploadProfilePicture", model.NewValidationError("picture", "Picture file is required"))
		return
	}
	defer file.Close()

	upload, err := h.mediaService.UploadProfilePicture(r.Context(), file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		h.errs.Write(w, r, "UploadProfilePicture", err)
		return
	}

	user, oldKey, err := h.userService.SetProfilePicture(r.Context(), userID, upload)
	if err != nil {
		// Don't leave an orphaned object behind.
		if delErr := h.mediaService.DeleteObject(r.Context(), upload.Key); delErr != nil {
			log.Printf("[UserHandler] failed to clean up upload %s: %v", upload.Key, delErr)
		}
		h.errs.Write(w, r, "UploadProfilePicture", err)
		return
	}

	if oldKey != nil && *oldKey != upload.Key {
		h.deletePicture(r, oldKey)
	}

	httputil.WriteJSON(w, http.StatusOK, model.ProfileUpdateResponse{
		Message: "Profile picture updated successfully",
		User:    user,
	})
}

// deletePicture removes a replaced upload. Failures only leave an orphaned object, so they are logged.
func (h *UserHandler) deletePicture(r *http.Request, key *string) {
	if key == nil {
		return
	}
	if err := h.mediaService.DeleteObject(r.Context(), *key); err != nil {
		log.Printf("[UserHandler] failed to delete previous picture %s: %v", *key, err)
	}
}
