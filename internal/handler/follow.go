package handler

import (
	"net/http"

	"minitweet/internal/httputil"
	"minitweet/internal/service"
)

type FollowHandler struct {
	followService *service.FollowService
	errs          ErrorMapper
}

func NewFollowHandler(followService *service.FollowService, errs ErrorMapper) *FollowHandler {
	return &FollowHandler{
		followService: followService,
		errs:          errs,
	}
}

// Follow handles POST /users/{id}/follow
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	targetID, err := pathID(r, "id")
	if err != nil {
		h.errs.Write(w, r, "Follow", err)
		return
	}

	resp, err := h.followService.Follow(r.Context(), actorID, targetID)
	if err != nil {
		h.errs.Write(w, r, "Follow", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Unfollow handles POST /users/{id}/unfollow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	targetID, err := pathID(r, "id")
	if err != nil {
		h.errs.Write(w, r, "Unfollow", err)
		return
	}

	resp, err := h.followService.Unfollow(r.Context(), actorID, targetID)
	if err != nil {
		h.errs.Write(w, r, "Unfollow", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// GetFollowers handles GET /users/{id}/followers
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		h.errs.Write(w, r, "GetFollowers", err)
		return
	}

	users, err := h.followService.GetFollowers(r.Context(), userID)
	if err != nil {
		h.errs.Write(w, r, "GetFollowers", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, users)
}

// GetFollowing handles GET /users/{id}/following
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		h.errs.Write(w, r, "GetFollowing", err)
		return
	}

	users, err := h.followService.GetFollowing(r.Context(), userID)
	if err != nil {
		h.errs.Write(w, r, "GetFollowing", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, users)
}
