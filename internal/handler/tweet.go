package handler

import (
	"context"
	"net/http"

	"minitweet/internal/httputil"
	"minitweet/internal/model"
	"minitweet/internal/service"
)

type TweetHandler struct {
	tweetService *service.TweetService
	feedService  *service.FeedService
	errs         ErrorMapper
}

func NewTweetHandler(tweetService *service.TweetService, feedService *service.FeedService, errs ErrorMapper) *TweetHandler {
	return &TweetHandler{
		tweetService: tweetService,
		feedService:  feedService,
		errs:         errs,
	}
}

// Create handles POST /tweets
func (h *TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req model.CreateTweetRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	tweet, err := h.tweetService.Create(r.Context(), userID, &req)
	if err != nil {
		h.errs.Write(w, r, "CreateTweet", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, tweet)
}

// Feed handles GET /tweets: the caller's own tweets plus those of everyone they follow.
func (h *TweetHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	tweets, err := h.feedService.ComposeFeed(r.Context(), userID)
	if err != nil {
		h.errs.Write(w, r, "Feed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tweets)
}

// UserTweets handles GET /tweets/user/{userId}
func (h *TweetHandler) UserTweets(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.errs.Write(w, r, "UserTweets", err)
		return
	}

	tweets, err := h.feedService.UserTimeline(r.Context(), userID)
	if err != nil {
		h.errs.Write(w, r, "UserTweets", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tweets)
}

// GetByID handles GET /tweets/{id}
func (h *TweetHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tweetID, err := pathID(r, "id")
	if err != nil {
		h.errs.Write(w, r, "GetTweet", err)
		return
	}

	tweet, err := h.tweetService.GetByID(r.Context(), tweetID)
	if err != nil {
		h.errs.Write(w, r, "GetTweet", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tweet)
}

// Delete handles DELETE /tweets/{id}; only the author may delete.
func (h *TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	tweetID, err := pathID(r, "id")
	if err != nil {
		h.errs.Write(w, r, "DeleteTweet", err)
		return
	}

	if err := h.tweetService.Delete(r.Context(), tweetID, userID); err != nil {
		h.errs.Write(w, r, "DeleteTweet", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.MessageResponse{Message: "Tweet deleted successfully."})
}

// Like handles POST /tweets/{id}/like
func (h *TweetHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.engage(w, r, "Like", h.tweetService.Like)
}

// Unlike handles POST /tweets/{id}/unlike
func (h *TweetHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.engage(w, r, "Unlike", h.tweetService.Unlike)
}

type engagementFunc func(ctx context.Context, tweetID, userID string) (*model.TweetDetail, error)

func (h *TweetHandler) engage(w http.ResponseWriter, r *http.Request, op string, fn engagementFunc) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	tweetID, err := pathID(r, "id")
	if err != nil {
		h.errs.Write(w, r, op, err)
		return
	}

	tweet, err := fn(r.Context(), tweetID, userID)
	if err != nil {
		h.errs.Write(w, r, op, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tweet)
}
