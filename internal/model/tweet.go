package model

import (
	"errors"
	"sort"
	"time"
)

// Tweet represents a short text post with its like set.
type Tweet struct {
	ID        string    `db:"id" json:"id"`
	AuthorID  string    `db:"author_id" json:"-"`
	Content   string    `db:"content" json:"content"`
	LikeCount int       `db:"like_count" json:"likeCount"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// Joined fields (not in tweets table)
	Author UserSummary `json:"author"`
	Likes  []string    `json:"likes"`
}

// LikedBy reports whether userID is in the tweet's like set.
func (t *Tweet) LikedBy(userID string) bool {
	for _, id := range t.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// TweetDetail is a tweet with liker identities resolved for display.
type TweetDetail struct {
	Tweet
	Likers []UserSummary `json:"likers"`
}

// CreateTweetRequest is the request body for creating a tweet.
type CreateTweetRequest struct {
	Content string `json:"content" validate:"required,max=280"`
}

// Tweet constants
const (
	MaxTweetLength = 280

	// FeedLimit caps both the home feed and a user's timeline.
	FeedLimit = 50
)

// SortByRecency orders tweets newest first, breaking timestamp ties by ID descending.
func SortByRecency(tweets []Tweet) {
	sort.SliceStable(tweets, func(i, j int) bool {
		if tweets[i].CreatedAt.Equal(tweets[j].CreatedAt) {
			return tweets[i].ID > tweets[j].ID
		}
		return tweets[i].CreatedAt.After(tweets[j].CreatedAt)
	})
}

// Tweet errors
var (
	ErrTweetNotFound = errors.New("tweet not found")
	ErrNotTweetOwner = errors.New("not the owner of this tweet")
	ErrAlreadyLiked  = errors.New("you already liked this tweet")
	ErrNotLiked      = errors.New("you have not liked this tweet")
)
