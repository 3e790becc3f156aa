package model

import (
	"errors"
	"time"
)

type Follow struct {
	FollowerID string    `db:"follower_id" json:"followerId"`
	FolloweeID string    `db:"followee_id" json:"followeeId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// FollowResponse is returned by follow and unfollow with the actor's updated following set.
type FollowResponse struct {
	Message   string        `json:"message"`
	Following []UserSummary `json:"following"`
}

var (
	ErrAlreadyFollowing = errors.New("you are already following this user")
	ErrNotFollowing     = errors.New("you are not following this user")
	ErrCannotFollowSelf = errors.New("you cannot follow yourself")
)
