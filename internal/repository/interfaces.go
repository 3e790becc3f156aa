package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"minitweet/internal/model"
)

// Transactor runs fn inside a single database transaction.
// fn's error (or a panic) rolls the transaction back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByCredentialKey matches the email (case-insensitively) or the exact username.
	GetByCredentialKey(ctx context.Context, emailOrUsername string) (*model.User, error)
	// FindExisting reports which unique field, if any, is already taken.
	FindExisting(ctx context.Context, username, email string) (field string, err error)
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error)
	Search(ctx context.Context, query string) ([]model.UserSummary, error)
	GetSummaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error)
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID string, delta int) error
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID string, delta int) error
	IncrementTweetCount(ctx context.Context, tx *sqlx.Tx, userID string, delta int) error
}

type FollowRepository interface {
	// Create inserts the edge; false means it already existed.
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID string) (bool, error)
	// Delete removes the edge; false means there was nothing to remove.
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID string) (bool, error)
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	GetFollowers(ctx context.Context, userID string) ([]model.UserSummary, error)
	GetFollowing(ctx context.Context, userID string) ([]model.UserSummary, error)
	GetFolloweeIDs(ctx context.Context, userID string) ([]string, error)
}

type TweetRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, tweet *model.Tweet) error
	GetByID(ctx context.Context, id string) (*model.Tweet, error)
	// Delete removes the tweet only if authorID owns it; false means no row matched.
	Delete(ctx context.Context, tx *sqlx.Tx, id, authorID string) (bool, error)
	Exists(ctx context.Context, id string) (bool, error)
	// GetByAuthors returns at most limit tweets ordered by created_at DESC, id DESC.
	GetByAuthors(ctx context.Context, authorIDs []string, limit int) ([]model.Tweet, error)
	// GetLikerIDs returns the like set of each tweet, keyed by tweet ID.
	GetLikerIDs(ctx context.Context, tweetIDs []string) (map[string][]string, error)
	Like(ctx context.Context, tx *sqlx.Tx, tweetID, userID string) (bool, error)
	Unlike(ctx context.Context, tx *sqlx.Tx, tweetID, userID string) (bool, error)
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, tweetID string, delta int) error
}
