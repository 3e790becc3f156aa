package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"minitweet/internal/model"
)

const tweetColumns = `id, author_id, content, like_count, created_at`

type tweetRepository struct {
	db *sqlx.DB
}

func NewTweetRepository(db *sqlx.DB) TweetRepository {
	return &tweetRepository{db: db}
}

// Create inserts the tweet and fills in CreatedAt from the database clock.
func (r *tweetRepository) Create(ctx context.Context, tx *sqlx.Tx, t *model.Tweet) error {
	query := `
		INSERT INTO tweets (id, author_id, content, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING like_count, created_at
	`
	err := tx.QueryRowxContext(ctx, query, t.ID, t.AuthorID, t.Content).Scan(&t.LikeCount, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tweet: %w", err)
	}
	t.Likes = []string{}
	return nil
}

func (r *tweetRepository) GetByID(ctx context.Context, id string) (*model.Tweet, error) {
	query := `SELECT ` + tweetColumns + ` FROM tweets WHERE id = $1`

	var t model.Tweet
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrTweetNotFound
		}
		return nil, fmt.Errorf("failed to get tweet: %w", err)
	}
	return &t, nil
}

// Delete removes the tweet only when authorID matches. Likes go with it via ON DELETE CASCADE.
func (r *tweetRepository) Delete(ctx context.Context, tx *sqlx.Tx, id, authorID string) (bool, error) {
	query := `DELETE FROM tweets WHERE id = $1 AND author_id = $2`
	result, err := tx.ExecContext(ctx, query, id, authorID)
	if err != nil {
		return false, fmt.Errorf("failed to delete tweet: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *tweetRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tweets WHERE id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check tweet existence: %w", err)
	}
	return exists, nil
}

func (r *tweetRepository) GetByAuthors(ctx context.Context, authorIDs []string, limit int) ([]model.Tweet, error) {
	tweets := []model.Tweet{}
	if len(authorIDs) == 0 {
		return tweets, nil
	}

	query := `
		SELECT ` + tweetColumns + `
		FROM tweets
		WHERE author_id = ANY($1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &tweets, query, pq.Array(authorIDs), limit); err != nil {
		return nil, fmt.Errorf("failed to get tweets by authors: %w", err)
	}
	return tweets, nil
}

// GetLikerIDs returns like sets in the order the likes were made.
func (r *tweetRepository) GetLikerIDs(ctx context.Context, tweetIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(tweetIDs))
	if len(tweetIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT tweet_id, user_id
		FROM tweet_likes
		WHERE tweet_id = ANY($1)
		ORDER BY created_at, user_id
	`
	var rows []struct {
		TweetID string `db:"tweet_id"`
		UserID  string `db:"user_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(tweetIDs)); err != nil {
		return nil, fmt.Errorf("failed to get likers: %w", err)
	}
	for _, row := range rows {
		result[row.TweetID] = append(result[row.TweetID], row.UserID)
	}
	return result, nil
}

// Like inserts a like row; false means the user had already liked the tweet.
func (r *tweetRepository) Like(ctx context.Context, tx *sqlx.Tx, tweetID, userID string) (bool, error) {
	query := `
		INSERT INTO tweet_likes (tweet_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (tweet_id, user_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, tweetID, userID)
	if err != nil {
		// The tweet was deleted between the lookup and the insert.
		if pqErr, ok := pqError(err); ok && string(pqErr.Code) == pgForeignKeyViolation {
			return false, model.ErrTweetNotFound
		}
		return false, fmt.Errorf("insert like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *tweetRepository) Unlike(ctx context.Context, tx *sqlx.Tx, tweetID, userID string) (bool, error) {
	query := `DELETE FROM tweet_likes WHERE tweet_id = $1 AND user_id = $2`
	result, err := tx.ExecContext(ctx, query, tweetID, userID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *tweetRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, tweetID string, delta int) error {
	query := `UPDATE tweets SET like_count = GREATEST(like_count + $1, 0) WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, delta, tweetID); err != nil {
		return fmt.Errorf("failed to increment like count: %w", err)
	}
	return nil
}
