package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"minitweet/internal/model"
)

const userColumns = `id, username, email, password_hash, profile_picture, picture_key, bio,
	follower_count, following_count, tweet_count, created_at, updated_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. A unique violation is reported as *model.DuplicateFieldError.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, profile_picture, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING follower_count, following_count, tweet_count, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.ProfilePicture,
		u.Bio,
	)

	err := row.Scan(
		&u.FollowerCount,
		&u.FollowingCount,
		&u.TweetCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := pqError(err); ok && string(pqErr.Code) == pgUniqueViolation {
			return &model.DuplicateFieldError{Field: duplicateField(pqErr.Constraint)}
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func duplicateField(constraint string) string {
	if strings.Contains(constraint, "email") {
		return "email"
	}
	return "username"
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

func (r *userRepository) GetByCredentialKey(ctx context.Context, emailOrUsername string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1) OR username = $1 LIMIT 1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, strings.TrimSpace(emailOrUsername))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by credential key: %w", err)
	}

	return &u, nil
}

// FindExisting returns "username" or "email" for the first taken field, or "" if both are free.
func (r *userRepository) FindExisting(ctx context.Context, username, email string) (string, error) {
	query := `
		SELECT username, email FROM users
		WHERE username = $1 OR email = LOWER($2)
		LIMIT 1
	`

	var existing struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	err := r.db.GetContext(ctx, &existing, query, username, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to check existing user: %w", err)
	}

	if existing.Username == username {
		return "username", nil
	}
	return "email", nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	query := `
		UPDATE users SET
			bio = COALESCE($2, bio),
			profile_picture = COALESCE($3, profile_picture),
			picture_key = CASE WHEN $3::text IS NULL THEN picture_key ELSE $4 END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id, update.Bio, update.ProfilePicture, update.PictureKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return &u, nil
}

// Search does a case-insensitive substring match on username.
func (r *userRepository) Search(ctx context.Context, query string) ([]model.UserSummary, error) {
	searchQuery := `
		SELECT id, username, profile_picture
		FROM users
		WHERE username ILIKE $1 ESCAPE '\'
		ORDER BY username
	`

	users := []model.UserSummary{}
	err := r.db.SelectContext(ctx, &users, searchQuery, "%"+escapeLike(query)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return users, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *userRepository) GetSummaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	result := make(map[string]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, username, profile_picture FROM users WHERE id = ANY($1)`

	var rows []model.UserSummary
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}
	for _, s := range rows {
		result[s.ID] = s
	}
	return result, nil
}

func (r *userRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID string, delta int) error {
	return r.incrementCounter(ctx, tx, "follower_count", userID, delta)
}

func (r *userRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID string, delta int) error {
	return r.incrementCounter(ctx, tx, "following_count", userID, delta)
}

func (r *userRepository) IncrementTweetCount(ctx context.Context, tx *sqlx.Tx, userID string, delta int) error {
	return r.incrementCounter(ctx, tx, "tweet_count", userID, delta)
}

// column is always one of the constants above, never user input.
func (r *userRepository) incrementCounter(ctx context.Context, tx *sqlx.Tx, column, userID string, delta int) error {
	query := fmt.Sprintf(`UPDATE users SET %[1]s = GREATEST(%[1]s + $1, 0) WHERE id = $2`, column)
	if _, err := tx.ExecContext(ctx, query, delta, userID); err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	return nil
}
