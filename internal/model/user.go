package model

import (
	"errors"
	"time"
)

// User represents a user in the system
type User struct {
	ID             string    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"` // "-" hides from JSON output
	ProfilePicture string    `db:"profile_picture" json:"profilePicture"`
	PictureKey     *string   `db:"picture_key" json:"-"`
	Bio            string    `db:"bio" json:"bio"`
	FollowerCount  int       `db:"follower_count" json:"followerCount"`
	FollowingCount int       `db:"following_count" json:"followingCount"`
	TweetCount     int       `db:"tweet_count" json:"tweetCount"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Summary returns the denormalized author view of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}

// UserSummary is the read-time join shape used wherever another record references a user.
type UserSummary struct {
	ID             string `db:"id" json:"id"`
	Username       string `db:"username" json:"username"`
	ProfilePicture string `db:"profile_picture" json:"profilePicture"`
}

// Profile is a user with populated social-graph edges.
type Profile struct {
	*User
	Followers   []UserSummary `json:"followers"`
	Following   []UserSummary `json:"following"`
	IsFollowing bool          `json:"isFollowing"`
}

// ProfilePage is the response for GET /users/:id
type ProfilePage struct {
	User   *Profile `json:"user"`
	Tweets []Tweet  `json:"tweets"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,excludesall= \t\n"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries optional profile fields; nil means "leave unchanged".
type UpdateProfileRequest struct {
	Bio            *string `json:"bio" validate:"omitempty,max=160"`
	ProfilePicture *string `json:"profilePicture" validate:"omitempty,max=2048"`
}

// ProfileUpdate is the normalized change set applied by the repository.
type ProfileUpdate struct {
	Bio            *string
	ProfilePicture *string
	PictureKey     *string
}

// AuthResponse is returned after successful registration or login
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *Profile  `json:"user"`
}

// ProfileUpdateResponse is returned by PUT /users/profile
type ProfileUpdateResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// User field limits
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 6
	// MaxPasswordBytes is the bcrypt input limit, counted in bytes not characters.
	MaxPasswordBytes = 72
	MaxBioLength      = 160
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
