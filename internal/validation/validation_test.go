package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minitweet/internal/model"
)

func TestStruct_Register(t *testing.T) {
	tests := []struct {
		name      string
		req       model.RegisterRequest
		wantField string
		wantMsg   string
	}{
		{
			name:      "short username",
			req:       model.RegisterRequest{Username: "ab", Email: "a@x.io", Password: "secret1"},
			wantField: "username",
			wantMsg:   "Username must be at least 3 characters",
		},
		{
			name:      "long username",
			req:       model.RegisterRequest{Username: strings.Repeat("a", 31), Email: "a@x.io", Password: "secret1"},
			wantField: "username",
			wantMsg:   "Username cannot exceed 30 characters",
		},
		{
			name:      "bad email",
			req:       model.RegisterRequest{Username: "alice", Email: "nope", Password: "secret1"},
			wantField: "email",
			wantMsg:   "Please provide a valid email",
		},
		{
			name:      "short password",
			req:       model.RegisterRequest{Username: "alice", Email: "a@x.io", Password: "12345"},
			wantField: "password",
			wantMsg:   "Password must be at least 6 characters",
		},
		{
			name:      "missing username",
			req:       model.RegisterRequest{Email: "a@x.io", Password: "secret1"},
			wantField: "username",
			wantMsg:   "Username is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			var ve *model.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, tt.wantMsg, ve.Message)
		})
	}
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(model.RegisterRequest{Username: "alice", Email: "a@x.io", Password: "secret1"}))
}

func TestStruct_TweetLengthCountsRunes(t *testing.T) {
	assert.NoError(t, Struct(model.CreateTweetRequest{Content: strings.Repeat("é", 280)}))
	assert.Error(t, Struct(model.CreateTweetRequest{Content: strings.Repeat("a", 281)}))

	err := Struct(model.CreateTweetRequest{Content: ""})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Tweet content cannot be empty.", ve.Message)
}

func TestStruct_BioLimit(t *testing.T) {
	ok := strings.Repeat("b", 160)
	long := strings.Repeat("b", 161)
	assert.NoError(t, Struct(model.UpdateProfileRequest{Bio: &ok}))

	err := Struct(model.UpdateProfileRequest{Bio: &long})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "bio", ve.Field)
	assert.Equal(t, "Bio cannot exceed 160 characters", ve.Message)
}

func TestVar_URL(t *testing.T) {
	assert.NoError(t, Var("profilePicture", "https://img.example.com/a.jpg", "url"))

	err := Var("profilePicture", "not a url", "url")
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Profile picture must be a valid URL", ve.Message)
}

func TestID(t *testing.T) {
	assert.NoError(t, ID("8a1f4e3c-3d6b-4b7a-9a55-0f5d8a3c2b10"))
	assert.ErrorIs(t, ID("123"), model.ErrInvalidID)
	assert.ErrorIs(t, ID(""), model.ErrInvalidID)
}
