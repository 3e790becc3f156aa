package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"minitweet/internal/model"
	"minitweet/internal/repository"
)

// =============================================================================
// MOCK REPOSITORY
// =============================================================================

// mockUserRepository stubs the methods UserService calls during register and
// login. Anything else falls through to the nil embedded interface and panics.
type mockUserRepository struct {
	repository.UserRepository

	createFn             func(ctx context.Context, user *model.User) error
	findExistingFn       func(ctx context.Context, username, email string) (string, error)
	getByCredentialKeyFn func(ctx context.Context, key string) (*model.User, error)

	createCalls []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) FindExisting(ctx context.Context, username, email string) (string, error) {
	if m.findExistingFn != nil {
		return m.findExistingFn(ctx, username, email)
	}
	return "", nil
}

func (m *mockUserRepository) GetByCredentialKey(ctx context.Context, key string) (*model.User, error) {
	if m.getByCredentialKeyFn != nil {
		return m.getByCredentialKeyFn(ctx, key)
	}
	return nil, model.ErrUserNotFound
}

const testDefaultPicture = "https://via.placeholder.com/150"

// =============================================================================
// REGISTER TESTS
// =============================================================================

func TestUserService_Register_Success(t *testing.T) {
	// ARRANGE
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, nil, nil, testDefaultPicture)

	req := &model.RegisterRequest{
		Username: "  alice ",
		Email:    "Alice@Example.COM",
		Password: "secret1",
	}

	// ACT
	user, err := svc.Register(context.Background(), req)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.ID == "" {
		t.Error("expected an ID to be assigned")
	}
	if user.Username != "alice" {
		t.Errorf("expected trimmed username 'alice', got %q", user.Username)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected lowercased email, got %q", user.Email)
	}
	if user.ProfilePicture != testDefaultPicture {
		t.Errorf("expected default picture, got %q", user.ProfilePicture)
	}
	if user.PasswordHash == "secret1" {
		t.Error("password was stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")); err != nil {
		t.Errorf("password hash does not match: %v", err)
	}
	if len(mockRepo.createCalls) != 1 {
		t.Errorf("expected Create to be called once, got %d", len(mockRepo.createCalls))
	}
}

func TestUserService_Register_DuplicateField(t *testing.T) {
	for _, field := range []string{"username", "email"} {
		t.Run(field, func(t *testing.T) {
			mockRepo := &mockUserRepository{
				findExistingFn: func(ctx context.Context, username, email string) (string, error) {
					return field, nil
				},
			}
			svc := NewUserService(mockRepo, nil, nil, testDefaultPicture)

			_, err := svc.Register(context.Background(), &model.RegisterRequest{
				Username: "alice", Email: "a@x.io", Password: "secret1",
			})

			var dup *model.DuplicateFieldError
			if !errors.As(err, &dup) {
				t.Fatalf("expected DuplicateFieldError, got %v", err)
			}
			if dup.Field != field {
				t.Errorf("expected field %q, got %q", field, dup.Field)
			}
			if len(mockRepo.createCalls) != 0 {
				t.Error("Create should not be called for a duplicate")
			}
		})
	}
}

// The unique index is the last line of defense when two registrations race past the pre-check.
func TestUserService_Register_RaceOnInsert(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			return &model.DuplicateFieldError{Field: "email"}
		},
	}
	svc := NewUserService(mockRepo, nil, nil, testDefaultPicture)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "alice", Email: "a@x.io", Password: "secret1",
	})

	var dup *model.DuplicateFieldError
	if !errors.As(err, &dup) || dup.Field != "email" {
		t.Fatalf("expected email DuplicateFieldError, got %v", err)
	}
}

func TestUserService_Register_ShortPassword(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, nil, nil, testDefaultPicture)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "alice", Email: "a@x.io", Password: "12345",
	})

	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "password" {
		t.Errorf("expected password field, got %q", ve.Field)
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("Create should not be called")
	}
}

func TestUserService_Register_PasswordByteLimit(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, nil, nil, testDefaultPicture)

	// 40 characters, 80 bytes: under any character cap but over bcrypt's input limit.
	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "alice", Email: "a@x.io", Password: strings.Repeat("é", 40),
	})

	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "password" {
		t.Errorf("expected password field, got %q", ve.Field)
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("Create should not be called")
	}
}

func TestUserService_Register_LongASCIIPassword(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, nil, nil, testDefaultPicture)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "alice", Email: "a@x.io", Password: strings.Repeat("a", 72),
	})
	if err != nil {
		t.Fatalf("72-byte password should be accepted, got %v", err)
	}
	if len(mockRepo.createCalls) != 1 {
		t.Fatalf("expected one Create call, got %d", len(mockRepo.createCalls))
	}
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

func TestUserService_Login(t *testing.T) {
	stored := &model.User{ID: "u1", Username: "alice", Email: "a@x.io", PasswordHash: hashed(t, "secret1")}

	tests := []struct {
		name     string
		key      string
		password string
		wantErr  error
	}{
		{name: "by username", key: "alice", password: "secret1"},
		{name: "by email", key: "a@x.io", password: "secret1"},
		{name: "wrong password", key: "alice", password: "nope", wantErr: model.ErrInvalidCredentials},
		{name: "unknown user", key: "bob", password: "secret1", wantErr: model.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{
				getByCredentialKeyFn: func(ctx context.Context, key string) (*model.User, error) {
					if key == stored.Username || key == stored.Email {
						return stored, nil
					}
					return nil, model.ErrUserNotFound
				},
			}
			svc := NewUserService(mockRepo, nil, nil, testDefaultPicture)

			user, err := svc.Login(context.Background(), &model.LoginRequest{
				EmailOrUsername: tt.key,
				Password:        tt.password,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if user.ID != "u1" {
				t.Errorf("expected u1, got %s", user.ID)
			}
		})
	}
}

func TestUserService_Login_StoreErrorIsNotMasked(t *testing.T) {
	boom := errors.New("connection refused")
	mockRepo := &mockUserRepository{
		getByCredentialKeyFn: func(ctx context.Context, key string) (*model.User, error) {
			return nil, boom
		},
	}
	svc := NewUserService(mockRepo, nil, nil, testDefaultPicture)

	_, err := svc.Login(context.Background(), &model.LoginRequest{EmailOrUsername: "alice", Password: "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
