package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"minitweet/internal/cache"
	"minitweet/internal/model"
	"minitweet/internal/repository"
	"minitweet/internal/validation"
)

// UserService handles business logic for user operations
type UserService struct {
	repo           repository.UserRepository
	followRepo     repository.FollowRepository
	cache          cache.SummaryCache
	defaultPicture string
}

// NewUserService wires the identity store. summaryCache may be nil.
func NewUserService(
	repo repository.UserRepository,
	followRepo repository.FollowRepository,
	summaryCache cache.SummaryCache,
	defaultPicture string,
) *UserService {
	return &UserService{
		repo:           repo,
		followRepo:     followRepo,
		cache:          summaryCache,
		defaultPicture: defaultPicture,
	}
}

// Register validates the request, checks uniqueness and stores the new user.
// The pre-check names the taken field; the unique index still catches races.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if len(req.Password) > model.MaxPasswordBytes {
		return nil, model.NewValidationError("password", "Password cannot exceed %d bytes", model.MaxPasswordBytes)
	}

	field, err := s.repo.FindExisting(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if field != "" {
		return nil, &model.DuplicateFieldError{Field: field}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   string(hashedPassword),
		ProfilePicture: s.defaultPicture,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[UserService] registered user=%s username=%s", user.ID, user.Username)
	return user, nil
}

// Login authenticates by email or username.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByCredentialKey(ctx, req.EmailOrUsername)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Don't reveal whether the account exists
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProfile loads a user with both edge lists populated and whether viewerID follows them.
func (s *UserService) GetProfile(ctx context.Context, userID, viewerID string) (*model.Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{User: user}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		followers, err := s.followRepo.GetFollowers(gctx, userID)
		profile.Followers = followers
		return err
	})
	g.Go(func() error {
		following, err := s.followRepo.GetFollowing(gctx, userID)
		profile.Following = following
		return err
	})
	if viewerID != "" && viewerID != userID {
		g.Go(func() error {
			isFollowing, err := s.followRepo.Exists(gctx, viewerID, userID)
			profile.IsFollowing = isFollowing
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return profile, nil
}

// UpdateProfile changes bio and/or picture. An empty picture resets to the default.
// When the picture changes, the key of a previously uploaded object is returned
// so the caller can remove it from storage.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.User, *string, error) {
	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		req.Bio = &bio
	}
	if err := validation.Struct(req); err != nil {
		return nil, nil, err
	}

	update := model.ProfileUpdate{Bio: req.Bio}
	var oldKey *string
	if req.ProfilePicture != nil {
		picture := strings.TrimSpace(*req.ProfilePicture)
		if picture == "" {
			picture = s.defaultPicture
		} else if err := validation.Var("profilePicture", picture, "url"); err != nil {
			return nil, nil, err
		}
		update.ProfilePicture = &picture

		current, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		oldKey = current.PictureKey
	}

	user, err := s.repo.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, nil, err
	}
	s.invalidate(ctx, userID)
	return user, oldKey, nil
}

// SetProfilePicture records an uploaded picture and returns the previous object key.
func (s *UserService) SetProfilePicture(ctx context.Context, userID string, upload *model.UploadResult) (*model.User, *string, error) {
	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.repo.UpdateProfile(ctx, userID, model.ProfileUpdate{
		ProfilePicture: &upload.URL,
		PictureKey:     &upload.Key,
	})
	if err != nil {
		return nil, nil, err
	}
	s.invalidate(ctx, userID)
	return user, current.PictureKey, nil
}

// Search returns users whose username contains query, case-insensitively.
func (s *UserService) Search(ctx context.Context, query string) ([]model.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &model.ValidationError{Field: "q", Message: "Search query 'q' is required."}
	}
	return s.repo.Search(ctx, query)
}

func (s *UserService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Printf("[UserService] failed to invalidate summary cache: user=%s err=%v", userID, err)
	}
}
