package service

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"

	"minitweet/internal/metrics"
	"minitweet/internal/model"
	"minitweet/internal/repository"
)

// FollowService maintains the social graph. Each edge is one row, so the
// follower and followee views can never disagree.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	tx         repository.Transactor
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	tx repository.Transactor,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		tx:         tx,
	}
}

// Follow adds the actor -> target edge and returns the actor's updated following list.
func (s *FollowService) Follow(ctx context.Context, actorID, targetID string) (*model.FollowResponse, error) {
	if actorID == targetID {
		return nil, model.ErrCannotFollowSelf
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		inserted, err := s.followRepo.Create(ctx, tx, actorID, targetID)
		if err != nil {
			return err
		}
		if !inserted {
			return model.ErrAlreadyFollowing
		}
		if err := s.userRepo.IncrementFollowerCount(ctx, tx, targetID, 1); err != nil {
			return err
		}
		return s.userRepo.IncrementFollowingCount(ctx, tx, actorID, 1)
	})
	if err != nil {
		return nil, err
	}

	metrics.FollowEdges.WithLabelValues(metrics.EventAdded).Inc()
	log.Printf("[FollowService] follow: actor=%s target=%s", actorID, targetID)

	return s.followingResponse(ctx, actorID, "Successfully followed "+target.Username)
}

// Unfollow removes the actor -> target edge and returns the actor's updated following list.
func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID string) (*model.FollowResponse, error) {
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		deleted, err := s.followRepo.Delete(ctx, tx, actorID, targetID)
		if err != nil {
			return err
		}
		if !deleted {
			return model.ErrNotFollowing
		}
		if err := s.userRepo.IncrementFollowerCount(ctx, tx, targetID, -1); err != nil {
			return err
		}
		return s.userRepo.IncrementFollowingCount(ctx, tx, actorID, -1)
	})
	if err != nil {
		return nil, err
	}

	metrics.FollowEdges.WithLabelValues(metrics.EventRemoved).Inc()
	log.Printf("[FollowService] unfollow: actor=%s target=%s", actorID, targetID)

	return s.followingResponse(ctx, actorID, "Successfully unfollowed "+target.Username)
}

func (s *FollowService) followingResponse(ctx context.Context, actorID, message string) (*model.FollowResponse, error) {
	following, err := s.followRepo.GetFollowing(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return &model.FollowResponse{Message: message, Following: following}, nil
}

// GetFollowers lists who follows userID. Unknown users are NotFound rather than an empty list.
func (s *FollowService) GetFollowers(ctx context.Context, userID string) ([]model.UserSummary, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.GetFollowers(ctx, userID)
}

func (s *FollowService) GetFollowing(ctx context.Context, userID string) ([]model.UserSummary, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.GetFollowing(ctx, userID)
}
