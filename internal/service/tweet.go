package service

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"minitweet/internal/cache"
	"minitweet/internal/metrics"
	"minitweet/internal/model"
	"minitweet/internal/repository"
	"minitweet/internal/validation"
)

// TweetService owns the post store and the engagement (like/unlike) operations.
type TweetService struct {
	tweetRepo repository.TweetRepository
	userRepo  repository.UserRepository
	tx        repository.Transactor
	hydrator  *hydrator
}

// NewTweetService wires the post store. summaryCache may be nil.
func NewTweetService(
	tweetRepo repository.TweetRepository,
	userRepo repository.UserRepository,
	tx repository.Transactor,
	summaryCache cache.SummaryCache,
) *TweetService {
	return &TweetService{
		tweetRepo: tweetRepo,
		userRepo:  userRepo,
		tx:        tx,
		hydrator:  &hydrator{userRepo: userRepo, tweetRepo: tweetRepo, cache: summaryCache},
	}
}

// Create stores trimmed content and bumps the author's tweet count in the same transaction.
func (s *TweetService) Create(ctx context.Context, authorID string, req *model.CreateTweetRequest) (*model.Tweet, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	tweet := &model.Tweet{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Content:  req.Content,
	}

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.tweetRepo.Create(ctx, tx, tweet); err != nil {
			return err
		}
		return s.userRepo.IncrementTweetCount(ctx, tx, authorID, 1)
	})
	if err != nil {
		return nil, err
	}

	metrics.Tweets.WithLabelValues(metrics.EventCreated).Inc()
	log.Printf("[TweetService] created tweet=%s author=%s", tweet.ID, authorID)

	tweets := []model.Tweet{*tweet}
	if err := s.hydrator.hydrate(ctx, tweets); err != nil {
		return nil, err
	}
	return &tweets[0], nil
}

// GetByID returns the tweet with author and likers resolved.
func (s *TweetService) GetByID(ctx context.Context, id string) (*model.TweetDetail, error) {
	tweet, err := s.tweetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.hydrator.detail(ctx, tweet)
}

// Delete removes the tweet if requesterID owns it.
// The ownership check and the delete are one statement.
func (s *TweetService) Delete(ctx context.Context, id, requesterID string) error {
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		deleted, err := s.tweetRepo.Delete(ctx, tx, id, requesterID)
		if err != nil {
			return err
		}
		if !deleted {
			exists, err := s.tweetRepo.Exists(ctx, id)
			if err != nil {
				return err
			}
			if exists {
				return model.ErrNotTweetOwner
			}
			return model.ErrTweetNotFound
		}
		return s.userRepo.IncrementTweetCount(ctx, tx, requesterID, -1)
	})
	if err != nil {
		return err
	}

	metrics.Tweets.WithLabelValues(metrics.EventDeleted).Inc()
	log.Printf("[TweetService] deleted tweet=%s author=%s", id, requesterID)
	return nil
}

// Like adds userID to the tweet's like set. A second like is rejected, not ignored.
func (s *TweetService) Like(ctx context.Context, tweetID, userID string) (*model.TweetDetail, error) {
	return s.toggleLike(ctx, tweetID, userID, true)
}

// Unlike removes userID from the tweet's like set.
func (s *TweetService) Unlike(ctx context.Context, tweetID, userID string) (*model.TweetDetail, error) {
	return s.toggleLike(ctx, tweetID, userID, false)
}

func (s *TweetService) toggleLike(ctx context.Context, tweetID, userID string, like bool) (*model.TweetDetail, error) {
	if _, err := s.tweetRepo.GetByID(ctx, tweetID); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if like {
			added, err := s.tweetRepo.Like(ctx, tx, tweetID, userID)
			if err != nil {
				return err
			}
			if !added {
				return model.ErrAlreadyLiked
			}
			return s.tweetRepo.IncrementLikeCount(ctx, tx, tweetID, 1)
		}

		removed, err := s.tweetRepo.Unlike(ctx, tx, tweetID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return model.ErrNotLiked
		}
		return s.tweetRepo.IncrementLikeCount(ctx, tx, tweetID, -1)
	})
	if err != nil {
		return nil, err
	}

	if like {
		metrics.Likes.WithLabelValues(metrics.EventAdded).Inc()
	} else {
		metrics.Likes.WithLabelValues(metrics.EventRemoved).Inc()
	}

	return s.GetByID(ctx, tweetID)
}
