package service

import (
	"context"

	"minitweet/internal/cache"
	"minitweet/internal/model"
	"minitweet/internal/repository"
)

// FeedService composes the home feed and per-user timelines from the store on
// every request; nothing is precomputed.
type FeedService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	tweetRepo  repository.TweetRepository
	hydrator   *hydrator
	limit      int
}

func NewFeedService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	tweetRepo repository.TweetRepository,
	summaryCache cache.SummaryCache,
) *FeedService {
	return &FeedService{
		followRepo: followRepo,
		userRepo:   userRepo,
		tweetRepo:  tweetRepo,
		hydrator:   &hydrator{userRepo: userRepo, tweetRepo: tweetRepo, cache: summaryCache},
		limit:      model.FeedLimit,
	}
}

// ComposeFeed returns up to 50 of the newest tweets by userID and everyone userID follows.
func (s *FeedService) ComposeFeed(ctx context.Context, userID string) ([]model.Tweet, error) {
	followeeIDs, err := s.followRepo.GetFolloweeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.compose(ctx, append([]string{userID}, followeeIDs...))
}

// UserTimeline returns up to 50 of userID's newest tweets.
func (s *FeedService) UserTimeline(ctx context.Context, userID string) ([]model.Tweet, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.compose(ctx, []string{userID})
}

func (s *FeedService) compose(ctx context.Context, authorIDs []string) ([]model.Tweet, error) {
	authorSet := make(map[string]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authorSet[id] = struct{}{}
	}

	tweets, err := s.tweetRepo.GetByAuthors(ctx, authorIDs, s.limit)
	if err != nil {
		return nil, err
	}

	// Enforce author membership, order and cap here regardless of what the store returned.
	filtered := tweets[:0]
	for _, t := range tweets {
		if _, ok := authorSet[t.AuthorID]; ok {
			filtered = append(filtered, t)
		}
	}
	model.SortByRecency(filtered)
	if len(filtered) > s.limit {
		filtered = filtered[:s.limit]
	}

	if err := s.hydrator.hydrate(ctx, filtered); err != nil {
		return nil, err
	}
	if filtered == nil {
		filtered = []model.Tweet{}
	}
	return filtered, nil
}
