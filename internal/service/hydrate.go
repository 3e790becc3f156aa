package service

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"minitweet/internal/cache"
	"minitweet/internal/model"
	"minitweet/internal/repository"
)

// hydrator performs the read-time join that attaches author summaries and
// like sets to tweets. Summaries go through the cache when one is configured.
type hydrator struct {
	userRepo  repository.UserRepository
	tweetRepo repository.TweetRepository
	cache     cache.SummaryCache
}

// summaries resolves ids to summaries. Cache failures fall back to the database.
func (h *hydrator) summaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return map[string]model.UserSummary{}, nil
	}
	if h.cache == nil {
		return h.userRepo.GetSummaries(ctx, ids)
	}

	hits, misses, err := h.cache.GetMany(ctx, ids)
	if err != nil {
		log.Printf("[Hydrator] summary cache unavailable, reading from database: %v", err)
		return h.userRepo.GetSummaries(ctx, ids)
	}
	if len(misses) == 0 {
		return hits, nil
	}

	loaded, err := h.userRepo.GetSummaries(ctx, misses)
	if err != nil {
		return nil, err
	}
	fresh := make([]model.UserSummary, 0, len(loaded))
	for id, s := range loaded {
		hits[id] = s
		fresh = append(fresh, s)
	}
	if err := h.cache.SetMany(ctx, fresh); err != nil {
		log.Printf("[Hydrator] failed to populate summary cache: %v", err)
	}
	return hits, nil
}

// hydrate fills Author and Likes on each tweet in place.
func (h *hydrator) hydrate(ctx context.Context, tweets []model.Tweet) error {
	if len(tweets) == 0 {
		return nil
	}

	authorIDs := make([]string, len(tweets))
	tweetIDs := make([]string, len(tweets))
	for i, t := range tweets {
		authorIDs[i] = t.AuthorID
		tweetIDs[i] = t.ID
	}

	var (
		authors map[string]model.UserSummary
		likes   map[string][]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authors, err = h.summaries(gctx, authorIDs)
		return err
	})
	g.Go(func() error {
		var err error
		likes, err = h.tweetRepo.GetLikerIDs(gctx, tweetIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range tweets {
		t := &tweets[i]
		if s, ok := authors[t.AuthorID]; ok {
			t.Author = s
		} else {
			t.Author = model.UserSummary{ID: t.AuthorID}
		}
		t.Likes = likes[t.ID]
		if t.Likes == nil {
			t.Likes = []string{}
		}
		t.LikeCount = len(t.Likes)
	}
	return nil
}

// detail hydrates a single tweet and resolves its likers for display.
func (h *hydrator) detail(ctx context.Context, t *model.Tweet) (*model.TweetDetail, error) {
	tweets := []model.Tweet{*t}
	if err := h.hydrate(ctx, tweets); err != nil {
		return nil, err
	}

	d := &model.TweetDetail{Tweet: tweets[0], Likers: []model.UserSummary{}}
	if len(d.Likes) == 0 {
		return d, nil
	}

	likers, err := h.summaries(ctx, d.Likes)
	if err != nil {
		return nil, err
	}
	for _, id := range d.Likes {
		if s, ok := likers[id]; ok {
			d.Likers = append(d.Likers, s)
		}
	}
	return d, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
