// Package repotest provides an in-memory implementation of the repository
// interfaces for service, handler and end-to-end tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"minitweet/internal/model"
	"minitweet/internal/repository"
)

type edge struct{ from, to string }

// Store holds users, follow edges, tweets and likes behind one mutex.
// WithinTx runs fn directly; the mutex already serializes each call.
type Store struct {
	mu     sync.Mutex
	users  map[string]*model.User
	follow map[edge]time.Time
	tweets map[string]*model.Tweet
	likes  map[edge]time.Time // from=tweetID to=userID
	clock  time.Time
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]*model.User),
		follow: make(map[edge]time.Time),
		tweets: make(map[string]*model.Tweet),
		likes:  make(map[edge]time.Time),
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// now returns a strictly increasing timestamp so ordering in tests is deterministic.
func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) Users() repository.UserRepository     { return (*userRepo)(s) }
func (s *Store) Follows() repository.FollowRepository { return (*followRepo)(s) }
func (s *Store) Tweets() repository.TweetRepository   { return (*tweetRepo)(s) }

func (s *Store) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(nil)
}

type userRepo Store

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return &model.DuplicateFieldError{Field: "username"}
		}
		if existing.Email == u.Email {
			return &model.DuplicateFieldError{Field: "email"}
		}
	}
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByCredentialKey(ctx context.Context, key string) (*model.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	key = strings.TrimSpace(key)
	for _, u := range s.users {
		if u.Email == strings.ToLower(key) || u.Username == key {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *userRepo) FindExisting(ctx context.Context, username, email string) (string, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return "username", nil
		}
		if u.Email == strings.ToLower(email) {
			return "email", nil
		}
	}
	return "", nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.ProfilePicture != nil {
		u.ProfilePicture = *update.ProfilePicture
		u.PictureKey = update.PictureKey
	}
	u.UpdatedAt = s.now()
	cp := *u
	return &cp, nil
}

func (r *userRepo) Search(ctx context.Context, query string) ([]model.UserSummary, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.UserSummary{}
	q := strings.ToLower(query)
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Username), q) {
			out = append(out, u.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *userRepo) GetSummaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

func (r *userRepo) bump(userID string, fn func(u *model.User)) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		fn(u)
	}
	return nil
}

func (r *userRepo) IncrementFollowerCount(ctx context.Context, _ *sqlx.Tx, userID string, delta int) error {
	return r.bump(userID, func(u *model.User) { u.FollowerCount += delta })
}

func (r *userRepo) IncrementFollowingCount(ctx context.Context, _ *sqlx.Tx, userID string, delta int) error {
	return r.bump(userID, func(u *model.User) { u.FollowingCount += delta })
}

func (r *userRepo) IncrementTweetCount(ctx context.Context, _ *sqlx.Tx, userID string, delta int) error {
	return r.bump(userID, func(u *model.User) { u.TweetCount += delta })
}

type followRepo Store

func (r *followRepo) Create(ctx context.Context, _ *sqlx.Tx, followerID, followeeID string) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[followeeID]; !ok {
		return false, model.ErrUserNotFound
	}
	e := edge{followerID, followeeID}
	if _, ok := s.follow[e]; ok {
		return false, nil
	}
	s.follow[e] = s.now()
	return true, nil
}

func (r *followRepo) Delete(ctx context.Context, _ *sqlx.Tx, followerID, followeeID string) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := edge{followerID, followeeID}
	if _, ok := s.follow[e]; !ok {
		return false, nil
	}
	delete(s.follow, e)
	return true, nil
}

func (r *followRepo) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.follow[edge{followerID, followeeID}]
	return ok, nil
}

// list returns the summaries on the other end of matching edges, newest edge first.
func (r *followRepo) list(match func(e edge) (string, bool)) []model.UserSummary {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	type item struct {
		at time.Time
		s  model.UserSummary
	}
	var items []item
	for e, at := range s.follow {
		if id, ok := match(e); ok {
			if u, exists := s.users[id]; exists {
				items = append(items, item{at, u.Summary()})
			}
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].at.After(items[j].at) })
	out := make([]model.UserSummary, 0, len(items))
	for _, it := range items {
		out = append(out, it.s)
	}
	return out
}

func (r *followRepo) GetFollowers(ctx context.Context, userID string) ([]model.UserSummary, error) {
	return r.list(func(e edge) (string, bool) { return e.from, e.to == userID }), nil
}

func (r *followRepo) GetFollowing(ctx context.Context, userID string) ([]model.UserSummary, error) {
	return r.list(func(e edge) (string, bool) { return e.to, e.from == userID }), nil
}

func (r *followRepo) GetFolloweeIDs(ctx context.Context, userID string) ([]string, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for e := range s.follow {
		if e.from == userID {
			ids = append(ids, e.to)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type tweetRepo Store

func (r *tweetRepo) Create(ctx context.Context, _ *sqlx.Tx, t *model.Tweet) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[t.AuthorID]; !ok {
		return model.ErrUserNotFound
	}
	t.CreatedAt = s.now()
	t.Likes = []string{}
	cp := *t
	s.tweets[t.ID] = &cp
	return nil
}

func (r *tweetRepo) GetByID(ctx context.Context, id string) (*model.Tweet, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tweets[id]
	if !ok {
		return nil, model.ErrTweetNotFound
	}
	cp := *t
	cp.Likes = nil
	return &cp, nil
}

func (r *tweetRepo) Delete(ctx context.Context, _ *sqlx.Tx, id, authorID string) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tweets[id]
	if !ok || t.AuthorID != authorID {
		return false, nil
	}
	delete(s.tweets, id)
	for e := range s.likes {
		if e.from == id {
			delete(s.likes, e)
		}
	}
	return true, nil
}

func (r *tweetRepo) Exists(ctx context.Context, id string) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tweets[id]
	return ok, nil
}

func (r *tweetRepo) GetByAuthors(ctx context.Context, authorIDs []string, limit int) ([]model.Tweet, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	authors := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = true
	}
	out := []model.Tweet{}
	for _, t := range s.tweets {
		if authors[t.AuthorID] {
			cp := *t
			cp.Likes = nil
			out = append(out, cp)
		}
	}
	model.SortByRecency(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *tweetRepo) GetLikerIDs(ctx context.Context, tweetIDs []string) (map[string][]string, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]bool, len(tweetIDs))
	for _, id := range tweetIDs {
		want[id] = true
	}
	type like struct {
		at   time.Time
		user string
	}
	byTweet := make(map[string][]like)
	for e, at := range s.likes {
		if want[e.from] {
			byTweet[e.from] = append(byTweet[e.from], like{at, e.to})
		}
	}
	out := make(map[string][]string, len(byTweet))
	for id, likes := range byTweet {
		sort.Slice(likes, func(i, j int) bool { return likes[i].at.Before(likes[j].at) })
		for _, l := range likes {
			out[id] = append(out[id], l.user)
		}
	}
	return out, nil
}

func (r *tweetRepo) Like(ctx context.Context, _ *sqlx.Tx, tweetID, userID string) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tweets[tweetID]; !ok {
		return false, model.ErrTweetNotFound
	}
	e := edge{tweetID, userID}
	if _, ok := s.likes[e]; ok {
		return false, nil
	}
	s.likes[e] = s.now()
	return true, nil
}

func (r *tweetRepo) Unlike(ctx context.Context, _ *sqlx.Tx, tweetID, userID string) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := edge{tweetID, userID}
	if _, ok := s.likes[e]; !ok {
		return false, nil
	}
	delete(s.likes, e)
	return true, nil
}

func (r *tweetRepo) IncrementLikeCount(ctx context.Context, _ *sqlx.Tx, tweetID string, delta int) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tweets[tweetID]; ok {
		t.LikeCount += delta
	}
	return nil
}
