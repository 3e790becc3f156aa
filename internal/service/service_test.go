package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minitweet/internal/cache"
	"minitweet/internal/model"
	"minitweet/internal/repository/repotest"
)

type testEnv struct {
	store  *repotest.Store
	users  *UserService
	follow *FollowService
	tweets *TweetService
	feed   *FeedService
}

func newTestEnv(t *testing.T, summaryCache cache.SummaryCache) *testEnv {
	t.Helper()
	store := repotest.NewStore()
	return &testEnv{
		store:  store,
		users:  NewUserService(store.Users(), store.Follows(), summaryCache, testDefaultPicture),
		follow: NewFollowService(store.Follows(), store.Users(), store),
		tweets: NewTweetService(store.Tweets(), store.Users(), store, summaryCache),
		feed:   NewFeedService(store.Follows(), store.Users(), store.Tweets(), summaryCache),
	}
}

// seedUser inserts a user directly, skipping bcrypt to keep tests fast.
func (e *testEnv) seedUser(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          username + "@example.com",
		PasswordHash:   "x",
		ProfilePicture: testDefaultPicture,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

func (e *testEnv) post(t *testing.T, author *model.User, content string) *model.Tweet {
	t.Helper()
	tw, err := e.tweets.Create(context.Background(), author.ID, &model.CreateTweetRequest{Content: content})
	require.NoError(t, err)
	return tw
}

func summaryIDs(summaries []model.UserSummary) []string {
	ids := make([]string, len(summaries))
	for i, s := range summaries {
		ids[i] = s.ID
	}
	return ids
}

// =============================================================================
// SOCIAL GRAPH
// =============================================================================

func TestFollowService_FollowUnfollowRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")
	b := env.seedUser(t, "bob")

	resp, err := env.follow.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Successfully followed bob", resp.Message)
	assert.Equal(t, []string{b.ID}, summaryIDs(resp.Following))

	followers, err := env.follow.GetFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, summaryIDs(followers))

	bob, _ := env.store.Users().GetByID(ctx, b.ID)
	alice, _ := env.store.Users().GetByID(ctx, a.ID)
	assert.Equal(t, 1, bob.FollowerCount)
	assert.Equal(t, 1, alice.FollowingCount)

	resp, err = env.follow.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Successfully unfollowed bob", resp.Message)
	assert.Empty(t, resp.Following)

	followers, err = env.follow.GetFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)

	bob, _ = env.store.Users().GetByID(ctx, b.ID)
	alice, _ = env.store.Users().GetByID(ctx, a.ID)
	assert.Equal(t, 0, bob.FollowerCount)
	assert.Equal(t, 0, alice.FollowingCount)
}

func TestFollowService_SelfFollow(t *testing.T) {
	env := newTestEnv(t, nil)
	a := env.seedUser(t, "alice")

	_, err := env.follow.Follow(context.Background(), a.ID, a.ID)
	assert.ErrorIs(t, err, model.ErrCannotFollowSelf)

	following, err := env.follow.GetFollowing(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestFollowService_DoubleFollow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")
	b := env.seedUser(t, "bob")

	_, err := env.follow.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = env.follow.Follow(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyFollowing)

	following, err := env.follow.GetFollowing(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, summaryIDs(following))

	bob, _ := env.store.Users().GetByID(ctx, b.ID)
	assert.Equal(t, 1, bob.FollowerCount, "counter must not move on a rejected follow")
}

func TestFollowService_ConcurrentFollowsInsertOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")
	b := env.seedUser(t, "bob")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.follow.Follow(ctx, a.ID, b.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	following, err := env.follow.GetFollowing(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, following, 1)
}

func TestTweetService_ConcurrentLikesInsertOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")
	b := env.seedUser(t, "bob")
	tw := env.post(t, a, "like me once")

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		successes    int
		alreadyLiked int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.tweets.Like(ctx, tw.ID, b.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, model.ErrAlreadyLiked):
				alreadyLiked++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 9, alreadyLiked)

	detail, err := env.tweets.GetByID(ctx, tw.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, detail.Likes)
	assert.Equal(t, 1, detail.LikeCount)
}

func TestTweetService_ConcurrentUnlikesRemoveOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")
	b := env.seedUser(t, "bob")
	tw := env.post(t, a, "unlike me once")
	_, err := env.tweets.Like(ctx, tw.ID, b.ID)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.tweets.Unlike(ctx, tw.ID, b.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	detail, err := env.tweets.GetByID(ctx, tw.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Likes)
	assert.Equal(t, 0, detail.LikeCount)
}

func TestFollowService_Errors(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")
	b := env.seedUser(t, "bob")

	_, err := env.follow.Unfollow(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, model.ErrNotFollowing)

	_, err = env.follow.Follow(ctx, a.ID, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	_, err = env.follow.Unfollow(ctx, a.ID, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	_, err = env.follow.GetFollowers(ctx, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

// =============================================================================
// FEED
// =============================================================================

func TestFeedService_AliceBobScenario(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	alice := env.seedUser(t, "alice")
	env.post(t, alice, "hello world")
	bob := env.seedUser(t, "bob")

	_, err := env.follow.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	feed, err := env.feed.ComposeFeed(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "hello world", feed[0].Content)
	assert.Equal(t, alice.ID, feed[0].Author.ID)
	assert.Equal(t, "alice", feed[0].Author.Username)
	assert.Equal(t, testDefaultPicture, feed[0].Author.ProfilePicture)
}

func TestFeedService_OnlySelfAndFollowees(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	me := env.seedUser(t, "me")
	friend := env.seedUser(t, "friend")
	stranger := env.seedUser(t, "stranger")

	_, err := env.follow.Follow(ctx, me.ID, friend.ID)
	require.NoError(t, err)

	env.post(t, me, "mine")
	env.post(t, friend, "friend's")
	env.post(t, stranger, "stranger's")

	feed, err := env.feed.ComposeFeed(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	for _, tw := range feed {
		assert.Contains(t, []string{me.ID, friend.ID}, tw.Author.ID)
	}
	assert.Equal(t, "friend's", feed[0].Content, "newest first")
	assert.Equal(t, "mine", feed[1].Content)
}

func TestFeedService_CapAndOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	me := env.seedUser(t, "me")

	for i := 0; i < model.FeedLimit+10; i++ {
		env.post(t, me, fmt.Sprintf("post %d", i))
	}

	feed, err := env.feed.ComposeFeed(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, feed, model.FeedLimit)
	assert.Equal(t, fmt.Sprintf("post %d", model.FeedLimit+9), feed[0].Content)
	for i := 1; i < len(feed); i++ {
		assert.False(t, feed[i].CreatedAt.After(feed[i-1].CreatedAt), "feed must be sorted newest first")
	}
}

func TestFeedService_UserTimeline(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")
	b := env.seedUser(t, "bob")
	env.post(t, a, "by alice")
	env.post(t, b, "by bob")

	timeline, err := env.feed.UserTimeline(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, "by alice", timeline[0].Content)

	_, err = env.feed.UserTimeline(ctx, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestFeedService_EmptyFeedIsNotNil(t *testing.T) {
	env := newTestEnv(t, nil)
	me := env.seedUser(t, "me")

	feed, err := env.feed.ComposeFeed(context.Background(), me.ID)
	require.NoError(t, err)
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}

// =============================================================================
// POSTS AND ENGAGEMENT
// =============================================================================

func TestTweetService_ContentLimits(t *testing.T) {
	env := newTestEnv(t, nil)
	a := env.seedUser(t, "alice")

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "280 chars", content: strings.Repeat("a", 280)},
		{name: "281 chars", content: strings.Repeat("a", 281), wantErr: true},
		{name: "empty", content: "", wantErr: true},
		{name: "whitespace only", content: "   \n\t ", wantErr: true},
		{name: "trimmed to fit", content: "  " + strings.Repeat("a", 280) + "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw, err := env.tweets.Create(context.Background(), a.ID, &model.CreateTweetRequest{Content: tt.content})
			if tt.wantErr {
				var ve *model.ValidationError
				assert.ErrorAs(t, err, &ve)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tt.content), tw.Content)
			assert.Equal(t, "alice", tw.Author.Username)
			assert.Empty(t, tw.Likes)
		})
	}
}

func TestTweetService_CreateBumpsTweetCount(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")

	tw := env.post(t, a, "hi")
	u, _ := env.store.Users().GetByID(ctx, a.ID)
	assert.Equal(t, 1, u.TweetCount)

	require.NoError(t, env.tweets.Delete(ctx, tw.ID, a.ID))
	u, _ = env.store.Users().GetByID(ctx, a.ID)
	assert.Equal(t, 0, u.TweetCount)
}

func TestTweetService_DeleteOwnership(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")
	b := env.seedUser(t, "bob")
	tw := env.post(t, a, "mine")

	err := env.tweets.Delete(ctx, tw.ID, b.ID)
	assert.ErrorIs(t, err, model.ErrNotTweetOwner)

	require.NoError(t, env.tweets.Delete(ctx, tw.ID, a.ID))

	timeline, err := env.feed.UserTimeline(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, timeline)

	err = env.tweets.Delete(ctx, tw.ID, a.ID)
	assert.ErrorIs(t, err, model.ErrTweetNotFound)
}

func TestTweetService_LikeUnlikeRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")
	b := env.seedUser(t, "bob")
	tw := env.post(t, a, "like me")

	detail, err := env.tweets.Like(ctx, tw.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, detail.Likes)
	assert.Equal(t, 1, detail.LikeCount)
	require.Len(t, detail.Likers, 1)
	assert.Equal(t, "bob", detail.Likers[0].Username)
	assert.Equal(t, "alice", detail.Author.Username)

	_, err = env.tweets.Like(ctx, tw.ID, b.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyLiked)

	detail, err = env.tweets.GetByID(ctx, tw.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, detail.Likes, "user must appear exactly once")

	detail, err = env.tweets.Unlike(ctx, tw.ID, b.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Likes)
	assert.Empty(t, detail.Likers)

	_, err = env.tweets.Unlike(ctx, tw.ID, b.ID)
	assert.ErrorIs(t, err, model.ErrNotLiked)
}

func TestTweetService_MissingTweet(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")
	missing := uuid.NewString()

	_, err := env.tweets.GetByID(ctx, missing)
	assert.ErrorIs(t, err, model.ErrTweetNotFound)
	_, err = env.tweets.Like(ctx, missing, a.ID)
	assert.ErrorIs(t, err, model.ErrTweetNotFound)
	_, err = env.tweets.Unlike(ctx, missing, a.ID)
	assert.ErrorIs(t, err, model.ErrTweetNotFound)
}

// =============================================================================
// PROFILES
// =============================================================================

func TestUserService_GetProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")
	b := env.seedUser(t, "bob")
	_, err := env.follow.Follow(ctx, b.ID, a.ID)
	require.NoError(t, err)

	profile, err := env.users.GetProfile(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, []string{b.ID}, summaryIDs(profile.Followers))
	assert.Empty(t, profile.Following)
	assert.True(t, profile.IsFollowing)

	self, err := env.users.GetProfile(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, self.IsFollowing)

	_, err = env.users.GetProfile(ctx, uuid.NewString(), a.ID)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")

	bio := "  hello there  "
	pic := "https://img.example.com/a.jpg"
	u, _, err := env.users.UpdateProfile(ctx, a.ID, &model.UpdateProfileRequest{Bio: &bio, ProfilePicture: &pic})
	require.NoError(t, err)
	assert.Equal(t, "hello there", u.Bio)
	assert.Equal(t, pic, u.ProfilePicture)

	empty := ""
	u, _, err = env.users.UpdateProfile(ctx, a.ID, &model.UpdateProfileRequest{ProfilePicture: &empty})
	require.NoError(t, err)
	assert.Equal(t, testDefaultPicture, u.ProfilePicture)
	assert.Equal(t, "hello there", u.Bio, "omitted fields stay unchanged")

	long := strings.Repeat("x", 161)
	_, _, err = env.users.UpdateProfile(ctx, a.ID, &model.UpdateProfileRequest{Bio: &long})
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)

	bad := "not a url"
	_, _, err = env.users.UpdateProfile(ctx, a.ID, &model.UpdateProfileRequest{ProfilePicture: &bad})
	assert.ErrorAs(t, err, &ve)
}

func TestUserService_UpdateProfileReturnsReplacedUploadKey(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.seedUser(t, "alice")

	_, oldKey, err := env.users.SetProfilePicture(ctx, a.ID, &model.UploadResult{
		URL: "https://cdn.example.com/profile-pictures/k1.jpg",
		Key: "profile-pictures/k1.jpg",
	})
	require.NoError(t, err)
	assert.Nil(t, oldKey)

	bio := "bio only"
	_, oldKey, err = env.users.UpdateProfile(ctx, a.ID, &model.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Nil(t, oldKey, "picture untouched, nothing to delete")

	pic := "https://img.example.com/b.jpg"
	u, oldKey, err := env.users.UpdateProfile(ctx, a.ID, &model.UpdateProfileRequest{ProfilePicture: &pic})
	require.NoError(t, err)
	require.NotNil(t, oldKey)
	assert.Equal(t, "profile-pictures/k1.jpg", *oldKey)
	assert.Nil(t, u.PictureKey)

	other := "https://img.example.com/c.jpg"
	_, oldKey, err = env.users.UpdateProfile(ctx, a.ID, &model.UpdateProfileRequest{ProfilePicture: &other})
	require.NoError(t, err)
	assert.Nil(t, oldKey, "URL pictures have no stored object")
}

func TestUserService_Search(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedUser(t, "alice")
	env.seedUser(t, "Malik")
	env.seedUser(t, "bob")

	users, err := env.users.Search(ctx, "AL")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Malik", users[0].Username)
	assert.Equal(t, "alice", users[1].Username)

	_, err = env.users.Search(ctx, "  ")
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)
}
