// Package client is a typed Go client for the MiniTweet REST API.
//
// Credentials are passed to every authenticated call; a Client holds no
// session state and may be shared between goroutines.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("minitweet: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Auth

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	return call[*AuthResponse](ctx, c, http.MethodPost, "/auth/register", "", req)
}

func (c *Client) Login(ctx context.Context, emailOrUsername, password string) (*AuthResponse, error) {
	req := LoginRequest{EmailOrUsername: emailOrUsername, Password: password}
	return call[*AuthResponse](ctx, c, http.MethodPost, "/auth/login", "", req)
}

func (c *Client) Me(ctx context.Context, token string) (*Profile, error) {
	return call[*Profile](ctx, c, http.MethodGet, "/auth/me", token, nil)
}

// Tweets

func (c *Client) CreateTweet(ctx context.Context, token, content string) (*Tweet, error) {
	return call[*Tweet](ctx, c, http.MethodPost, "/tweets", token, CreateTweetRequest{Content: content})
}

// Feed returns the caller's home feed, newest first.
func (c *Client) Feed(ctx context.Context, token string) ([]Tweet, error) {
	return call[[]Tweet](ctx, c, http.MethodGet, "/tweets", token, nil)
}

func (c *Client) UserTweets(ctx context.Context, token, userID string) ([]Tweet, error) {
	return call[[]Tweet](ctx, c, http.MethodGet, "/tweets/user/"+url.PathEscape(userID), token, nil)
}

func (c *Client) GetTweet(ctx context.Context, token, tweetID string) (*TweetDetail, error) {
	return call[*TweetDetail](ctx, c, http.MethodGet, "/tweets/"+url.PathEscape(tweetID), token, nil)
}

func (c *Client) DeleteTweet(ctx context.Context, token, tweetID string) error {
	return c.do(ctx, http.MethodDelete, "/tweets/"+url.PathEscape(tweetID), token, nil, nil)
}

func (c *Client) Like(ctx context.Context, token, tweetID string) (*TweetDetail, error) {
	return call[*TweetDetail](ctx, c, http.MethodPost, "/tweets/"+url.PathEscape(tweetID)+"/like", token, nil)
}

func (c *Client) Unlike(ctx context.Context, token, tweetID string) (*TweetDetail, error) {
	return call[*TweetDetail](ctx, c, http.MethodPost, "/tweets/"+url.PathEscape(tweetID)+"/unlike", token, nil)
}

// Users

func (c *Client) SearchUsers(ctx context.Context, token, query string) ([]UserSummary, error) {
	path := "/users/search?" + url.Values{"q": {query}}.Encode()
	return call[[]UserSummary](ctx, c, http.MethodGet, path, token, nil)
}

func (c *Client) GetProfile(ctx context.Context, token, userID string) (*ProfilePage, error) {
	return call[*ProfilePage](ctx, c, http.MethodGet, "/users/"+url.PathEscape(userID), token, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, token string, req UpdateProfileRequest) (*ProfileUpdateResponse, error) {
	return call[*ProfileUpdateResponse](ctx, c, http.MethodPut, "/users/profile", token, req)
}

// UploadProfilePicture sends image data as the multipart "picture" field.
func (c *Client) UploadProfilePicture(ctx context.Context, token, filename, contentType string, data io.Reader) (*ProfileUpdateResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(pictureHeader(filename, contentType))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/users/profile/picture", token, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out ProfileUpdateResponse
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Follow(ctx context.Context, token, userID string) (*FollowResponse, error) {
	return call[*FollowResponse](ctx, c, http.MethodPost, "/users/"+url.PathEscape(userID)+"/follow", token, nil)
}

func (c *Client) Unfollow(ctx context.Context, token, userID string) (*FollowResponse, error) {
	return call[*FollowResponse](ctx, c, http.MethodPost, "/users/"+url.PathEscape(userID)+"/unfollow", token, nil)
}

func (c *Client) Followers(ctx context.Context, token, userID string) ([]UserSummary, error) {
	return call[[]UserSummary](ctx, c, http.MethodGet, "/users/"+url.PathEscape(userID)+"/followers", token, nil)
}

func (c *Client) Following(ctx context.Context, token, userID string) ([]UserSummary, error) {
	return call[[]UserSummary](ctx, c, http.MethodGet, "/users/"+url.PathEscape(userID)+"/following", token, nil)
}

// call runs a JSON request and decodes the response into a fresh T.
func call[T any](ctx context.Context, c *Client, method, path, token string, in any) (T, error) {
	var out T
	if err := c.do(ctx, method, path, token, in, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var body struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Message != "" {
			apiErr.Message = body.Message
			apiErr.Code = body.Code
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
