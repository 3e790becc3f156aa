package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minitweet/client"
)

func TestClient_SendsPerCallToken(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := client.New(srv.URL + "/")
	_, err := c.Feed(context.Background(), "token-a")
	require.NoError(t, err)
	_, err = c.Feed(context.Background(), "token-b")
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer token-a", "Bearer token-b"}, gotAuth)
}

func TestClient_PublicCallsOmitAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req client.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.EmailOrUsername)

		_ = json.NewEncoder(w).Encode(client.AuthResponse{Token: "t"})
	}))
	defer srv.Close()

	resp, err := client.New(srv.URL).Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "t", resp.Token)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Forbidden: You are not the owner of this tweet","code":"FORBIDDEN"}`))
	}))
	defer srv.Close()

	err := client.New(srv.URL).DeleteTweet(context.Background(), "tok", "id")

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "FORBIDDEN", apiErr.Code)
	assert.Equal(t, "Forbidden: You are not the owner of this tweet", apiErr.Message)
}

func TestClient_APIErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).Me(context.Background(), "tok")

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClient_SearchEscapesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a b&c", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[{"id":"1","username":"a b&c","profilePicture":""}]`))
	}))
	defer srv.Close()

	users, err := client.New(srv.URL).SearchUsers(context.Background(), "tok", "a b&c")
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestClient_UploadProfilePicture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("picture")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "me.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, "pixels", string(data))

		_ = json.NewEncoder(w).Encode(client.ProfileUpdateResponse{Message: "Profile picture updated successfully"})
	}))
	defer srv.Close()

	resp, err := client.New(srv.URL).UploadProfilePicture(context.Background(), "tok", "me.png", "image/png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.Equal(t, "Profile picture updated successfully", resp.Message)
}

func TestClient_PublicTypesBuildRequests(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		switch r.URL.Path {
		case "/auth/register":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(client.AuthResponse{Token: "t"})
		case "/users/profile":
			_ = json.NewEncoder(w).Encode(client.ProfileUpdateResponse{Message: "Profile updated successfully"})
		}
	}))
	defer srv.Close()
	c := client.New(srv.URL)

	reg, err := c.Register(context.Background(), client.RegisterRequest{
		Username: "alice", Email: "a@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "t", reg.Token)
	assert.Equal(t, "alice", got["username"])

	bio := "hi"
	upd, err := c.UpdateProfile(context.Background(), "tok", client.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Profile updated successfully", upd.Message)
	assert.Equal(t, "hi", got["bio"])
}
