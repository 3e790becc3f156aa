package client

import "minitweet/internal/model"

// Request and response shapes of the REST API. They are aliases of the
// server's own types so both sides share one JSON definition.
type (
	RegisterRequest       = model.RegisterRequest
	LoginRequest          = model.LoginRequest
	CreateTweetRequest    = model.CreateTweetRequest
	UpdateProfileRequest  = model.UpdateProfileRequest
	AuthResponse          = model.AuthResponse
	User                  = model.User
	UserSummary           = model.UserSummary
	Profile               = model.Profile
	ProfilePage           = model.ProfilePage
	ProfileUpdateResponse = model.ProfileUpdateResponse
	Tweet                 = model.Tweet
	TweetDetail           = model.TweetDetail
	FollowResponse        = model.FollowResponse
)
