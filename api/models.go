package api

import "github.com/nshah/campusmarket/market"

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	InstitutionalID string `json:"institutional_id,omitempty"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

// UserResponse is the public shape of an identity.
type UserResponse struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	InstitutionalID string `json:"institutional_id,omitempty"`
	Bio             string `json:"bio,omitempty"`
}

// SessionResponse is returned from GET /auth/session and POST /auth/login.
type SessionResponse struct {
	User  UserResponse `json:"user"`
	Fresh bool         `json:"fresh"`
}

// UpdateProfileRequest is the JSON body for PUT /users/profile.
type UpdateProfileRequest struct {
	Username        string `json:"username,omitempty"`
	Email           string `json:"email,omitempty"`
	InstitutionalID string `json:"institutional_id,omitempty"`
	Bio             string `json:"bio,omitempty"`
	Password        string `json:"password,omitempty"`
}

// ResetRequestRequest is the JSON body for POST /auth/reset/request.
type ResetRequestRequest struct {
	Email string `json:"email"`
}

// ResetConfirmRequest is the JSON body for POST /auth/reset/confirm.
type ResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// PostRequest is the JSON body for creating or updating a post.
type PostRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category,omitempty"`
	Condition    string   `json:"condition,omitempty"`
	ExchangeType string   `json:"exchange_type,omitempty"`
	Location     string   `json:"location,omitempty"`
	Status       string   `json:"status,omitempty"`
	Price        float64  `json:"price,omitempty"`
	Images       []string `json:"images,omitempty"`
}

// ListPostsResponse is returned from GET /posts.
type ListPostsResponse struct {
	Posts []market.Post  `json:"posts"`
	Meta  PaginationMeta `json:"meta"`
}

// RoommateRequest is the JSON body for creating or updating a roommate ad.
type RoommateRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Region       string   `json:"region,omitempty"`
	PlacesToLive string   `json:"places_to_live,omitempty"`
	Status       string   `json:"status,omitempty"`
	OnCampus     bool     `json:"on_campus,omitempty"`
	Year         int      `json:"year,omitempty"`
	Images       []string `json:"images,omitempty"`
}

// ListRoommatesResponse is returned from GET /roommates.
type ListRoommatesResponse struct {
	Roommates []market.Roommate `json:"roommates"`
	Meta      PaginationMeta    `json:"meta"`
}

// TradeRequest is the JSON body for POST /trades.
type TradeRequest struct {
	PostID     string `json:"post_id"`
	ReceiverID string `json:"receiver_id"`
}

// CloseTradeRequest is the JSON body for POST /trades/{tradeID}/close.
type CloseTradeRequest struct {
	Status string `json:"status"`
}

// ChatRequest is the JSON body for POST /chats.
type ChatRequest struct {
	ParticipantID string `json:"participant_id"`
}

// MessageRequest is the JSON body for POST /chats/{chatID}/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// SearchResponse is returned from GET /search.
type SearchResponse struct {
	Results []market.Post `json:"results"`
}

// MessageResponse is a generic success payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Error string `json:"error"`
}
