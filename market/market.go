// Package market holds the marketplace records: item posts, roommate
// ads, trades, and chats.
package market

import (
	"errors"
	"time"
)

var (
	// ErrValidation is wrapped by all malformed-input failures.
	ErrValidation = errors.New("invalid listing")
	// ErrInvalidTransition is returned for disallowed trade status changes.
	ErrInvalidTransition = errors.New("invalid trade transition")
)

// Post is an item listing.
type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category,omitempty"`
	Condition    string    `json:"condition,omitempty"`
	ExchangeType string    `json:"exchange_type,omitempty"`
	Location     string    `json:"location,omitempty"`
	Status       string    `json:"status"`
	Price        float64   `json:"price,omitempty"`
	Images       []string  `json:"images,omitempty"`
	Favorites    int       `json:"favorites"`
	TimePosted   time.Time `json:"time_posted"`
	TimeUpdated  time.Time `json:"time_updated"`
}

// Roommate is a roommate-search ad.
type Roommate struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Region       string    `json:"region,omitempty"`
	PlacesToLive string    `json:"places_to_live,omitempty"`
	Status       string    `json:"status"`
	OnCampus     bool      `json:"on_campus"`
	Year         int       `json:"year,omitempty"`
	Images       []string  `json:"images,omitempty"`
	TimePosted   time.Time `json:"time_posted"`
	TimeUpdated  time.Time `json:"time_updated"`
}

// Trade statuses. A trade starts ongoing and ends exactly once.
const (
	TradeOngoing   = "ongoing"
	TradeCompleted = "completed"
	TradeCancelled = "cancelled"
)

// Trade records an exchange of a post between two users.
type Trade struct {
	ID            string    `json:"id"`
	PostID        string    `json:"post_id"`
	SenderID      string    `json:"sender_id"`
	ReceiverID    string    `json:"receiver_id"`
	Status        string    `json:"status"`
	TimeInitiated time.Time `json:"time_initiated"`
	TimeCompleted time.Time `json:"time_completed,omitempty"`
}

// Message is one chat message.
type Message struct {
	SenderID string    `json:"sender_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

// Chat is a two-party conversation.
type Chat struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	Messages     []Message `json:"messages"`
	TimeUpdated  time.Time `json:"time_updated"`
}

// HasParticipant reports whether userID is a member of the chat.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
