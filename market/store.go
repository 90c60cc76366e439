package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nshah/campusmarket/storage"
)

const (
	colPosts     = "posts"
	colRoommates = "roommates"
	colTrades    = "trades"
	colChats     = "chats"
)

// Store persists marketplace records in a storage.Repository.
type Store struct {
	repo storage.Repository
}

// NewStore creates a market store over the given repository.
func NewStore(repo storage.Repository) *Store {
	return &Store{repo: repo}
}

// CreatePost validates and persists a new item listing.
func (s *Store) CreatePost(ctx context.Context, p *Post) error {
	if p.Title == "" || p.Description == "" {
		return fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	if p.Status == "" {
		p.Status = "Available"
	}
	p.ID = uuid.NewString()
	p.TimePosted = time.Now().UTC()
	p.TimeUpdated = p.TimePosted
	return putJSON(ctx, s.repo, colPosts, p.ID, p)
}

// GetPost loads a post by id.
func (s *Store) GetPost(ctx context.Context, id string) (*Post, error) {
	return getJSON[Post](ctx, s.repo, colPosts, id)
}

// UpdatePost overwrites an existing post, bumping its update time.
func (s *Store) UpdatePost(ctx context.Context, p *Post) error {
	if _, err := s.GetPost(ctx, p.ID); err != nil {
		return err
	}
	p.TimeUpdated = time.Now().UTC()
	return putJSON(ctx, s.repo, colPosts, p.ID, p)
}

// DeletePost removes a post.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, colPosts, id)
}

// FavoritePost adjusts a post's favorite counter by delta, clamping at
// zero. The counter does not bump the update time.
func (s *Store) FavoritePost(ctx context.Context, id string, delta int) (*Post, error) {
	p, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Favorites += delta
	if p.Favorites < 0 {
		p.Favorites = 0
	}
	if err := putJSON(ctx, s.repo, colPosts, p.ID, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPosts returns one page of posts, newest first, and the total count.
func (s *Store) ListPosts(ctx context.Context, limit, offset int) ([]Post, int, error) {
	posts, err := collectJSON[Post](ctx, s.repo, colPosts, nil)
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].TimePosted.After(posts[j].TimePosted) })
	total := len(posts)
	start, end := pageBounds(total, limit, offset)
	return posts[start:end], total, nil
}

// ListPostsByAuthor returns all of one user's posts, newest first.
func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]Post, error) {
	posts, err := collectJSON[Post](ctx, s.repo, colPosts, func(p *Post) bool {
		return p.AuthorID == authorID
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].TimePosted.After(posts[j].TimePosted) })
	return posts, nil
}

// SearchPosts returns up to limit posts whose title, description, or
// category contains the query, case-insensitively, newest first.
func (s *Store) SearchPosts(ctx context.Context, query string, limit int) ([]Post, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	posts, err := collectJSON[Post](ctx, s.repo, colPosts, func(p *Post) bool {
		return strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].TimePosted.After(posts[j].TimePosted) })
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// CreateRoommate validates and persists a roommate ad.
func (s *Store) CreateRoommate(ctx context.Context, r *Roommate) error {
	if r.Title == "" || r.Description == "" {
		return fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	if r.Status == "" {
		r.Status = "Open"
	}
	r.ID = uuid.NewString()
	r.TimePosted = time.Now().UTC()
	r.TimeUpdated = r.TimePosted
	return putJSON(ctx, s.repo, colRoommates, r.ID, r)
}

// GetRoommate loads a roommate ad by id.
func (s *Store) GetRoommate(ctx context.Context, id string) (*Roommate, error) {
	return getJSON[Roommate](ctx, s.repo, colRoommates, id)
}

// UpdateRoommate overwrites an existing roommate ad.
func (s *Store) UpdateRoommate(ctx context.Context, r *Roommate) error {
	if _, err := s.GetRoommate(ctx, r.ID); err != nil {
		return err
	}
	r.TimeUpdated = time.Now().UTC()
	return putJSON(ctx, s.repo, colRoommates, r.ID, r)
}

// DeleteRoommate removes a roommate ad.
func (s *Store) DeleteRoommate(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, colRoommates, id)
}

// ListRoommates returns one page of roommate ads, newest first.
func (s *Store) ListRoommates(ctx context.Context, limit, offset int) ([]Roommate, int, error) {
	ads, err := collectJSON[Roommate](ctx, s.repo, colRoommates, nil)
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(ads, func(i, j int) bool { return ads[i].TimePosted.After(ads[j].TimePosted) })
	total := len(ads)
	start, end := pageBounds(total, limit, offset)
	return ads[start:end], total, nil
}

// CreateTrade opens a trade on a post between two users.
func (s *Store) CreateTrade(ctx context.Context, tr *Trade) error {
	if tr.PostID == "" || tr.SenderID == "" || tr.ReceiverID == "" {
		return fmt.Errorf("%w: post, sender, and receiver are required", ErrValidation)
	}
	if _, err := s.GetPost(ctx, tr.PostID); err != nil {
		return err
	}
	tr.ID = uuid.NewString()
	tr.Status = TradeOngoing
	tr.TimeInitiated = time.Now().UTC()
	return putJSON(ctx, s.repo, colTrades, tr.ID, tr)
}

// GetTrade loads a trade by id.
func (s *Store) GetTrade(ctx context.Context, id string) (*Trade, error) {
	return getJSON[Trade](ctx, s.repo, colTrades, id)
}

// ListTradesByUser returns trades the user participates in, newest first.
func (s *Store) ListTradesByUser(ctx context.Context, userID string) ([]Trade, error) {
	trades, err := collectJSON[Trade](ctx, s.repo, colTrades, func(tr *Trade) bool {
		return tr.SenderID == userID || tr.ReceiverID == userID
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(trades, func(i, j int) bool { return trades[i].TimeInitiated.After(trades[j].TimeInitiated) })
	return trades, nil
}

// CloseTrade moves an ongoing trade to completed or cancelled. Closed
// trades stay closed.
func (s *Store) CloseTrade(ctx context.Context, id, status string) (*Trade, error) {
	if status != TradeCompleted && status != TradeCancelled {
		return nil, fmt.Errorf("%w: status must be %q or %q", ErrInvalidTransition, TradeCompleted, TradeCancelled)
	}
	tr, err := s.GetTrade(ctx, id)
	if err != nil {
		return nil, err
	}
	if tr.Status != TradeOngoing {
		return nil, fmt.Errorf("%w: trade is already %s", ErrInvalidTransition, tr.Status)
	}
	tr.Status = status
	tr.TimeCompleted = time.Now().UTC()
	if err := putJSON(ctx, s.repo, colTrades, tr.ID, tr); err != nil {
		return nil, err
	}
	return tr, nil
}

// CreateChat opens a conversation between two users.
func (s *Store) CreateChat(ctx context.Context, participants []string) (*Chat, error) {
	if len(participants) != 2 || participants[0] == participants[1] {
		return nil, fmt.Errorf("%w: a chat needs two distinct participants", ErrValidation)
	}
	c := &Chat{
		ID:           uuid.NewString(),
		Participants: participants,
		TimeUpdated:  time.Now().UTC(),
	}
	if err := putJSON(ctx, s.repo, colChats, c.ID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetChat loads a chat by id.
func (s *Store) GetChat(ctx context.Context, id string) (*Chat, error) {
	return getJSON[Chat](ctx, s.repo, colChats, id)
}

// ListChatsByUser returns the user's conversations, most recent first.
func (s *Store) ListChatsByUser(ctx context.Context, userID string) ([]Chat, error) {
	chats, err := collectJSON[Chat](ctx, s.repo, colChats, func(c *Chat) bool {
		return c.HasParticipant(userID)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].TimeUpdated.After(chats[j].TimeUpdated) })
	return chats, nil
}

// AppendMessage adds a message to a chat the sender participates in.
func (s *Store) AppendMessage(ctx context.Context, chatID, senderID, text string) (*Chat, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", ErrValidation)
	}
	c, err := s.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(senderID) {
		return nil, fmt.Errorf("%w: sender is not a participant", ErrValidation)
	}
	now := time.Now().UTC()
	c.Messages = append(c.Messages, Message{SenderID: senderID, Text: text, SentAt: now})
	c.TimeUpdated = now
	if err := putJSON(ctx, s.repo, colChats, c.ID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func pageBounds(total, limit, offset int) (int, int) {
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if limit <= 0 || end > total {
		end = total
	}
	return start, end
}

func putJSON(ctx context.Context, repo storage.Repository, collection, id string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", collection, id, err)
	}
	return repo.Put(ctx, collection, id, doc)
}

func getJSON[T any](ctx context.Context, repo storage.Repository, collection, id string) (*T, error) {
	doc, err := repo.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	v := new(T)
	if err := json.Unmarshal(doc, v); err != nil {
		return nil, fmt.Errorf("decoding %s/%s: %w", collection, id, err)
	}
	return v, nil
}

func collectJSON[T any](ctx context.Context, repo storage.Repository, collection string, keep func(*T) bool) ([]T, error) {
	var out []T
	err := repo.ForEach(ctx, collection, func(id string, doc []byte) error {
		v := new(T)
		if err := json.Unmarshal(doc, v); err != nil {
			return fmt.Errorf("decoding %s/%s: %w", collection, id, err)
		}
		if keep == nil || keep(v) {
			out = append(out, *v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
