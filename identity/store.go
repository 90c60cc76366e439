package identity

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nshah/campusmarket/internal/util"
	"github.com/nshah/campusmarket/storage"
)

const (
	colUsers      = "users"
	colEmailIdx   = "users_by_email"
	colInstIdx    = "users_by_instid"
	colResetIdx   = "users_by_reset"
	resetTokenLen = 32
)

// Store persists identities in a storage.Repository. Email, institutional
// id, and reset-token lookups go through small index collections mapping
// the key to the user id.
type Store struct {
	repo storage.Repository
}

// NewStore creates an identity store over the given repository.
func NewStore(repo storage.Repository) *Store {
	return &Store{repo: repo}
}

// Create persists a new identity, enforcing email and institutional-id
// uniqueness. The identity's ID is assigned here.
func (s *Store) Create(ctx context.Context, id *Identity) error {
	id.Email = NormalizeEmail(id.Email)
	if _, err := s.repo.Get(ctx, colEmailIdx, id.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("checking email uniqueness: %w", err)
	}
	if id.InstitutionalID != "" {
		if _, err := s.repo.Get(ctx, colInstIdx, id.InstitutionalID); err == nil {
			return ErrInstitutionalIDTaken
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("checking institutional id uniqueness: %w", err)
		}
	}

	id.ID = uuid.NewString()
	id.CreatedAt = time.Now().UTC()
	if err := s.put(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Put(ctx, colEmailIdx, id.Email, []byte(id.ID)); err != nil {
		return fmt.Errorf("writing email index: %w", err)
	}
	if id.InstitutionalID != "" {
		if err := s.repo.Put(ctx, colInstIdx, id.InstitutionalID, []byte(id.ID)); err != nil {
			return fmt.Errorf("writing institutional id index: %w", err)
		}
	}
	return nil
}

// FindByID loads an identity by its id. Returns storage.ErrNotFound when absent.
func (s *Store) FindByID(ctx context.Context, userID string) (*Identity, error) {
	doc, err := s.repo.Get(ctx, colUsers, userID)
	if err != nil {
		return nil, err
	}
	var id Identity
	if err := json.Unmarshal(doc, &id); err != nil {
		return nil, fmt.Errorf("decoding identity %s: %w", userID, err)
	}
	return &id, nil
}

// FindByEmail loads an identity by its (normalized) email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	userID, err := s.repo.Get(ctx, colEmailIdx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, string(userID))
}

// FindByInstitutionalID loads an identity by its institutional id.
func (s *Store) FindByInstitutionalID(ctx context.Context, instID string) (*Identity, error) {
	userID, err := s.repo.Get(ctx, colInstIdx, instID)
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, string(userID))
}

// SetPassword replaces the identity's password hash.
func (s *Store) SetPassword(ctx context.Context, userID string, h PasswordHash) error {
	id, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	id.Password = h
	return s.put(ctx, id)
}

// UpdateFields applies non-credential profile changes. Empty strings leave
// a field untouched; email and institutional id moves re-point the indexes.
func (s *Store) UpdateFields(ctx context.Context, userID string, username, email, instID, bio string) error {
	id, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if username != "" {
		id.Username = username
	}
	if bio != "" {
		id.Bio = bio
	}
	if email != "" {
		email = NormalizeEmail(email)
		if email != id.Email {
			if _, err := s.repo.Get(ctx, colEmailIdx, email); err == nil {
				return ErrEmailTaken
			} else if !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("checking email uniqueness: %w", err)
			}
			if err := s.repo.Put(ctx, colEmailIdx, email, []byte(id.ID)); err != nil {
				return fmt.Errorf("writing email index: %w", err)
			}
			_ = s.repo.Delete(ctx, colEmailIdx, id.Email)
			id.Email = email
		}
	}
	if instID != "" && instID != id.InstitutionalID {
		if _, err := s.repo.Get(ctx, colInstIdx, instID); err == nil {
			return ErrInstitutionalIDTaken
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("checking institutional id uniqueness: %w", err)
		}
		if err := s.repo.Put(ctx, colInstIdx, instID, []byte(id.ID)); err != nil {
			return fmt.Errorf("writing institutional id index: %w", err)
		}
		if id.InstitutionalID != "" {
			_ = s.repo.Delete(ctx, colInstIdx, id.InstitutionalID)
		}
		id.InstitutionalID = instID
	}
	return s.put(ctx, id)
}

// IssueResetToken generates a fresh single-use reset token for the
// identity, replacing any previously active one, and returns the plaintext
// token. Only the SHA-256 hash is stored.
func (s *Store) IssueResetToken(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	id, err := s.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	token, err := util.RandomHex(resetTokenLen)
	if err != nil {
		return "", err
	}
	if id.ResetTokenHash != "" {
		_ = s.repo.Delete(ctx, colResetIdx, id.ResetTokenHash)
	}
	id.ResetTokenHash = HashResetToken(token)
	id.ResetTokenExpiry = time.Now().UTC().Add(ttl)
	if err := s.put(ctx, id); err != nil {
		return "", err
	}
	if err := s.repo.Put(ctx, colResetIdx, id.ResetTokenHash, []byte(id.ID)); err != nil {
		return "", fmt.Errorf("writing reset index: %w", err)
	}
	return token, nil
}

// FindByResetToken resolves a plaintext reset token to its identity.
// Expiry is not checked here; callers decide validity from the record.
func (s *Store) FindByResetToken(ctx context.Context, token string) (*Identity, error) {
	userID, err := s.repo.Get(ctx, colResetIdx, HashResetToken(token))
	if err != nil {
		return nil, err
	}
	id, err := s.FindByID(ctx, string(userID))
	if err != nil {
		return nil, err
	}
	// The index entry must agree with the record; a stale entry is treated
	// as no match.
	if subtle.ConstantTimeCompare([]byte(id.ResetTokenHash), []byte(HashResetToken(token))) != 1 {
		return nil, storage.ErrNotFound
	}
	return id, nil
}

// ClearResetToken removes the identity's active reset token, if any.
func (s *Store) ClearResetToken(ctx context.Context, userID string) error {
	id, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if id.ResetTokenHash == "" {
		return nil
	}
	_ = s.repo.Delete(ctx, colResetIdx, id.ResetTokenHash)
	id.ResetTokenHash = ""
	id.ResetTokenExpiry = time.Time{}
	return s.put(ctx, id)
}

// HashResetToken computes the hex-encoded SHA-256 hash of a reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Store) put(ctx context.Context, id *Identity) error {
	doc, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encoding identity %s: %w", id.ID, err)
	}
	return s.repo.Put(ctx, colUsers, id.ID, doc)
}
