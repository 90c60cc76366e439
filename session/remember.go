package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/awnumar/memguard"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nshah/campusmarket/storage"
)

const rememberCollection = "remember_tokens"

// ErrRememberInvalid is returned for any unusable remember artifact:
// bad signature, expired, revoked, or subject mismatch. One error for all
// causes.
var ErrRememberInvalid = errors.New("invalid remember token")

// rememberRecord is the server-side half of a remember artifact. The
// client holds a signed token; revival requires both the signature and
// this record, so artifacts are individually revocable.
type rememberRecord struct {
	SubjectID string    `json:"subject_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Remember issues and redeems long-lived remember artifacts. The HMAC
// signing key lives in a memguard enclave and is only materialized for
// the duration of a sign or verify.
type Remember struct {
	repo storage.Repository
	key  *memguard.Enclave
	ttl  time.Duration
}

// NewRemember creates the remember service. key must be at least 32
// bytes; memguard wipes the caller's copy.
func NewRemember(repo storage.Repository, key []byte, ttl time.Duration) (*Remember, error) {
	if len(key) < 32 {
		return nil, fmt.Errorf("remember signing key must be at least 32 bytes, got %d", len(key))
	}
	return &Remember{
		repo: repo,
		key:  memguard.NewEnclave(key),
		ttl:  ttl,
	}, nil
}

// Issue creates a remember artifact for the subject and returns the
// signed token the client stores. Expiry is independent of any session.
func (rm *Remember) Issue(ctx context.Context, subjectID string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(rm.ttl)
	jti := uuid.NewString()

	claims := jwt.RegisteredClaims{
		ID:        jti,
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	keyBuf, err := rm.key.Open()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("opening signing key: %w", err)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(keyBuf.Bytes())
	keyBuf.Destroy()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing remember token: %w", err)
	}

	doc, err := json.Marshal(rememberRecord{SubjectID: subjectID, ExpiresAt: expiresAt})
	if err != nil {
		return "", time.Time{}, err
	}
	if err := rm.repo.Put(ctx, rememberCollection, jti, doc); err != nil {
		return "", time.Time{}, fmt.Errorf("persisting remember record: %w", err)
	}
	return token, expiresAt, nil
}

// Redeem validates a remember token and returns its subject id. A token
// whose server-side record is gone has been revoked and fails.
func (rm *Remember) Redeem(ctx context.Context, token string) (string, error) {
	claims, err := rm.parse(token)
	if err != nil {
		return "", ErrRememberInvalid
	}
	doc, err := rm.repo.Get(ctx, rememberCollection, claims.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrRememberInvalid
	}
	if err != nil {
		return "", fmt.Errorf("loading remember record: %w", err)
	}
	var rec rememberRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		_ = rm.repo.Delete(ctx, rememberCollection, claims.ID)
		return "", ErrRememberInvalid
	}
	if rec.SubjectID != claims.Subject || time.Now().After(rec.ExpiresAt) {
		_ = rm.repo.Delete(ctx, rememberCollection, claims.ID)
		return "", ErrRememberInvalid
	}
	return rec.SubjectID, nil
}

// Revoke invalidates a single remember artifact. Unknown or malformed
// tokens are ignored; revocation is idempotent.
func (rm *Remember) Revoke(ctx context.Context, token string) {
	claims, err := rm.parse(token)
	if err != nil {
		return
	}
	_ = rm.repo.Delete(ctx, rememberCollection, claims.ID)
}

// RevokeSubject invalidates every remember artifact held by the subject.
func (rm *Remember) RevokeSubject(ctx context.Context, subjectID string) error {
	var ids []string
	err := rm.repo.ForEach(ctx, rememberCollection, func(id string, doc []byte) error {
		var rec rememberRecord
		if err := json.Unmarshal(doc, &rec); err != nil {
			ids = append(ids, id)
			return nil
		}
		if rec.SubjectID == subjectID {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := rm.repo.Delete(ctx, rememberCollection, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (rm *Remember) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		keyBuf, err := rm.key.Open()
		if err != nil {
			return nil, fmt.Errorf("opening signing key: %w", err)
		}
		// jwt keeps no reference to the key after verification.
		key := append([]byte(nil), keyBuf.Bytes()...)
		keyBuf.Destroy()
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrRememberInvalid
	}
	return claims, nil
}
