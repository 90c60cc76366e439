package identity

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/nshah/campusmarket/internal/util"
)

// PasswordHash is an argon2id digest with its derivation parameters, so
// parameters can be raised later without invalidating stored hashes.
type PasswordHash struct {
	Time        uint32 `json:"time"`
	MemoryKiB   uint32 `json:"memory"`
	Parallelism uint8  `json:"parallelism"`
	Salt        []byte `json:"salt"`
	Key         []byte `json:"key"`
}

const (
	hashTime        = 1
	hashMemoryKiB   = 64 * 1024
	hashParallelism = 4
	hashKeyLen      = 32
	hashSaltLen     = 16
)

// HashPassword derives an argon2id hash of the secret. The secret is NFKD
// normalized first so composition differences between clients do not lock
// users out.
func HashPassword(secret string) (PasswordHash, error) {
	salt, err := util.RandomBytes(hashSaltLen)
	if err != nil {
		return PasswordHash{}, fmt.Errorf("generating salt: %w", err)
	}
	key := argon2.IDKey([]byte(util.Normalize(secret)), salt, hashTime, hashMemoryKiB, hashParallelism, hashKeyLen)
	return PasswordHash{
		Time:        hashTime,
		MemoryKiB:   hashMemoryKiB,
		Parallelism: hashParallelism,
		Salt:        salt,
		Key:         key,
	}, nil
}

// VerifyPassword re-derives the key with the stored parameters and compares
// in constant time.
func VerifyPassword(h PasswordHash, secret string) bool {
	if len(h.Salt) == 0 || len(h.Key) == 0 {
		return false
	}
	key := argon2.IDKey([]byte(util.Normalize(secret)), h.Salt, h.Time, h.MemoryKiB, h.Parallelism, uint32(len(h.Key)))
	return subtle.ConstantTimeCompare(key, h.Key) == 1
}

// dummyHash is verified against when a login identifier does not resolve to
// an identity, so "unknown user" and "wrong password" burn the same work
// and are indistinguishable to the caller.
var dummyHash = PasswordHash{
	Time:        hashTime,
	MemoryKiB:   hashMemoryKiB,
	Parallelism: hashParallelism,
	Salt:        make([]byte, hashSaltLen),
	Key:         make([]byte, hashKeyLen),
}

// BurnVerification performs a password verification against a fixed dummy
// hash and discards the result.
func BurnVerification(secret string) {
	VerifyPassword(dummyHash, secret)
}
