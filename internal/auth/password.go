package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor for all stored credentials.
const HashCost = 12

// Hasher wraps bcrypt behind a bounded gate. At cost 12 a single hash costs
// hundreds of milliseconds of CPU; the gate keeps a burst of registrations
// from starving every other request.
type Hasher struct {
	slots chan struct{}
}

func NewHasher(workers int) *Hasher {
	if workers < 1 {
		workers = 1
	}
	return &Hasher{slots: make(chan struct{}, workers)}
}

// Hash derives a salted digest of plaintext. Hashing the same plaintext
// twice yields different digests; both verify.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	select {
	case h.slots <- struct{}{}:
		defer func() { <-h.slots }()
	case <-ctx.Done():
		return "", ctx.Err()
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), HashCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plaintext matches digest. bcrypt's comparison does
// not leak the mismatch position.
func (h *Hasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	select {
	case h.slots <- struct{}{}:
		defer func() { <-h.slots }()
	case <-ctx.Done():
		return false, ctx.Err()
	}
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
