// Package confirm gates destructive ledger operations behind a shared secret.
package confirm

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"daan/internal/core"
)

// Confirmer decides whether a destructive operation may proceed. Errors
// wrap core.ErrConfirmation when the token is rejected.
type Confirmer interface {
	Confirm(ctx context.Context, token string) error
}

// BcryptConfirmer accepts tokens matching a bcrypt hash. With an empty hash
// every request is rejected.
type BcryptConfirmer struct {
	hash []byte
}

func NewBcrypt(hash string) (*BcryptConfirmer, error) {
	if hash == "" {
		return &BcryptConfirmer{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return &BcryptConfirmer{hash: []byte(hash)}, nil
}

// Enabled reports whether a secret is configured.
func (c *BcryptConfirmer) Enabled() bool { return len(c.hash) > 0 }

func (c *BcryptConfirmer) Confirm(_ context.Context, token string) error {
	if !c.Enabled() {
		return core.ErrConfirmationDisabled
	}
	if token == "" {
		return core.ErrMissingConfirmation
	}
	err := bcrypt.CompareHashAndPassword(c.hash, []byte(token))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%w: wrong confirmation token", core.ErrConfirmation)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfirmation, err)
	}
	return nil
}

// Hash returns the bcrypt hash of secret for DELETE_SECRET_HASH.
func Hash(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(h), nil
}

// Func adapts a function to Confirmer.
type Func func(ctx context.Context, token string) error

func (f Func) Confirm(ctx context.Context, token string) error { return f(ctx, token) }

// AllowAll confirms every request. Intended for tests.
var AllowAll Confirmer = Func(func(context.Context, string) error { return nil })
