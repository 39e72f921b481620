// Package session keeps billing sessions durable between requests and
// serializes mutations per session id.
package session

import (
	"context"
	"errors"

	"github.com/fjod/go_billing/internal/cart"
)

var ErrSessionNotFound = errors.New("billing session not found")

// Repository is the durable home of session snapshots.
type Repository interface {
	Get(ctx context.Context, id string) (cart.Snapshot, error)
	Save(ctx context.Context, snap cart.Snapshot) error
	Delete(ctx context.Context, id string) error
}
