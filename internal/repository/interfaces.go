package repository

import (
	"context"

	"github.com/Kosench/shortlink/internal/model"
)

// RecordStore persists short URL records. Implementations must be safe for
// concurrent use and enforce short code uniqueness themselves.
type RecordStore interface {
	// Insert stores url if its short code is free, filling ID and CreatedAt
	// from the stored row. Returns errors.ErrShortCodeExists on collision.
	Insert(ctx context.Context, url *model.ShortURL) error

	// GetByShortCode returns the current record, clicks included.
	// Returns errors.ErrURLNotFound for unknown codes.
	GetByShortCode(ctx context.Context, shortCode string) (*model.ShortURL, error)

	// GetTarget returns the immutable part of a record (Clicks is always 0).
	// Enough to redirect and record a click; never used for stats.
	GetTarget(ctx context.Context, shortCode string) (*model.ShortURL, error)

	GetByID(ctx context.Context, id int64) (*model.ShortURL, error)

	// IncrementClicks atomically adds one click and reports whether a row
	// was affected.
	IncrementClicks(ctx context.Context, id int64) (bool, error)

	// ListMostClicked returns up to limit records ordered by clicks desc.
	ListMostClicked(ctx context.Context, limit int) ([]*model.ShortURL, error)
}
