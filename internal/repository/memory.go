package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
)

// MemoryRecordStore keeps records in process memory. Used by the memory
// storage driver and in tests.
type MemoryRecordStore struct {
	mu     sync.RWMutex
	nextID int64
	byCode map[string]*model.ShortURL
	byID   map[int64]*model.ShortURL
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		byCode: make(map[string]*model.ShortURL),
		byID:   make(map[int64]*model.ShortURL),
	}
}

func (r *MemoryRecordStore) Insert(ctx context.Context, url *model.ShortURL) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[url.ShortCode]; exists {
		return fmt.Errorf("short code '%s': %w", url.ShortCode, apperrors.ErrShortCodeExists)
	}

	r.nextID++
	url.ID = r.nextID
	url.Clicks = 0
	if url.CreatedAt.IsZero() {
		url.CreatedAt = time.Now()
	}

	stored := url.Clone()
	r.byCode[stored.ShortCode] = stored
	r.byID[stored.ID] = stored
	return nil
}

func (r *MemoryRecordStore) GetByShortCode(ctx context.Context, shortCode string) (*model.ShortURL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	url, exists := r.byCode[shortCode]
	if !exists {
		return nil, fmt.Errorf("URL with short code '%s': %w", shortCode, apperrors.ErrURLNotFound)
	}

	return url.Clone(), nil
}

func (r *MemoryRecordStore) GetTarget(ctx context.Context, shortCode string) (*model.ShortURL, error) {
	url, err := r.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	return url.Target(), nil
}

func (r *MemoryRecordStore) GetByID(ctx context.Context, id int64) (*model.ShortURL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	url, exists := r.byID[id]
	if !exists {
		return nil, fmt.Errorf("URL with ID %d: %w", id, apperrors.ErrURLNotFound)
	}

	return url.Clone(), nil
}

func (r *MemoryRecordStore) IncrementClicks(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	url, exists := r.byID[id]
	if !exists {
		return false, nil
	}

	url.Clicks++
	return true, nil
}

func (r *MemoryRecordStore) ListMostClicked(ctx context.Context, limit int) ([]*model.ShortURL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	urls := make([]*model.ShortURL, 0, len(r.byID))
	for _, url := range r.byID {
		urls = append(urls, url.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(urls, func(i, j int) bool {
		if urls[i].Clicks != urls[j].Clicks {
			return urls[i].Clicks > urls[j].Clicks
		}
		return urls[i].CreatedAt.After(urls[j].CreatedAt)
	})

	if limit >= 0 && len(urls) > limit {
		urls = urls[:limit]
	}

	return urls, nil
}

// Len returns the number of stored records.
func (r *MemoryRecordStore) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
