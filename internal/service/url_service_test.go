package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
	"github.com/Kosench/shortlink/internal/repository"
	"github.com/Kosench/shortlink/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore lets each test script Insert and count store calls.
type stubStore struct {
	mu          sync.Mutex
	insertCalls int
	lookupCalls int
	insertErr   func(attempt int) error
	incrementOK bool
	err         error
}

func (s *stubStore) Insert(ctx context.Context, url *model.ShortURL) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCalls++
	if s.insertErr != nil {
		if err := s.insertErr(s.insertCalls); err != nil {
			return err
		}
	}
	url.ID = int64(s.insertCalls)
	return nil
}

func (s *stubStore) GetByShortCode(ctx context.Context, shortCode string) (*model.ShortURL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookupCalls++
	if s.err != nil {
		return nil, s.err
	}
	return nil, apperrors.ErrURLNotFound
}

func (s *stubStore) GetTarget(ctx context.Context, shortCode string) (*model.ShortURL, error) {
	return s.GetByShortCode(ctx, shortCode)
}

func (s *stubStore) GetByID(ctx context.Context, id int64) (*model.ShortURL, error) {
	return nil, apperrors.ErrURLNotFound
}

func (s *stubStore) IncrementClicks(ctx context.Context, id int64) (bool, error) {
	return s.incrementOK, s.err
}

func (s *stubStore) ListMostClicked(ctx context.Context, limit int) ([]*model.ShortURL, error) {
	return nil, nil
}

func always(err error) func(int) error {
	return func(int) error { return err }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store repository.RecordStore) *URLService {
	return NewURLService(store, "http://localhost:8080", 0, discardLogger())
}

func TestNewURLService(t *testing.T) {
	store := repository.NewMemoryRecordStore()

	svc := NewURLService(store, "http://localhost:8080/", 0, nil)

	assert.Equal(t, DefaultMaxAttempts, svc.maxAttempts)
	assert.Equal(t, "http://localhost:8080", svc.baseURL)
	assert.NotNil(t, svc.logger)
	assert.Equal(t, "http://localhost:8080/abc123", svc.BuildShortURL("abc123"))
}

func TestURLService_Shorten(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid URL", url: "https://example.com"},
		{name: "valid URL with surrounding spaces", url: "  https://example.com/path  "},
		{name: "empty URL", url: "", wantErr: true},
		{name: "invalid URL", url: "not-a-url", wantErr: true},
		{name: "URL without scheme", url: "example.com", wantErr: true},
		{name: "ftp scheme", url: "ftp://example.com/file", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemoryRecordStore()
			svc := newTestService(store)

			url, err := svc.Shorten(context.Background(), tt.url)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsValidationError(err), "expected validation error, got %T", err)
				assert.Nil(t, url)
				assert.Zero(t, store.Len())
				return
			}

			require.NoError(t, err)
			assert.NotZero(t, url.ID)
			assert.Equal(t, strings.TrimSpace(tt.url), url.OriginalURL)
			assert.Zero(t, url.Clicks)
			assert.False(t, url.CreatedAt.IsZero())
			assert.Equal(t, 1, store.Len())
		})
	}
}

func TestURLService_Shorten_CodeShape(t *testing.T) {
	svc := newTestService(repository.NewMemoryRecordStore())

	for i := 0; i < 100; i++ {
		url, err := svc.Shorten(context.Background(), "https://example.com")
		require.NoError(t, err)

		assert.Len(t, url.ShortCode, utils.ShortCodeLength)
		for _, char := range url.ShortCode {
			assert.True(t, strings.ContainsRune(utils.Alphabet, char), "unexpected symbol %c", char)
		}
	}
}

func TestURLService_Shorten_Uniqueness(t *testing.T) {
	store := repository.NewMemoryRecordStore()
	svc := newTestService(store)

	const workers = 20
	const perWorker = 50

	var wg sync.WaitGroup
	codes := make(chan string, workers*perWorker)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				url, err := svc.Shorten(context.Background(), fmt.Sprintf("https://example.com/%d/%d", w, i))
				if assert.NoError(t, err) {
					codes <- url.ShortCode
				}
			}
		}(w)
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool)
	for code := range codes {
		assert.False(t, seen[code], "duplicate short code %s", code)
		seen[code] = true
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, workers*perWorker, store.Len())
}

func TestURLService_Shorten_RetriesOnCollision(t *testing.T) {
	store := repository.NewMemoryRecordStore()
	svc := newTestService(store)

	existing := &model.ShortURL{ShortCode: "taken1", OriginalURL: "https://first.example"}
	require.NoError(t, store.Insert(context.Background(), existing))

	candidates := []string{"taken1", "taken1", "fresh1"}
	generated := 0
	svc.generate = func() (string, error) {
		code := candidates[generated]
		generated++
		return code, nil
	}

	url, err := svc.Shorten(context.Background(), "https://second.example")

	require.NoError(t, err)
	assert.Equal(t, "fresh1", url.ShortCode)
	assert.Equal(t, 3, generated)
	assert.Equal(t, 2, store.Len())

	first, err := store.GetByShortCode(context.Background(), "taken1")
	require.NoError(t, err)
	assert.Equal(t, "https://first.example", first.OriginalURL)
}

func TestURLService_Shorten_Exhaustion(t *testing.T) {
	store := &stubStore{insertErr: always(fmt.Errorf("short code: %w", apperrors.ErrShortCodeExists))}
	svc := newTestService(store)

	url, err := svc.Shorten(context.Background(), "https://example.com")

	assert.Nil(t, url)
	assert.ErrorIs(t, err, apperrors.ErrAllocationExhausted)
	assert.True(t, apperrors.IsBusinessError(err))
	assert.Equal(t, 10, store.insertCalls)
}

func TestURLService_Shorten_ExhaustionCreatesNoRecord(t *testing.T) {
	store := repository.NewMemoryRecordStore()
	require.NoError(t, store.Insert(context.Background(), &model.ShortURL{ShortCode: "taken1", OriginalURL: "https://a.example"}))

	svc := newTestService(store)
	calls := 0
	svc.generate = func() (string, error) {
		calls++
		return "taken1", nil
	}

	_, err := svc.Shorten(context.Background(), "https://b.example")

	assert.ErrorIs(t, err, apperrors.ErrAllocationExhausted)
	assert.Equal(t, DefaultMaxAttempts, calls)
	assert.Equal(t, 1, store.Len())
}

func TestURLService_Shorten_StoreErrorIsNotRetried(t *testing.T) {
	dbErr := apperrors.NewDatabaseError("failed to create URL", errors.New("connection refused"))
	store := &stubStore{insertErr: always(dbErr)}
	svc := newTestService(store)

	_, err := svc.Shorten(context.Background(), "https://example.com")

	assert.ErrorIs(t, err, dbErr)
	assert.False(t, errors.Is(err, apperrors.ErrAllocationExhausted))
	assert.Equal(t, 1, store.insertCalls)
}

func TestURLService_Shorten_GeneratorError(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store)
	svc.generate = func() (string, error) { return "", errors.New("entropy unavailable") }

	_, err := svc.Shorten(context.Background(), "https://example.com")

	assert.Error(t, err)
	assert.Zero(t, store.insertCalls)
}

func TestURLService_Shorten_InvalidInputSkipsStore(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store)

	_, err := svc.Shorten(context.Background(), "not-a-url")

	assert.ErrorIs(t, err, apperrors.ErrInvalidURL)
	assert.Zero(t, store.insertCalls)
}

func TestURLService_Shorten_UsesClock(t *testing.T) {
	svc := newTestService(repository.NewMemoryRecordStore())
	fixed := time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	url, err := svc.Shorten(context.Background(), "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, fixed, url.CreatedAt)
}

func TestURLService_CreateShortURL(t *testing.T) {
	svc := newTestService(repository.NewMemoryRecordStore())

	response, err := svc.CreateShortURL(context.Background(), &model.CreateURLRequest{URL: "https://example.com"})

	require.NoError(t, err)
	assert.Len(t, response.ShortCode, 6)
	assert.Equal(t, "http://localhost:8080/"+response.ShortCode, response.ShortURL)
}

func TestURLService_Resolve(t *testing.T) {
	store := repository.NewMemoryRecordStore()
	svc := newTestService(store)

	created, err := svc.Shorten(context.Background(), "https://example.com/page")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		url, err := svc.Resolve(context.Background(), created.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/page", url.OriginalURL)
		assert.Equal(t, created.ID, url.ID)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.Resolve(context.Background(), "zzzzzz")
		assert.ErrorIs(t, err, apperrors.ErrURLNotFound)
	})
}

func TestURLService_Resolve_InvalidCodeSkipsStore(t *testing.T) {
	for _, code := range []string{"", "abc", "abc12", "abc1234"} {
		t.Run(fmt.Sprintf("%q", code), func(t *testing.T) {
			store := &stubStore{}
			svc := newTestService(store)

			_, err := svc.Resolve(context.Background(), code)

			assert.ErrorIs(t, err, apperrors.ErrInvalidShortCode)
			assert.Zero(t, store.lookupCalls)
		})
	}
}

func TestURLService_Resolve_StoreFailureIsNotNotFound(t *testing.T) {
	dbErr := apperrors.NewDatabaseError("failed to get URL", errors.New("timeout"))
	svc := newTestService(&stubStore{err: dbErr})

	_, err := svc.Resolve(context.Background(), "abc123")

	assert.ErrorIs(t, err, dbErr)
	assert.False(t, errors.Is(err, apperrors.ErrURLNotFound))
}

func TestURLService_ResolveTarget(t *testing.T) {
	store := repository.NewMemoryRecordStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.Shorten(ctx, "https://example.com/page")
	require.NoError(t, err)
	_, err = store.IncrementClicks(ctx, created.ID)
	require.NoError(t, err)

	target, err := svc.ResolveTarget(ctx, created.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, created.ID, target.ID)
	assert.Equal(t, "https://example.com/page", target.OriginalURL)
	assert.Zero(t, target.Clicks)

	_, err = svc.ResolveTarget(ctx, "zzzzzz")
	assert.ErrorIs(t, err, apperrors.ErrURLNotFound)

	stub := &stubStore{}
	_, err = newTestService(stub).ResolveTarget(ctx, "abc")
	assert.ErrorIs(t, err, apperrors.ErrInvalidShortCode)
	assert.Zero(t, stub.lookupCalls)
}

func TestURLService_RecordClick(t *testing.T) {
	store := repository.NewMemoryRecordStore()
	svc := newTestService(store)

	url, err := svc.Shorten(context.Background(), "https://example.com")
	require.NoError(t, err)

	t.Run("sequential clicks", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			ok, err := svc.RecordClick(context.Background(), url)
			require.NoError(t, err)
			assert.True(t, ok)
		}
		assert.Equal(t, int64(5), url.Clicks)

		stored, err := svc.Resolve(context.Background(), url.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, int64(5), stored.Clicks)
	})

	t.Run("not persisted", func(t *testing.T) {
		_, err := svc.RecordClick(context.Background(), &model.ShortURL{ShortCode: "abc123"})
		assert.True(t, apperrors.IsValidationError(err))

		_, err = svc.RecordClick(context.Background(), nil)
		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("record vanished", func(t *testing.T) {
		ghost := &model.ShortURL{ID: 999, ShortCode: "ghost1"}
		ok, err := svc.RecordClick(context.Background(), ghost)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, ghost.Clicks)
	})
}

func TestURLService_RecordClick_Concurrent(t *testing.T) {
	store := repository.NewMemoryRecordStore()
	svc := newTestService(store)

	created, err := svc.Shorten(context.Background(), "https://example.com")
	require.NoError(t, err)

	const clicks = 100
	var wg sync.WaitGroup
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			url, err := svc.Resolve(context.Background(), created.ShortCode)
			if !assert.NoError(t, err) {
				return
			}
			_, err = svc.RecordClick(context.Background(), url)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	url, err := svc.Resolve(context.Background(), created.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, int64(clicks), url.Clicks)
}

func TestURLService_RecordClick_StoreError(t *testing.T) {
	svc := newTestService(&stubStore{err: errors.New("database error")})
	url := &model.ShortURL{ID: 1, ShortCode: "abc123"}

	ok, err := svc.RecordClick(context.Background(), url)

	assert.Error(t, err)
	assert.False(t, ok)
	assert.Zero(t, url.Clicks)
}

func TestURLService_ShortenRedirectStatsScenario(t *testing.T) {
	svc := newTestService(repository.NewMemoryRecordStore())
	ctx := context.Background()

	created, err := svc.Shorten(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Zero(t, created.Clicks)

	resolved, err := svc.ResolveTarget(ctx, created.ShortCode)
	require.NoError(t, err)
	_, err = svc.RecordClick(ctx, resolved)
	require.NoError(t, err)

	again, err := svc.Resolve(ctx, created.ShortCode)
	require.NoError(t, err)
	stats := svc.GetStats(again)

	assert.Equal(t, int64(1), stats.Clicks)
	assert.Equal(t, "https://example.com", stats.URL)
	assert.Equal(t, created.CreatedAt, stats.CreatedAt)
}
