package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
	"github.com/Kosench/shortlink/internal/repository"
	"github.com/Kosench/shortlink/internal/utils"
)

const DefaultMaxAttempts = 10

// URLService allocates short codes and serves the read path. It holds no
// state about issued codes; uniqueness comes from the store alone.
type URLService struct {
	store       repository.RecordStore
	baseURL     string
	maxAttempts int
	logger      *slog.Logger

	generate func() (string, error)
	now      func() time.Time
}

func NewURLService(store repository.RecordStore, baseURL string, maxAttempts int, logger *slog.Logger) *URLService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &URLService{
		store:       store,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxAttempts: maxAttempts,
		logger:      logger,
		generate:    utils.GenerateShortCode,
		now:         time.Now,
	}
}

// Shorten validates rawURL and persists it under a fresh short code.
func (s *URLService) Shorten(ctx context.Context, rawURL string) (*model.ShortURL, error) {
	originalURL := utils.SanitizeInput(rawURL)
	if err := utils.ValidateURL(originalURL); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		url := &model.ShortURL{
			ShortCode:   code,
			OriginalURL: originalURL,
			CreatedAt:   s.now().UTC(),
		}

		err = s.store.Insert(ctx, url)
		if err == nil {
			return url, nil
		}

		if !errors.Is(err, apperrors.ErrShortCodeExists) {
			return nil, fmt.Errorf("failed to create URL: %w", err)
		}

		s.logger.Debug("short code collision", slog.String("short_code", code), slog.Int("attempt", attempt))
	}

	s.logger.Error("short code allocation exhausted", slog.Int("attempts", s.maxAttempts))
	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, apperrors.ErrAllocationExhausted)
}

// CreateShortURL shortens req.URL and builds the public short link.
func (s *URLService) CreateShortURL(ctx context.Context, req *model.CreateURLRequest) (*model.ShortenResponse, error) {
	url, err := s.Shorten(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("URL shortened", slog.String("short_code", url.ShortCode), slog.String("url", url.OriginalURL))

	return &model.ShortenResponse{
		ShortCode: url.ShortCode,
		ShortURL:  s.BuildShortURL(url.ShortCode),
	}, nil
}

// Resolve rejects malformed codes before any store access.
func (s *URLService) Resolve(ctx context.Context, shortCode string) (*model.ShortURL, error) {
	if err := utils.ValidateShortCode(shortCode); err != nil {
		return nil, err
	}

	url, err := s.store.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	return url, nil
}

// ResolveTarget is Resolve for the redirect path. The result carries no
// click count and may come from the cache.
func (s *URLService) ResolveTarget(ctx context.Context, shortCode string) (*model.ShortURL, error) {
	if err := utils.ValidateShortCode(shortCode); err != nil {
		return nil, err
	}

	return s.store.GetTarget(ctx, shortCode)
}

// RecordClick adds one click to a persisted record. It reports false when no
// row was updated.
func (s *URLService) RecordClick(ctx context.Context, url *model.ShortURL) (bool, error) {
	if url == nil || url.ID == 0 {
		return false, apperrors.NewValidationError("id", "record is not persisted")
	}

	ok, err := s.store.IncrementClicks(ctx, url.ID)
	if err != nil {
		return false, fmt.Errorf("failed to record click for %s: %w", url.ShortCode, err)
	}

	if ok {
		url.Clicks++
	}

	return ok, nil
}

func (s *URLService) GetStats(url *model.ShortURL) model.Stats {
	return model.Stats{
		URL:       url.OriginalURL,
		Clicks:    url.Clicks,
		CreatedAt: url.CreatedAt,
	}
}

func (s *URLService) BuildShortURL(shortCode string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, shortCode)
}
