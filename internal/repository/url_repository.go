package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationErrCode
}

type PostgresRecordStore struct {
	db *sqlx.DB
}

func NewPostgresRecordStore(db *sqlx.DB) *PostgresRecordStore {
	return &PostgresRecordStore{
		db: db,
	}
}

func (r *PostgresRecordStore) Insert(ctx context.Context, url *model.ShortURL) error {
	query := `
	INSERT INTO urls (short_code, original_url, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (short_code) DO NOTHING
	RETURNING id, short_code, original_url, clicks, created_at
	`

	if url.CreatedAt.IsZero() {
		url.CreatedAt = time.Now().UTC()
	}

	var stored model.ShortURL
	err := r.db.GetContext(ctx, &stored, query, url.ShortCode, url.OriginalURL, url.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) || isUniqueViolationError(err) {
		return fmt.Errorf("short code '%s': %w", url.ShortCode, apperrors.ErrShortCodeExists)
	}

	if err != nil {
		return apperrors.NewDatabaseError("failed to create URL", err)
	}

	*url = stored
	return nil
}

func (r *PostgresRecordStore) GetByShortCode(ctx context.Context, shortCode string) (*model.ShortURL, error) {
	query := `
	SELECT id, short_code, original_url, clicks, created_at
	FROM urls
	WHERE short_code = $1
	`

	url := &model.ShortURL{}
	err := r.db.GetContext(ctx, url, query, shortCode)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("URL with short code '%s': %w", shortCode, apperrors.ErrURLNotFound)
	}

	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to get URL", err)
	}

	return url, nil
}

func (r *PostgresRecordStore) GetTarget(ctx context.Context, shortCode string) (*model.ShortURL, error) {
	query := `
	SELECT id, short_code, original_url, created_at
	FROM urls
	WHERE short_code = $1
	`

	url := &model.ShortURL{}
	err := r.db.GetContext(ctx, url, query, shortCode)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("URL with short code '%s': %w", shortCode, apperrors.ErrURLNotFound)
	}

	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to get URL", err)
	}

	return url, nil
}

func (r *PostgresRecordStore) GetByID(ctx context.Context, id int64) (*model.ShortURL, error) {
	query := `
	SELECT id, short_code, original_url, clicks, created_at
	FROM urls
	WHERE id = $1
	`

	url := &model.ShortURL{}
	err := r.db.GetContext(ctx, url, query, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("URL with ID %d: %w", id, apperrors.ErrURLNotFound)
	}

	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to get URL", err)
	}

	return url, nil
}

func (r *PostgresRecordStore) IncrementClicks(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE urls SET clicks = clicks + 1 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, apperrors.NewDatabaseError("failed to increment click count", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewDatabaseError("failed to get number of affected rows", err)
	}

	return affected > 0, nil
}

func (r *PostgresRecordStore) ListMostClicked(ctx context.Context, limit int) ([]*model.ShortURL, error) {
	query := `
	SELECT id, short_code, original_url, clicks, created_at
	FROM urls
	ORDER BY clicks DESC, created_at DESC
	LIMIT $1
	`

	var urls []*model.ShortURL
	if err := r.db.SelectContext(ctx, &urls, query, limit); err != nil {
		return nil, apperrors.NewDatabaseError("failed to query popular URLs", err)
	}

	return urls, nil
}
