package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linkyhq/linky/internal/link"
)

const linkColumns = "id, original_url, slug, owner_id, visit_count, is_active, created_at, updated_at"

// PostgresRepository is a PostgreSQL implementation of link.Repository.
//
// Slug uniqueness is enforced by a unique index on shortened_links.slug; the
// resulting constraint violations are mapped to link.ErrSlugTaken so callers
// never see raw driver errors for an expected race.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL-backed link repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// NewPostgresPool creates a configured connection pool and verifies
// connectivity before returning it.
func NewPostgresPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, err
	}

	return pool, nil
}

func (p *PostgresRepository) Create(ctx context.Context, l *link.Link) error {
	query := `
		INSERT INTO shortened_links (original_url, slug, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, visit_count, is_active, created_at, updated_at
	`

	err := p.pool.QueryRow(ctx, query, l.OriginalURL, l.Slug, l.OwnerID).Scan(
		&l.ID,
		&l.VisitCount,
		&l.IsActive,
		&l.CreatedAt,
		&l.UpdatedAt,
	)

	return mapStoreError(err)
}

func (p *PostgresRepository) FindBySlug(ctx context.Context, slug string) (*link.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM shortened_links WHERE slug = $1`

	return p.queryLink(ctx, query, slug)
}

func (p *PostgresRepository) FindByOriginal(ctx context.Context, originalURL string, ownerID int64) (*link.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM shortened_links WHERE original_url = $1 AND owner_id = $2`

	return p.queryLink(ctx, query, originalURL, ownerID)
}

func (p *PostgresRepository) FindOwned(ctx context.Context, id, ownerID int64) (*link.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM shortened_links WHERE id = $1 AND owner_id = $2`

	return p.queryLink(ctx, query, id, ownerID)
}

func (p *PostgresRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM shortened_links WHERE slug = $1)`, slug,
	).Scan(&exists)
	if err != nil {
		return false, mapStoreError(err)
	}

	return exists, nil
}

func (p *PostgresRepository) UpdateSlug(ctx context.Context, current *link.Link, newSlug string) (*link.Link, error) {
	query := `
		UPDATE shortened_links
		SET slug = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + linkColumns

	return p.queryLink(ctx, query, current.ID, newSlug)
}

// RecordVisit appends the visit row and increments the counter inside one
// transaction, so the counter can never drift from the log. This is the only
// multi-statement write in the repository.
func (p *PostgresRepository) RecordVisit(ctx context.Context, v *link.Visit) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return mapStoreError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO visits (shortened_link_id, ip_address, user_agent)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, v.LinkID, v.IPAddress, v.UserAgent).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return mapStoreError(err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE shortened_links SET visit_count = visit_count + 1 WHERE id = $1`, v.LinkID)
	if err != nil {
		return mapStoreError(err)
	}

	if tag.RowsAffected() == 0 {
		return link.ErrNotFound
	}

	return mapStoreError(tx.Commit(ctx))
}

func (p *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64, sort link.Sort) ([]*link.Link, error) {
	orderBy := "created_at DESC"
	if sort == link.SortPopularity {
		orderBy = "visit_count DESC"
	}

	query := `SELECT ` + linkColumns + ` FROM shortened_links WHERE owner_id = $1 ORDER BY ` + orderBy

	rows, err := p.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	defer rows.Close()

	var links []*link.Link

	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}

		links = append(links, l)
	}

	return links, mapStoreError(rows.Err())
}

func (p *PostgresRepository) queryLink(ctx context.Context, query string, args ...any) (*link.Link, error) {
	return scanLink(p.pool.QueryRow(ctx, query, args...))
}

func scanLink(row pgx.Row) (*link.Link, error) {
	var l link.Link

	err := row.Scan(
		&l.ID,
		&l.OriginalURL,
		&l.Slug,
		&l.OwnerID,
		&l.VisitCount,
		&l.IsActive,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, mapStoreError(err)
	}

	return &l, nil
}

// mapStoreError translates driver errors into the domain taxonomy: no rows
// and FK violations become ErrNotFound, unique violations become
// ErrSlugTaken, and retryable connection failures become ErrStoreUnavailable.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return link.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return link.ErrSlugTaken
		case "23503":
			return link.ErrNotFound
		}
	}

	if pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %v", link.ErrStoreUnavailable, err)
	}

	return err
}

// Compile-time check.
var _ link.Repository = (*PostgresRepository)(nil)
