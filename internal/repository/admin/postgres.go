package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"thriftshop/internal/domain"
)

const pgUniqueViolation = "23505"

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) IsAdmin(ctx context.Context, identityID string) bool {
	if identityID == "" {
		return false
	}
	const q = `SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)`
	var isAdmin bool
	if err := r.pool.QueryRow(ctx, q, identityID).Scan(&isAdmin); err != nil {
		// degrade safely rather than blocking sign-in
		r.logger.Printf("admin repo: lookup user=%s error=%v, resolving not-admin", identityID, err)
		return false
	}
	return isAdmin
}

func (r *postgresRepo) Claim(ctx context.Context, ident domain.Identity) bool {
	if ident.ID == "" {
		return false
	}
	// an admin invited by email gets its user id filled in on first sign-in
	const backfill = `
UPDATE admins
SET user_id = $1
WHERE user_id IS NULL AND email = $2
`
	if ident.Email != "" {
		if _, err := r.pool.Exec(ctx, backfill, ident.ID, ident.Email); err != nil {
			r.logger.Printf("admin repo: claim backfill user=%s error=%v", ident.ID, err)
		}
	}
	return r.IsAdmin(ctx, ident.ID)
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Admin, error) {
	const q = `
SELECT id::text, COALESCE(user_id, ''), email, created_at
FROM admins
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Admin
	for rows.Next() {
		var a domain.Admin
		if err := rows.Scan(&a.ID, &a.UserID, &a.Email, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Add(ctx context.Context, email string) (*domain.Admin, error) {
	const q = `
INSERT INTO admins (email)
VALUES ($1)
RETURNING id::text, COALESCE(user_id, ''), email, created_at
`
	var a domain.Admin
	if err := r.pool.QueryRow(ctx, q, email).Scan(&a.ID, &a.UserID, &a.Email, &a.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("admin %s: %w", email, domain.ErrAlreadyExists)
		}
		return nil, err
	}
	return &a, nil
}

func (r *postgresRepo) Remove(ctx context.Context, userID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM admins WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
