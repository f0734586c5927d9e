package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"thriftshop/internal/domain"
)

const pgUndefinedColumn = "42703"

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

const orderColumns = `id::text, items, total_cents, customer_email, status, COALESCE(razorpay_payment_id, ''), COALESCE(razorpay_order_id, ''), created_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var status string
	if err := row.Scan(&o.ID, &o.Items, &o.TotalCents, &o.CustomerEmail, &status, &o.PaymentID, &o.GatewayOrderID, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (r *postgresRepo) Create(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	cols := []string{"items", "total_cents", "customer_email", "status"}
	args := []interface{}{draft.Items, draft.TotalCents, draft.CustomerEmail, string(domain.StatusPending)}
	if draft.PaymentID != "" {
		cols = append(cols, "razorpay_payment_id")
		args = append(args, draft.PaymentID)
	}
	if draft.GatewayOrderID != "" {
		cols = append(cols, "razorpay_order_id")
		args = append(args, draft.GatewayOrderID)
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	q := fmt.Sprintf(`
INSERT INTO orders (%s)
VALUES (%s)
RETURNING `+orderColumns+`
`, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	o, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedColumn {
			r.logger.Printf("order repo: create rejected column: %s", pgErr.Message)
			return nil, fmt.Errorf("%s: %w", pgErr.Message, domain.ErrUnsupportedField)
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
ORDER BY created_at DESC
`
	return r.list(ctx, q)
}

func (r *postgresRepo) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE customer_email = $1
ORDER BY created_at DESC
`
	return r.list(ctx, q, email)
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	const q = `
UPDATE orders
SET status = $2
WHERE id = $1
RETURNING ` + orderColumns + `
`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) CustomerEmails(ctx context.Context) ([]string, error) {
	const q = `
SELECT DISTINCT customer_email
FROM orders
WHERE customer_email <> ''
ORDER BY customer_email
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}
