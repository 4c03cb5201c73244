package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/microservices/order/domain/dao"
)

// Patch is a partial update guarded by the version the caller last read.
type Patch struct {
	ExpectedVersion  int64
	Status           *domain.Status
	PaymentMethod    *domain.PaymentMethod
	PaymentReference *string
	ChangedBy        string
	Notes            string
	At               time.Time
}

type Filter struct {
	Statuses []domain.Status
	BranchID string
	Number   string
	Limit    int
}

type OrderStore interface {
	AddOrder(ctx context.Context, o domain.Order) error
	// UpdateOrder returns ErrConflict when the stored version differs from ExpectedVersion.
	UpdateOrder(ctx context.Context, id string, p Patch) (domain.Order, error)
	ListOrders(ctx context.Context, f Filter) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	StatusLog(ctx context.Context, id string) ([]domain.StatusLogEntry, error)
	// NextOrderSeq atomically allocates the next daily sequence number, starting at 1.
	// Allocated numbers are never handed out twice, even when the insert that follows fails.
	NextOrderSeq(ctx context.Context, day time.Time) (int, error)
}

const orderColumns = `id, order_number, order_type, status, branch_id, customer_name, customer_phone,
	table_ref, delivery_address, items, subtotal, discount_amount, service_charge, tax_amount,
	total_amount, payment_method, payment_reference, version, created_at, updated_at, completed_at`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var r dao.Order
	err := row.Scan(
		&r.ID, &r.OrderNumber, &r.OrderType, &r.Status, &r.BranchID, &r.CustomerName, &r.CustomerPhone,
		&r.TableRef, &r.DeliveryAddress, &r.Items, &r.Subtotal, &r.DiscountAmount, &r.ServiceCharge, &r.TaxAmount,
		&r.TotalAmount, &r.PaymentMethod, &r.PaymentReference, &r.Version, &r.CreatedAt, &r.UpdatedAt, &r.CompletedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	return r.ToDomain()
}

func (or *OrderRepository) NextOrderSeq(ctx context.Context, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	var seq int
	// The first allocation of a day seeds from orders already stored for it.
	err := or.pool.QueryRow(ctx, `
		INSERT INTO order_sequences (day, last_seq)
		VALUES ($1, (SELECT COUNT(*) FROM orders WHERE created_at >= $1 AND created_at < $2) + 1)
		ON CONFLICT (day) DO UPDATE SET last_seq = order_sequences.last_seq + 1
		RETURNING last_seq`,
		start, start.AddDate(0, 0, 1),
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate order number: %w", err)
	}
	return seq, nil
}

func (or *OrderRepository) AddOrder(ctx context.Context, o domain.Order) error {
	r, err := dao.FromDomain(o)
	if err != nil {
		return err
	}

	tx, err := or.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		r.ID, r.OrderNumber, r.OrderType, r.Status, r.BranchID, r.CustomerName, r.CustomerPhone,
		r.TableRef, r.DeliveryAddress, r.Items, r.Subtotal, r.DiscountAmount, r.ServiceCharge, r.TaxAmount,
		r.TotalAmount, r.PaymentMethod, r.PaymentReference, r.Version, r.CreatedAt, r.UpdatedAt, r.CompletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: order %s already exists", domain.ErrConflict, o.Number)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if err := insertLog(ctx, tx, o.ID, o.Status, "order-service", o.CreatedAt, ""); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertLog(ctx context.Context, tx pgx.Tx, id string, st domain.Status, by string, at time.Time, notes string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5)`, id, string(st), by, at, notes)
	if err != nil {
		return fmt.Errorf("failed to insert order status log: %w", err)
	}
	return nil
}

func (or *OrderRepository) UpdateOrder(ctx context.Context, id string, p Patch) (domain.Order, error) {
	if p.At.IsZero() {
		p.At = time.Now().UTC()
	}
	var status, method *string
	if p.Status != nil {
		s := string(*p.Status)
		status = &s
	}
	if p.PaymentMethod != nil {
		m := string(*p.PaymentMethod)
		method = &m
	}

	tx, err := or.pool.Begin(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET
			status = COALESCE($3, status),
			payment_method = COALESCE($4, payment_method),
			payment_reference = COALESCE($5, payment_reference),
			completed_at = CASE WHEN $3 = 'completed' THEN $6 ELSE completed_at END,
			updated_at = $6,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING `+orderColumns,
		id, p.ExpectedVersion, status, method, p.PaymentReference, p.At,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		var current int64
		if err := tx.QueryRow(ctx, `SELECT version FROM orders WHERE id = $1`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.Order{}, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
			}
			return domain.Order{}, fmt.Errorf("failed to read order version: %w", err)
		}
		return domain.Order{}, fmt.Errorf("%w: order %s is at version %d, not %d", domain.ErrConflict, id, current, p.ExpectedVersion)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to update order: %w", err)
	}

	if p.Status != nil {
		if err := insertLog(ctx, tx, id, *p.Status, p.ChangedBy, p.At, p.Notes); err != nil {
			return domain.Order{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return o, nil
}

func (or *OrderRepository) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	o, err := scanOrder(or.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

// ListOrders returns matching orders oldest first.
func (or *OrderRepository) ListOrders(ctx context.Context, f Filter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		sts := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			sts[i] = string(s)
		}
		args = append(args, sts)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if f.BranchID != "" {
		args = append(args, f.BranchID)
		where = append(where, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if f.Number != "" {
		args = append(args, f.Number)
		where = append(where, fmt.Sprintf("order_number = $%d", len(args)))
	}

	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at ASC, order_number ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := or.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (or *OrderRepository) StatusLog(ctx context.Context, id string) ([]domain.StatusLogEntry, error) {
	rows, err := or.pool.Query(ctx, `
		SELECT order_id, status, changed_by, changed_at, notes
		FROM order_status_log WHERE order_id = $1 ORDER BY changed_at ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read status log: %w", err)
	}
	defer rows.Close()

	var out []domain.StatusLogEntry
	for rows.Next() {
		var (
			e  domain.StatusLogEntry
			st string
		)
		if err := rows.Scan(&e.OrderID, &st, &e.ChangedBy, &e.ChangedAt, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		e.Status = domain.Status(st)
		out = append(out, e)
	}
	return out, rows.Err()
}
