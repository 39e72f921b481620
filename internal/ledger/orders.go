package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fjod/go_billing/internal/domain"
)

const orderColumns = `id, session_id, customer_name, customer_phone, items, total_amount, discount_amount,
	payment_status, payment_method, payment_reference, needs_review, created_at, updated_at`

const (
	EventOrderPlaced     = "OrderPlaced"
	EventPaymentResolved = "PaymentResolved"
)

// CreateOrder inserts a pending order together with its OrderPlaced outbox event.
func (r *Repository) CreateOrder(ctx context.Context, o domain.NewOrder) (*domain.Order, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order items: %w", err)
	}

	var order *domain.Order
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO orders (session_id, customer_name, customer_phone, items, total_amount, discount_amount)
		          VALUES ($1, $2, $3, $4, $5, $6)
		          RETURNING ` + orderColumns

		created, err := scanOrder(tx.QueryRowContext(ctx, query,
			o.SessionID,
			o.CustomerName,
			o.CustomerPhone,
			string(itemsJSON),
			o.TotalAmount,
			o.DiscountAmount))
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if err := insertEvent(ctx, tx, created.ID, EventOrderPlaced, created); err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

// ListOrders returns every order, newest first.
func (r *Repository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *Repository) SetPaymentReference(ctx context.Context, id int64, reference string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_reference = $2, updated_at = NOW() WHERE id = $1`, id, reference)
	if err != nil {
		return fmt.Errorf("set payment reference: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set payment reference: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
	}
	return nil
}

// ResolvePayment moves a pending order to a terminal status and records a
// PaymentResolved outbox event in the same transaction. A non-pending order is
// left untouched and an *domain.OutcomeConflictError is returned.
func (r *Repository) ResolvePayment(ctx context.Context, id int64, status domain.PaymentStatus, method string) (*domain.Order, error) {
	if !domain.CanTransitionTo(domain.PaymentStatusPending, status) {
		return nil, fmt.Errorf("resolve payment: %q is not a terminal status", status)
	}

	var order *domain.Order
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE orders
		          SET payment_status = $2, payment_method = $3, updated_at = NOW()
		          WHERE id = $1 AND payment_status = 'pending'
		          RETURNING ` + orderColumns

		updated, err := scanOrder(tx.QueryRowContext(ctx, query, id, status, method))
		if errors.Is(err, sql.ErrNoRows) {
			return r.conflictOrMissing(ctx, tx, id)
		}
		if err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}

		outcome := domain.PaymentOutcome{
			OrderID:    updated.ID,
			SessionID:  updated.SessionID,
			Status:     updated.PaymentStatus,
			Method:     updated.PaymentMethod,
			Amount:     updated.TotalAmount.String(),
			ResolvedAt: updated.UpdatedAt,
		}
		if err := insertEvent(ctx, tx, updated.ID, EventPaymentResolved, outcome); err != nil {
			return err
		}
		order = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) conflictOrMissing(ctx context.Context, tx *sql.Tx, id int64) error {
	var current domain.PaymentStatus
	err := tx.QueryRowContext(ctx, `SELECT payment_status FROM orders WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
	}
	if err != nil {
		return fmt.Errorf("read payment status: %w", err)
	}
	return &domain.OutcomeConflictError{OrderID: id, Current: current}
}

// MarkNeedsReview flags a still-pending order for manual follow-up.
func (r *Repository) MarkNeedsReview(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET needs_review = TRUE, updated_at = NOW()
		 WHERE id = $1 AND payment_status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("mark needs review: %w", err)
	}
	return nil
}

// FlagStalePending flags pending orders created more than olderThan ago. They
// are never failed automatically.
func (r *Repository) FlagStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET needs_review = TRUE, updated_at = NOW()
		 WHERE payment_status = 'pending' AND needs_review = FALSE AND created_at < $1`,
		time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("flag stale orders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("flag stale orders: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var order domain.Order
	var itemsJSON []byte
	err := s.Scan(
		&order.ID,
		&order.SessionID,
		&order.CustomerName,
		&order.CustomerPhone,
		&itemsJSON,
		&order.TotalAmount,
		&order.DiscountAmount,
		&order.PaymentStatus,
		&order.PaymentMethod,
		&order.PaymentReference,
		&order.NeedsReview,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &order, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, orderID int64, eventType string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO payment_outbox (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		strconv.FormatInt(orderID, 10), eventType, string(payloadJSON))
	if err != nil {
		return fmt.Errorf("insert %s event: %w", eventType, err)
	}
	return nil
}
