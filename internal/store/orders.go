package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fentz26/ordertasks/internal/models"
)

const orderColumns = `id, status, customer_id, customer_note, billing, shipping, total, currency, trashed, created_at, updated_at`

// CreateOrder inserts order with its shipping lines and meta, assigning
// the order id.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	billing, err := json.Marshal(order.Billing)
	if err != nil {
		return fmt.Errorf("encode billing: %w", err)
	}
	shipping, err := json.Marshal(order.Shipping)
	if err != nil {
		return fmt.Errorf("encode shipping: %w", err)
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	now := time.Now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (status, customer_id, customer_note, billing, shipping, total, currency, trashed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.Status, order.CustomerID, order.CustomerNote, string(billing), string(shipping),
		order.Total, order.Currency, order.Trashed, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("order id: %w", err)
	}
	order.ID = id

	for i := range order.ShippingLines {
		line := &order.ShippingLines[i]
		line.OrderID = id
		if line.ID == "" {
			line.ID = uuid.New().String()
		}
		if err := upsertShippingLine(ctx, tx, line); err != nil {
			return err
		}
	}
	for k, v := range order.Meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_meta (order_id, meta_key, meta_value) VALUES (?, ?, ?)`, id, k, v,
		); err != nil {
			return fmt.Errorf("insert order meta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetOrder retrieves an order with its shipping lines and meta.
// Returns nil, nil if the order does not exist.
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if order.ShippingLines, err = s.shippingLines(ctx, id); err != nil {
		return nil, err
	}
	if order.Meta, err = s.orderMeta(ctx, id); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns orders, optionally filtered by status, newest first.
// Shipping lines and meta are not loaded.
func (s *Store) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus sets the status of an order.
func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	return s.touchOrder(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().UTC(), id)
}

// TrashOrder soft-deletes an order.
func (s *Store) TrashOrder(ctx context.Context, id int64) error {
	return s.touchOrder(ctx, `UPDATE orders SET trashed = 1, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
}

func (s *Store) touchOrder(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("order %v: %w", args[len(args)-1], ErrNotFound)
	}
	return nil
}

// UpdateOrderMeta creates or replaces one meta value of an order.
func (s *Store) UpdateOrderMeta(ctx context.Context, orderID int64, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO order_meta (order_id, meta_key, meta_value) VALUES (?, ?, ?)
		 ON CONFLICT(order_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value`,
		orderID, key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert order meta: %w", err)
	}
	return nil
}

// SaveShippingLine persists a shipping line.
func (s *Store) SaveShippingLine(ctx context.Context, line *models.ShippingLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	return upsertShippingLine(ctx, s.db, line)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertShippingLine(ctx context.Context, db execer, line *models.ShippingLine) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO shipping_lines (id, order_id, method_id, method_title, total) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET method_id = excluded.method_id, method_title = excluded.method_title, total = excluded.total`,
		line.ID, line.OrderID, line.MethodID, line.MethodTitle, line.Total,
	)
	if err != nil {
		return fmt.Errorf("upsert shipping line: %w", err)
	}
	return nil
}

func (s *Store) shippingLines(ctx context.Context, orderID int64) ([]models.ShippingLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_id, method_id, method_title, total FROM shipping_lines WHERE order_id = ? ORDER BY rowid`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query shipping lines: %w", err)
	}
	defer rows.Close()

	lines := []models.ShippingLine{}
	for rows.Next() {
		var l models.ShippingLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.MethodID, &l.MethodTitle, &l.Total); err != nil {
			return nil, fmt.Errorf("scan shipping line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *Store) orderMeta(ctx context.Context, orderID int64) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT meta_key, meta_value FROM order_meta WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan order meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*models.Order, error) {
	var (
		o                 models.Order
		note              sql.NullString
		billing, shipping string
	)
	if err := row.Scan(&o.ID, &o.Status, &o.CustomerID, &note, &billing, &shipping,
		&o.Total, &o.Currency, &o.Trashed, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.CustomerNote = note.String
	if err := json.Unmarshal([]byte(billing), &o.Billing); err != nil {
		return nil, fmt.Errorf("decode billing: %w", err)
	}
	if err := json.Unmarshal([]byte(shipping), &o.Shipping); err != nil {
		return nil, fmt.Errorf("decode shipping: %w", err)
	}
	return &o, nil
}
