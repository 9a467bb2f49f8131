package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenbasket/storefront/internal/domain/order"
)

const (
	orderColumns = `id, order_number, items, total,
		customer_name, customer_email, customer_phone, customer_address,
		status, payment_method,
		shipping_cost, shipping_method, shipping_address,
		created_at, updated_at`

	createOrderSQL = `INSERT INTO orders (id, order_number, items, total,
		customer_name, customer_email, customer_phone, customer_address,
		status, payment_method,
		shipping_cost, shipping_method, shipping_address,
		created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	// updated_at must grow strictly on every bump even when the database
	// clock lags the application clock that stamped created_at.
	updateOrderStatusSQL = `UPDATE orders
		SET status = $2,
			updated_at = GREATEST(now(), updated_at + interval '1 microsecond')
		WHERE id = $1
		RETURNING ` + orderColumns

	orderSummarySQL = `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'delivered'),
		COALESCE(SUM(total) FILTER (WHERE status <> 'cancelled'), 0)
		FROM orders`

	recentOrdersSQL = `SELECT order_number, customer_name, total, status, created_at
		FROM orders ORDER BY created_at DESC LIMIT $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. The item snapshots are serialized to JSON for
// storage in the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.OrderNumber, itemsJSON, o.Total,
		o.Customer.Name, o.Customer.Email, o.Customer.Phone, o.Customer.Address,
		string(o.Status), string(o.PaymentMethod),
		o.Shipping.Cost, o.Shipping.Method, o.Shipping.Address,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns the full order for the given UUID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns a page of orders sorted newest first, plus the total count
// matching the filter.
func (r *OrderRepository) List(ctx context.Context, f order.ListFilter) ([]order.Order, int, error) {
	where, args := buildListFilter(f)

	countSQL := "SELECT COUNT(*) FROM orders" + where
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	listSQL := "SELECT " + orderColumns + " FROM orders" + where +
		" ORDER BY created_at DESC" +
		" LIMIT $" + strconv.Itoa(len(args)+1) +
		" OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus overwrites the order's status, bumps updated_at, and returns
// the updated record. Returns order.ErrNotFound for an unknown ID.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return nil, fmt.Errorf("updating status of order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("updating status of order %q: %w", id, err)
	}
	return &o, nil
}

// Summary aggregates counts and revenue across all orders. Revenue excludes
// cancelled orders.
func (r *OrderRepository) Summary(ctx context.Context) (*order.Summary, error) {
	var s order.Summary
	err := r.pool.QueryRow(ctx, orderSummarySQL).Scan(
		&s.TotalOrders, &s.PendingOrders, &s.CompletedOrders, &s.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("order summary: %w", err)
	}
	return &s, nil
}

// Recent returns the most recently created orders, trimmed to the summary view.
func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]order.RecentOrder, error) {
	rows, err := r.pool.Query(ctx, recentOrdersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.RecentOrder, error) {
		var (
			ro     order.RecentOrder
			status string
		)
		err := row.Scan(&ro.OrderNumber, &ro.CustomerName, &ro.Total, &status, &ro.CreatedAt)
		ro.Status = order.Status(status)
		return ro, err
	})
}

// buildListFilter renders the optional status/email filters as a WHERE clause
// with positional arguments.
func buildListFilter(f order.ListFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	if f.Email != "" {
		args = append(args, strings.ToLower(f.Email))
		clauses = append(clauses, "customer_email = $"+strconv.Itoa(len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		itemsJSON     []byte
		status        string
		paymentMethod string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &itemsJSON, &o.Total,
		&o.Customer.Name, &o.Customer.Email, &o.Customer.Phone, &o.Customer.Address,
		&status, &paymentMethod,
		&o.Shipping.Cost, &o.Shipping.Method, &o.Shipping.Address,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling order items: %w", err)
	}
	o.Status = order.Status(status)
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	return o, nil
}
