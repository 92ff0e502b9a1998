package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pronto/internal/domain"
	apperrors "pronto/internal/errors"
)

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

const orderColumns = `
	id, orderNumber, customerName, customerPhone, customerEmail,
	addressStreet, addressCity, addressState, addressZip, addressInstructions,
	subtotal, couponCode, couponKind, couponValue, discountAmount,
	deliveryFee, tax, total, status, paymentMethod, paymentStatus,
	gatewayOrderId, gatewayPaymentId, transactionId, paidAt,
	estimatedDeliveryAt, actualDeliveredAt, specialInstructions,
	version, createdAt, updatedAt`

// Insert writes the whole aggregate: the order row, its line items and the
// initial status history. Runs inside the caller's transaction so coupon
// consumption and order persistence commit or roll back together.
func (r *MySQLOrderRepository) Insert(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var (
		couponCode, couponKind         sql.NullString
		couponValue, discountAmount    sql.NullString
		gatewayOrderID, gatewayPayID   sql.NullString
		transactionID                  sql.NullString
		paidAt, actualDeliveredAt      sql.NullTime
	)
	if o.Discount != nil {
		couponCode = sql.NullString{String: o.Discount.CouponCode, Valid: true}
		couponKind = sql.NullString{String: string(o.Discount.Kind), Valid: true}
		couponValue = sql.NullString{String: o.Discount.RawValue.String(), Valid: true}
		discountAmount = sql.NullString{String: o.Discount.AppliedAmount.String(), Valid: true}
	}

	_, err := tx.ExecContext(ctx, query,
		o.ID, o.OrderNumber, o.Customer.Name, o.Customer.Phone, o.Customer.Email,
		o.Customer.Address.Street, o.Customer.Address.City, o.Customer.Address.State,
		o.Customer.Address.ZipCode, o.Customer.Address.DeliveryInstructions,
		o.Subtotal.String(), couponCode, couponKind, couponValue, discountAmount,
		o.DeliveryFee.String(), o.Tax.String(), o.Total.String(),
		string(o.Status), o.PaymentMethod, string(o.PaymentStatus),
		gatewayOrderID, gatewayPayID, transactionID, paidAt,
		o.EstimatedDeliveryAt, actualDeliveredAt, o.SpecialInstructions,
		o.Version, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	for _, item := range o.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (orderId, productId, name, unitPrice, quantity, lineTotal)
			VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, item.ProductID, item.Name, item.UnitPrice.String(), item.Quantity, item.LineTotal.String(),
		)
		if err != nil {
			return fmt.Errorf("inserting order item: %w", err)
		}
	}

	return r.insertHistory(ctx, tx, o.ID, 0, o.StatusHistory)
}

// Update persists aggregate mutations: the order row guarded by the version
// it was loaded at, plus any history entries appended since fromSeq. Zero
// rows affected means a concurrent writer won; the whole operation must be
// retried by the caller.
func (r *MySQLOrderRepository) Update(ctx context.Context, tx *sql.Tx, o *domain.Order, fromSeq int) error {
	var (
		gatewayOrderID, gatewayPayID, transactionID sql.NullString
		paidAt, actualDeliveredAt                   sql.NullTime
	)
	if o.Payment.GatewayOrderID != "" {
		gatewayOrderID = sql.NullString{String: o.Payment.GatewayOrderID, Valid: true}
	}
	if o.Payment.GatewayPaymentID != "" {
		gatewayPayID = sql.NullString{String: o.Payment.GatewayPaymentID, Valid: true}
	}
	if o.Payment.TransactionID != "" {
		transactionID = sql.NullString{String: o.Payment.TransactionID, Valid: true}
	}
	if o.Payment.PaidAt != nil {
		paidAt = sql.NullTime{Time: *o.Payment.PaidAt, Valid: true}
	}
	if o.ActualDeliveredAt != nil {
		actualDeliveredAt = sql.NullTime{Time: *o.ActualDeliveredAt, Valid: true}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, paymentStatus = ?, paymentMethod = ?,
		    gatewayOrderId = ?, gatewayPaymentId = ?, transactionId = ?, paidAt = ?,
		    estimatedDeliveryAt = ?, actualDeliveredAt = ?,
		    version = version + 1, updatedAt = ?
		WHERE id = ? AND version = ?`,
		string(o.Status), string(o.PaymentStatus), o.PaymentMethod,
		gatewayOrderID, gatewayPayID, transactionID, paidAt,
		o.EstimatedDeliveryAt, actualDeliveredAt,
		o.UpdatedAt, o.ID, o.Version,
	)
	if err != nil {
		return fmt.Errorf("updating order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewConflictError(fmt.Sprintf("order %s was modified concurrently", o.ID))
	}
	o.Version++

	if fromSeq < len(o.StatusHistory) {
		return r.insertHistory(ctx, tx, o.ID, fromSeq, o.StatusHistory[fromSeq:])
	}
	return nil
}

func (r *MySQLOrderRepository) insertHistory(ctx context.Context, tx *sql.Tx, orderID string, fromSeq int, entries []domain.StatusHistoryEntry) error {
	for i, entry := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_status_history (orderId, seq, status, timestamp, note)
			VALUES (?, ?, ?, ?, ?)`,
			orderID, fromSeq+i, string(entry.Status), entry.Timestamp, entry.Note,
		)
		if err != nil {
			return fmt.Errorf("inserting status history: %w", err)
		}
	}
	return nil
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, r.db, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
}

// FindByIDForUpdate locks the order row so concurrent mutations of the same
// aggregate serialize. Must run inside a transaction.
func (r *MySQLOrderRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error) {
	return r.findOne(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id = ? FOR UPDATE`, id)
}

func (r *MySQLOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.findOne(ctx, r.db, `SELECT `+orderColumns+` FROM orders WHERE orderNumber = ?`, orderNumber)
}

// FindByGatewayOrderIDForUpdate locates the order a payment notification is
// about, locked for the reconciliation write.
func (r *MySQLOrderRepository) FindByGatewayOrderIDForUpdate(ctx context.Context, tx *sql.Tx, gatewayOrderID string) (*domain.Order, error) {
	return r.findOne(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE gatewayOrderId = ? FOR UPDATE`, gatewayOrderID)
}

func (r *MySQLOrderRepository) FindByGatewayPaymentIDForUpdate(ctx context.Context, tx *sql.Tx, gatewayPaymentID string) (*domain.Order, error) {
	return r.findOne(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE gatewayPaymentId = ? FOR UPDATE`, gatewayPaymentID)
}

// HasPriorOrders reports whether this phone number has any completed order,
// backing first-time-only coupons.
func (r *MySQLOrderRepository) HasPriorOrders(ctx context.Context, customerPhone string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE customerPhone = ? AND status != ?`,
		customerPhone, string(domain.StatusCancelled),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("counting prior orders: %w", err)
	}
	return count > 0, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *MySQLOrderRepository) findOne(ctx context.Context, q querier, query string, arg any) (*domain.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying order: %w", err)
	}

	if err := r.loadItems(ctx, q, order); err != nil {
		return nil, err
	}
	if err := r.loadHistory(ctx, q, order); err != nil {
		return nil, err
	}
	return order, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                              domain.Order
		subtotal, deliveryFee          string
		tax, total                     string
		couponCode, couponKind         sql.NullString
		couponValue, discountAmount    sql.NullString
		gatewayOrderID, gatewayPayID   sql.NullString
		transactionID                  sql.NullString
		paidAt, actualDeliveredAt      sql.NullTime
		status, paymentStatus          string
	)

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Email,
		&o.Customer.Address.Street, &o.Customer.Address.City, &o.Customer.Address.State,
		&o.Customer.Address.ZipCode, &o.Customer.Address.DeliveryInstructions,
		&subtotal, &couponCode, &couponKind, &couponValue, &discountAmount,
		&deliveryFee, &tax, &total, &status, &o.PaymentMethod, &paymentStatus,
		&gatewayOrderID, &gatewayPayID, &transactionID, &paidAt,
		&o.EstimatedDeliveryAt, &actualDeliveredAt, &o.SpecialInstructions,
		&o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Status = domain.Status(status)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)

	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("parsing subtotal: %w", err)
	}
	if o.DeliveryFee, err = decimal.NewFromString(deliveryFee); err != nil {
		return nil, fmt.Errorf("parsing delivery fee: %w", err)
	}
	if o.Tax, err = decimal.NewFromString(tax); err != nil {
		return nil, fmt.Errorf("parsing tax: %w", err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parsing total: %w", err)
	}

	if couponCode.Valid {
		value, err := decimal.NewFromString(couponValue.String)
		if err != nil {
			return nil, fmt.Errorf("parsing coupon value: %w", err)
		}
		applied, err := decimal.NewFromString(discountAmount.String)
		if err != nil {
			return nil, fmt.Errorf("parsing discount amount: %w", err)
		}
		o.Discount = &domain.DiscountSnapshot{
			CouponCode:    couponCode.String,
			Kind:          domain.CouponKind(couponKind.String),
			RawValue:      value,
			AppliedAmount: applied,
		}
	}

	o.Payment = domain.PaymentDetails{
		GatewayOrderID:   gatewayOrderID.String,
		GatewayPaymentID: gatewayPayID.String,
		TransactionID:    transactionID.String,
	}
	if paidAt.Valid {
		t := paidAt.Time
		o.Payment.PaidAt = &t
	}
	if actualDeliveredAt.Valid {
		t := actualDeliveredAt.Time
		o.ActualDeliveredAt = &t
	}

	return &o, nil
}

func (r *MySQLOrderRepository) loadItems(ctx context.Context, q querier, o *domain.Order) error {
	rows, err := q.QueryContext(ctx, `
		SELECT productId, name, unitPrice, quantity, lineTotal
		FROM order_items WHERE orderId = ? ORDER BY id`, o.ID)
	if err != nil {
		return fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item                 domain.OrderItem
			unitPrice, lineTotal string
		)
		if err := rows.Scan(&item.ProductID, &item.Name, &unitPrice, &item.Quantity, &lineTotal); err != nil {
			return fmt.Errorf("scanning order item: %w", err)
		}
		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return fmt.Errorf("parsing unit price: %w", err)
		}
		if item.LineTotal, err = decimal.NewFromString(lineTotal); err != nil {
			return fmt.Errorf("parsing line total: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

func (r *MySQLOrderRepository) loadHistory(ctx context.Context, q querier, o *domain.Order) error {
	rows, err := q.QueryContext(ctx, `
		SELECT status, timestamp, note
		FROM order_status_history WHERE orderId = ? ORDER BY seq`, o.ID)
	if err != nil {
		return fmt.Errorf("querying status history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry  domain.StatusHistoryEntry
			status string
		)
		if err := rows.Scan(&status, &entry.Timestamp, &entry.Note); err != nil {
			return fmt.Errorf("scanning status history: %w", err)
		}
		entry.Status = domain.Status(status)
		o.StatusHistory = append(o.StatusHistory, entry)
	}
	return rows.Err()
}

type ListFilter struct {
	Status string
	Page   int
	Limit  int
}

func (r *MySQLOrderRepository) List(ctx context.Context, filter ListFilter) ([]domain.Order, int, error) {
	where := ""
	args := []any{}
	if filter.Status != "" && filter.Status != "all" {
		where = " WHERE status = ?"
		args = append(args, filter.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders`+where+` ORDER BY createdAt DESC LIMIT ? OFFSET ?`,
		append(args, filter.Limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range orders {
		if err := r.loadItems(ctx, r.db, &orders[i]); err != nil {
			return nil, 0, err
		}
		if err := r.loadHistory(ctx, r.db, &orders[i]); err != nil {
			return nil, 0, err
		}
	}

	return orders, total, nil
}

type Stats struct {
	TodayOrders  int
	TodayRevenue decimal.Decimal
	TotalOrders  int
	TotalRevenue decimal.Decimal
	ByStatus     map[string]int
}

// CollectStats aggregates the dashboard numbers. Revenue counts Delivered
// orders only; an order becomes revenue-eligible the moment it is delivered.
func (r *MySQLOrderRepository) CollectStats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{
		TodayRevenue: decimal.Zero,
		TotalRevenue: decimal.Zero,
		ByStatus:     make(map[string]int),
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE createdAt >= ? AND createdAt < ?`,
		dayStart, dayEnd,
	).Scan(&stats.TodayOrders)
	if err != nil {
		return nil, fmt.Errorf("counting today's orders: %w", err)
	}

	var todayRevenue sql.NullString
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = ? AND createdAt >= ? AND createdAt < ?`,
		string(domain.StatusDelivered), dayStart, dayEnd,
	).Scan(&todayRevenue)
	if err != nil {
		return nil, fmt.Errorf("summing today's revenue: %w", err)
	}
	if todayRevenue.Valid {
		if stats.TodayRevenue, err = decimal.NewFromString(todayRevenue.String); err != nil {
			return nil, fmt.Errorf("parsing today's revenue: %w", err)
		}
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&stats.TotalOrders); err != nil {
		return nil, fmt.Errorf("counting orders: %w", err)
	}

	var totalRevenue sql.NullString
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = ?`,
		string(domain.StatusDelivered),
	).Scan(&totalRevenue)
	if err != nil {
		return nil, fmt.Errorf("summing revenue: %w", err)
	}
	if totalRevenue.Valid {
		if stats.TotalRevenue, err = decimal.NewFromString(totalRevenue.String); err != nil {
			return nil, fmt.Errorf("parsing revenue: %w", err)
		}
	}

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting orders by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		stats.ByStatus[status] = count
	}

	return stats, rows.Err()
}
