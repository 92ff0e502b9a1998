package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"pronto/internal/domain"
	apperrors "pronto/internal/errors"
)

type MySQLCouponRepository struct {
	db *sql.DB
}

func NewMySQLCouponRepository(db *sql.DB) *MySQLCouponRepository {
	return &MySQLCouponRepository{db: db}
}

const couponColumns = `
	id, code, name, description, kind, value, minOrderAmount, maxDiscountAmount,
	validFrom, validUntil, usageLimit, usedCount,
	applicableCategories, applicableProducts, excludedProducts,
	firstTimeOnly, isActive, createdAt, updatedAt`

func (r *MySQLCouponRepository) Insert(ctx context.Context, c *domain.Coupon) error {
	categories, err := json.Marshal(c.ApplicableCategories)
	if err != nil {
		return fmt.Errorf("marshaling categories: %w", err)
	}
	applicable, err := json.Marshal(c.ApplicableProducts)
	if err != nil {
		return fmt.Errorf("marshaling applicable products: %w", err)
	}
	excluded, err := json.Marshal(c.ExcludedProducts)
	if err != nil {
		return fmt.Errorf("marshaling excluded products: %w", err)
	}

	var (
		maxDiscount sql.NullString
		usageLimit  sql.NullInt64
	)
	if c.MaxDiscountAmount != nil {
		maxDiscount = sql.NullString{String: c.MaxDiscountAmount.String(), Valid: true}
	}
	if c.UsageLimit != nil {
		usageLimit = sql.NullInt64{Int64: int64(*c.UsageLimit), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO coupons (`+couponColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Code, c.Name, c.Description, string(c.Kind), c.Value.String(),
		c.MinOrderAmount.String(), maxDiscount, c.ValidFrom, c.ValidUntil,
		usageLimit, c.UsedCount, string(categories), string(applicable), string(excluded),
		c.FirstTimeOnly, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return apperrors.NewConflictError(fmt.Sprintf("coupon code %s already exists", c.Code))
		}
		return fmt.Errorf("inserting coupon: %w", err)
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// FindByCode is case-insensitive: codes are stored upper-cased.
func (r *MySQLCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = ?`,
		strings.ToUpper(strings.TrimSpace(code)),
	)

	coupon, err := scanCoupon(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("coupon %s not found", code))
	}
	if err != nil {
		return nil, fmt.Errorf("querying coupon: %w", err)
	}
	return coupon, nil
}

func (r *MySQLCouponRepository) List(ctx context.Context) ([]domain.Coupon, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY createdAt DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	defer rows.Close()

	var coupons []domain.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	return coupons, rows.Err()
}

func (r *MySQLCouponRepository) SetActive(ctx context.Context, code string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE coupons SET isActive = ? WHERE code = ?`,
		active, strings.ToUpper(strings.TrimSpace(code)),
	)
	if err != nil {
		return fmt.Errorf("toggling coupon: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("coupon %s not found", code))
	}
	return nil
}

// ConsumeUsage is the atomic read-check-increment: the guard re-checks the
// usage limit in the same statement, so two near-simultaneous checkouts on a
// nearly exhausted coupon cannot both get through. Runs in the order-creation
// transaction, so a failed order insert rolls the consumption back too.
func (r *MySQLCouponRepository) ConsumeUsage(ctx context.Context, tx *sql.Tx, couponID string) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE coupons
		SET usedCount = usedCount + 1
		WHERE id = ? AND (usageLimit IS NULL OR usedCount < usageLimit)`,
		couponID,
	)
	if err != nil {
		return fmt.Errorf("consuming coupon usage: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewCouponRejectedError("", "Coupon usage limit exceeded")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (*domain.Coupon, error) {
	var (
		c                               domain.Coupon
		kind, value, minOrderAmount     string
		maxDiscount                     sql.NullString
		usageLimit                      sql.NullInt64
		categories, applicable, excluded string
	)

	err := row.Scan(
		&c.ID, &c.Code, &c.Name, &c.Description, &kind, &value, &minOrderAmount,
		&maxDiscount, &c.ValidFrom, &c.ValidUntil, &usageLimit, &c.UsedCount,
		&categories, &applicable, &excluded, &c.FirstTimeOnly, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Kind = domain.CouponKind(kind)
	if c.Value, err = decimal.NewFromString(value); err != nil {
		return nil, fmt.Errorf("parsing coupon value: %w", err)
	}
	if c.MinOrderAmount, err = decimal.NewFromString(minOrderAmount); err != nil {
		return nil, fmt.Errorf("parsing min order amount: %w", err)
	}
	if maxDiscount.Valid {
		d, err := decimal.NewFromString(maxDiscount.String)
		if err != nil {
			return nil, fmt.Errorf("parsing max discount: %w", err)
		}
		c.MaxDiscountAmount = &d
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		c.UsageLimit = &limit
	}

	if err := json.Unmarshal([]byte(categories), &c.ApplicableCategories); err != nil {
		return nil, fmt.Errorf("parsing categories: %w", err)
	}
	if err := json.Unmarshal([]byte(applicable), &c.ApplicableProducts); err != nil {
		return nil, fmt.Errorf("parsing applicable products: %w", err)
	}
	if err := json.Unmarshal([]byte(excluded), &c.ExcludedProducts); err != nil {
		return nil, fmt.Errorf("parsing excluded products: %w", err)
	}

	return &c, nil
}
