package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/uninest/internal/model"
)

// PaymentOrderRepo stores gateway orders.  The created -> completed
// transition in MarkCompleted is what makes payment confirmation
// idempotent.
type PaymentOrderRepo struct {
	db *sql.DB
}

func NewPaymentOrderRepo(db *sql.DB) *PaymentOrderRepo { return &PaymentOrderRepo{db: db} }

// Create inserts o.  A duplicate gateway order id yields ErrConflict.
func (r *PaymentOrderRepo) Create(ctx context.Context, o *model.PaymentOrder) error {
	const q = `INSERT INTO payment_orders (order_id, library_id, user_id, plan_id, amount, currency, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		o.OrderID, o.LibraryID, o.UserID, o.PlanID, o.Amount, o.Currency, string(o.Status), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isDuplicate(err, "") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// GetByOrderID fetches an order by its gateway id.
func (r *PaymentOrderRepo) GetByOrderID(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	const q = `SELECT id, order_id, library_id, user_id, plan_id, amount, currency, status, payment_id, created_at, updated_at
	FROM payment_orders WHERE order_id = ?`
	var (
		o         model.PaymentOrder
		status    string
		paymentID sql.NullString
	)
	err := conn(ctx, r.db).QueryRowContext(ctx, q, orderID).Scan(
		&o.ID, &o.OrderID, &o.LibraryID, &o.UserID, &o.PlanID, &o.Amount, &o.Currency, &status, &paymentID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = model.PaymentOrderStatus(status)
	o.PaymentID = paymentID.String
	return &o, nil
}

// MarkCompleted moves an order from created to completed.  It reports
// false when the order had already been completed, so exactly one caller
// gets to apply the payment.
func (r *PaymentOrderRepo) MarkCompleted(ctx context.Context, orderID, paymentID string, at time.Time) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE payment_orders SET status = 'completed', payment_id = ?, updated_at = ? WHERE order_id = ? AND status = 'created'",
		paymentID, at, orderID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
