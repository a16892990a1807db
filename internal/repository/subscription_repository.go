package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/uninest/internal/model"
)

// SubscriptionRepo stores subscription periods in library_subscriptions.
// Rows are append only; a library's state is derived from all of them.
type SubscriptionRepo struct {
	db *sql.DB
}

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

const periodColumns = "id, library_id, plan_id, start_date, end_date, status, is_trial, payment_id, order_id, created_at"

// Create inserts p and fills in its ID.  A second trial for a library, or a
// second period for the same gateway order, yields ErrConflict.
func (r *SubscriptionRepo) Create(ctx context.Context, p *model.SubscriptionPeriod) error {
	const q = `INSERT INTO library_subscriptions (library_id, plan_id, start_date, end_date, status, is_trial, payment_id, order_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		p.LibraryID, p.PlanID, p.StartDate.UTC(), p.EndDate.UTC(), string(p.Status), p.IsTrial,
		nullString(p.PaymentID), nullString(p.OrderID), p.CreatedAt.UTC())
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
	p.ID = uint64(id)
	return nil
}

// ListActive returns the periods that grant access at now.
func (r *SubscriptionRepo) ListActive(ctx context.Context, libraryID uint64, now time.Time) ([]model.SubscriptionPeriod, error) {
	return r.list(ctx,
		"SELECT "+periodColumns+" FROM library_subscriptions WHERE library_id = ? AND status = 'active' AND end_date > ? ORDER BY id",
		libraryID, now.UTC())
}

// ListByLibrary returns every period of a library, newest first.
func (r *SubscriptionRepo) ListByLibrary(ctx context.Context, libraryID uint64) ([]model.SubscriptionPeriod, error) {
	return r.list(ctx,
		"SELECT "+periodColumns+" FROM library_subscriptions WHERE library_id = ? ORDER BY start_date DESC, id DESC",
		libraryID)
}

// GetByOrderID returns the period activated by a gateway order.
func (r *SubscriptionRepo) GetByOrderID(ctx context.Context, orderID string) (*model.SubscriptionPeriod, error) {
	rows, err := r.list(ctx, "SELECT "+periodColumns+" FROM library_subscriptions WHERE order_id = ? LIMIT 1", orderID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (r *SubscriptionRepo) list(ctx context.Context, q string, args ...any) ([]model.SubscriptionPeriod, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SubscriptionPeriod{}
	for rows.Next() {
		var (
			p                  model.SubscriptionPeriod
			status             string
			paymentID, orderID sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.LibraryID, &p.PlanID, &p.StartDate, &p.EndDate, &status, &p.IsTrial, &paymentID, &orderID, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Status = model.SubscriptionStatus(status)
		p.PaymentID = paymentID.String
		p.OrderID = orderID.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
