package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/uninest/internal/model"
	"github.com/iliyamo/uninest/internal/queue"
	"github.com/iliyamo/uninest/internal/repository"
	"github.com/iliyamo/uninest/internal/subscription"
)

const day = 24 * time.Hour

// PaymentRef correlates a paid period with the gateway payment behind it.
type PaymentRef struct {
	OrderID   string
	PaymentID string
}

// CurrentSubscription is what a library owner sees about their access.
type CurrentSubscription struct {
	Subscription  model.SubscriptionPeriod `json:"subscription"`
	Plan          subscription.Plan        `json:"plan"`
	DaysRemaining int                      `json:"days_remaining"`
	IsTrial       bool                     `json:"is_trial"`
}

// PeriodView is a history entry.  EffectiveStatus reports expired for an
// active row whose end date has passed.
type PeriodView struct {
	model.SubscriptionPeriod
	EffectiveStatus model.SubscriptionStatus `json:"effective_status"`
	DaysRemaining   int                      `json:"days_remaining"`
}

// Ledger answers whether a library has subscription access and records
// new trial and paid periods.  It never mutates existing periods.
type Ledger struct {
	subs  SubscriptionStore
	plans *subscription.Catalog
	o     options
}

func NewLedger(subs SubscriptionStore, plans *subscription.Catalog, opts ...Option) *Ledger {
	return &Ledger{subs: subs, plans: plans, o: buildOptions(opts)}
}

// GrantTrial records the single free trial of a library.  A second grant
// fails with a Conflict and leaves the first trial untouched.
func (l *Ledger) GrantTrial(ctx context.Context, libraryID uint64) (*model.SubscriptionPeriod, error) {
	trial := l.plans.Trial()
	p, err := l.create(ctx, libraryID, trial, PaymentRef{})
	if errors.Is(err, repository.ErrConflict) {
		return nil, conflict("library %d already received its trial", libraryID)
	}
	if err != nil {
		return nil, fmt.Errorf("grant trial: %w", err)
	}
	return p, nil
}

// ActivatePaid starts a paid period of planID from now.  Periods that are
// still running are left alone.
func (l *Ledger) ActivatePaid(ctx context.Context, libraryID uint64, planID string, ref PaymentRef) (*model.SubscriptionPeriod, error) {
	plan, err := l.plans.Get(planID)
	if err != nil || plan.IsTrial() {
		return nil, invalid("plan %q cannot be purchased", planID)
	}
	p, err := l.create(ctx, libraryID, plan, ref)
	if errors.Is(err, repository.ErrConflict) {
		return nil, conflict("order %s already activated a subscription", ref.OrderID)
	}
	if err != nil {
		return nil, fmt.Errorf("activate paid: %w", err)
	}
	return p, nil
}

func (l *Ledger) create(ctx context.Context, libraryID uint64, plan subscription.Plan, ref PaymentRef) (*model.SubscriptionPeriod, error) {
	now := l.o.clock()
	p := &model.SubscriptionPeriod{
		LibraryID: libraryID,
		PlanID:    plan.ID,
		StartDate: now,
		EndDate:   now.Add(time.Duration(plan.DurationDays) * day),
		Status:    model.SubscriptionActive,
		IsTrial:   plan.IsTrial(),
		PaymentID: ref.PaymentID,
		OrderID:   ref.OrderID,
		CreatedAt: now,
	}
	if err := l.subs.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// announce reports a committed period to metrics and event subscribers.
// It must run after the surrounding transaction commits.
func (l *Ledger) announce(ctx context.Context, p *model.SubscriptionPeriod) {
	kind := "paid"
	if p.IsTrial {
		kind = "trial"
	}
	l.o.metrics.SubscriptionActivated(kind)
	l.o.log.Info("subscription period created", "library_id", p.LibraryID, "plan_id", p.PlanID, "subscription_id", p.ID, "end_date", p.EndDate)
	l.o.publish(ctx, queue.SubscriptionActivatedQueue, queue.SubscriptionActivatedEvent{
		SubscriptionID: p.ID,
		LibraryID:      p.LibraryID,
		PlanID:         p.PlanID,
		IsTrial:        p.IsTrial,
		OrderID:        p.OrderID,
		StartDate:      p.StartDate.Format(time.RFC3339),
		EndDate:        p.EndDate.Format(time.RFC3339),
	})
}

// IsActive reports whether any period of the library grants access now.
func (l *Ledger) IsActive(ctx context.Context, libraryID uint64) (bool, error) {
	active, err := l.active(ctx, libraryID, l.o.clock())
	if err != nil {
		return false, err
	}
	return len(active) > 0, nil
}

// GetCurrent returns the period shown to the owner, or nil when the
// library has no access.  With overlapping periods a paid one wins over
// the trial, then the one ending last, then the newest row.
func (l *Ledger) GetCurrent(ctx context.Context, libraryID uint64) (*CurrentSubscription, error) {
	now := l.o.clock()
	active, err := l.active(ctx, libraryID, now)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, nil
	}
	sort.Slice(active, func(i, j int) bool { return precedes(active[i], active[j]) })
	cur := active[0]

	plan, err := l.plans.Get(cur.PlanID)
	if err != nil {
		// plan retired from the catalog; show what the row knows
		plan = subscription.Plan{ID: cur.PlanID, Name: cur.PlanID, Features: []string{}}
	}
	return &CurrentSubscription{
		Subscription:  cur,
		Plan:          plan,
		DaysRemaining: DaysRemaining(cur.EndDate, now),
		IsTrial:       cur.IsTrial,
	}, nil
}

// History lists every period of the library, newest first.
func (l *Ledger) History(ctx context.Context, libraryID uint64) ([]PeriodView, error) {
	now := l.o.clock()
	rows, err := l.subs.ListByLibrary(ctx, libraryID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	out := make([]PeriodView, 0, len(rows))
	for _, p := range rows {
		p.EndDate = toUTC(p.EndDate)
		p.StartDate = toUTC(p.StartDate)
		v := PeriodView{SubscriptionPeriod: p, EffectiveStatus: p.Status}
		if p.Status == model.SubscriptionActive && !p.EndDate.After(now) {
			v.EffectiveStatus = model.SubscriptionExpired
		}
		if v.EffectiveStatus == model.SubscriptionActive {
			v.DaysRemaining = DaysRemaining(p.EndDate, now)
		}
		out = append(out, v)
	}
	return out, nil
}

func (l *Ledger) active(ctx context.Context, libraryID uint64, now time.Time) ([]model.SubscriptionPeriod, error) {
	rows, err := l.subs.ListActive(ctx, libraryID, now)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	out := rows[:0]
	for _, p := range rows {
		p.StartDate = toUTC(p.StartDate)
		p.EndDate = toUTC(p.EndDate)
		if p.ActiveAt(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func precedes(a, b model.SubscriptionPeriod) bool {
	if a.IsTrial != b.IsTrial {
		return !a.IsTrial
	}
	if !a.EndDate.Equal(b.EndDate) {
		return a.EndDate.After(b.EndDate)
	}
	return a.ID > b.ID
}

// DaysRemaining is the number of whole days left until end, never negative.
func DaysRemaining(end, now time.Time) int {
	d := toUTC(end).Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / day)
}

// toUTC normalizes t to UTC.  A value carrying the process local zone came
// from a zone-less source, so its wall clock is taken as UTC.
func toUTC(t time.Time) time.Time {
	if t.Location() == time.Local && time.Local != time.UTC {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	return t.UTC()
}
