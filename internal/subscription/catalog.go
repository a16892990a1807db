// Package subscription holds the read-only plan catalog consulted by the
// subscription ledger and the payment flow.  The catalog is built once at
// start-up, either from the built-in defaults or from a YAML file, and is
// then passed to the services that need it.
package subscription

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// TrialPlanID is the catalog id of the free trial granted on library creation.
const TrialPlanID = "trial"

// Plan describes one subscription offering.  Price is in paise.
type Plan struct {
	ID           string   `json:"id" mapstructure:"id"`
	Name         string   `json:"name" mapstructure:"name"`
	Price        int64    `json:"price" mapstructure:"price"`
	SeatLimit    int      `json:"seat_limit" mapstructure:"seat_limit"`
	DurationDays int      `json:"duration" mapstructure:"duration_days"`
	Features     []string `json:"features" mapstructure:"features"`
}

// IsTrial reports whether p is the free trial plan.
func (p Plan) IsTrial() bool { return p.ID == TrialPlanID }

// Catalog is an immutable lookup table of plans.
type Catalog struct {
	plans map[string]Plan
	order []string
}

var ErrUnknownPlan = errors.New("unknown plan")

// DefaultPlans mirrors the plans the platform launched with.
func DefaultPlans() []Plan {
	return []Plan{
		{
			ID: TrialPlanID, Name: "Free Trial", Price: 0, SeatLimit: 20, DurationDays: 90,
			Features: []string{"Time slot publishing", "Seat bookings", "Basic dashboard"},
		},
		{
			ID: "basic", Name: "Basic Plan", Price: 50000, SeatLimit: 20, DurationDays: 30,
			Features: []string{"Up to 20 seats", "Time slot publishing", "Booking history"},
		},
		{
			ID: "premium", Name: "Premium Plan", Price: 150000, SeatLimit: 100, DurationDays: 30,
			Features: []string{"Up to 100 seats", "Time slot publishing", "Booking history", "Priority listing"},
		},
	}
}

// NewCatalog validates plans and builds a Catalog.  A trial plan is
// required because every new library is granted one.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	c := &Catalog{plans: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		p.ID = strings.ToLower(strings.TrimSpace(p.ID))
		if p.ID == "" {
			return nil, errors.New("plan id is required")
		}
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %q", p.ID)
		}
		if p.DurationDays <= 0 {
			return nil, fmt.Errorf("plan %q: duration_days must be positive", p.ID)
		}
		if p.Price < 0 || (!p.IsTrial() && p.Price == 0) {
			return nil, fmt.Errorf("plan %q: invalid price %d", p.ID, p.Price)
		}
		if p.Features == nil {
			p.Features = []string{}
		}
		c.plans[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	if _, ok := c.plans[TrialPlanID]; !ok {
		return nil, errors.New("catalog must define a trial plan")
	}
	return c, nil
}

// MustDefault returns the built-in catalog.
func MustDefault() *Catalog {
	c, err := NewCatalog(DefaultPlans()...)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog from a YAML (or any viper supported) file with a
// top level `plans` list.  An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return NewCatalog(DefaultPlans()...)
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read plans file: %w", err)
	}
	var doc struct {
		Plans []Plan `mapstructure:"plans"`
	}
	if err := v.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("decode plans file: %w", err)
	}
	return NewCatalog(doc.Plans...)
}

// Get looks a plan up by id.
func (c *Catalog) Get(id string) (Plan, error) {
	p, ok := c.plans[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Plan{}, ErrUnknownPlan
	}
	return p, nil
}

// Trial returns the trial plan.
func (c *Catalog) Trial() Plan { return c.plans[TrialPlanID] }

// List returns plans ordered by price.  The trial is left out unless
// includeTrial is set.
func (c *Catalog) List(includeTrial bool) []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		p := c.plans[id]
		if p.IsTrial() && !includeTrial {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}
