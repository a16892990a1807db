package subscription

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := MustDefault()

	basic, err := c.Get("basic")
	require.NoError(t, err)
	assert.Equal(t, int64(50000), basic.Price)
	assert.Equal(t, 30, basic.DurationDays)

	assert.Equal(t, 90, c.Trial().DurationDays)
	assert.True(t, c.Trial().IsTrial())

	_, err = c.Get("gold")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestCatalogListOmitsTrial(t *testing.T) {
	c := MustDefault()

	paid := c.List(false)
	require.Len(t, paid, 2)
	assert.Equal(t, "basic", paid[0].ID)
	assert.Equal(t, "premium", paid[1].ID)

	all := c.List(true)
	require.Len(t, all, 3)
	assert.Equal(t, TrialPlanID, all[0].ID)
}

func TestNewCatalogRejectsBadPlans(t *testing.T) {
	_, err := NewCatalog(Plan{ID: "basic", Price: 100, DurationDays: 30})
	assert.Error(t, err, "missing trial")

	_, err = NewCatalog(
		Plan{ID: TrialPlanID, DurationDays: 90},
		Plan{ID: "basic", Price: 0, DurationDays: 30},
	)
	assert.Error(t, err, "free paid plan")

	_, err = NewCatalog(
		Plan{ID: TrialPlanID, DurationDays: 90},
		Plan{ID: "Trial", DurationDays: 90},
	)
	assert.Error(t, err, "duplicate id after normalization")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	body := `plans:
  - id: trial
    name: Trial
    price: 0
    seat_limit: 5
    duration_days: 14
  - id: pro
    name: Pro
    price: 99900
    seat_limit: 50
    duration_days: 30
    features: ["everything"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 14, c.Trial().DurationDays)

	pro, err := c.Get("PRO")
	require.NoError(t, err)
	assert.Equal(t, int64(99900), pro.Price)
	assert.Equal(t, []string{"everything"}, pro.Features)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	_, err = c.Get("premium")
	assert.NoError(t, err)
}
