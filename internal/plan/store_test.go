package plan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/leave-planner/internal/calendar"
	"go.uber.org/zap"
)

func sampleState(t *testing.T) *State {
	t.Helper()

	return &State{
		Items: []SavedOpportunity{
			{Opportunity: period(t, 5, 9), ID: "a", AddedAt: fixedNow},
			{Opportunity: period(t, 12, 16), ID: "b", AddedAt: fixedNow, IsCustom: true, Label: "Ski trip"},
		},
		Entitlement: 23,
		CustomHolidays: []calendar.CustomHolidaySpec{
			{Name: "Saint George", LocalizedName: "Αγίου Γεωργίου", Kind: calendar.KindConditional, Date: "04-23"},
			{Name: "Lazarus Saturday", Kind: calendar.KindMovable, Offset: "-7"},
		},
		Preferences: Preferences{IncludeHolySpirit: true, ParentMode: true, Language: "el"},
		SavedAt:     fixedNow,
	}
}

// storeContract runs the same round trip against every Store implementation
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNoState)

	want := sampleState(t)
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, want.Entitlement, got.Entitlement)
	assert.Equal(t, want.Preferences, got.Preferences)
	assert.Equal(t, want.CustomHolidays, got.CustomHolidays)
	assert.True(t, want.SavedAt.Equal(got.SavedAt))

	require.Len(t, got.Items, 2)
	for i := range want.Items {
		w, g := want.Items[i], got.Items[i]
		assert.Equal(t, w.ID, g.ID)
		assert.True(t, w.Range.Equal(g.Range))
		assert.True(t, w.AddedAt.Equal(g.AddedAt))
		assert.Equal(t, w.IsCustom, g.IsCustom)
		assert.Equal(t, w.Label, g.Label)
		assert.Equal(t, w.TotalDays, g.TotalDays)
		assert.Equal(t, w.LeaveDaysRequired, g.LeaveDaysRequired)
		assert.Equal(t, w.FreeDays, g.FreeDays)
		assert.InDelta(t, w.Efficiency, g.Efficiency, 1e-9)
		assert.Equal(t, w.EfficiencyLabel, g.EfficiencyLabel)
		assert.Equal(t, w.Days, g.Days)
	}

	// Saving again replaces everything
	want.Items = want.Items[:1]
	want.CustomHolidays = nil
	require.NoError(t, store.Save(ctx, want))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Empty(t, got.CustomHolidays)
}

func TestJSONStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "plan.json")
	storeContract(t, NewJSONStore(path, zap.NewNop()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestJSONStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewJSONStore(path, zap.NewNop()).Load(context.Background())
	assert.ErrorContains(t, err, "failed to parse state file")
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLiteStore(context.Background(), ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	storeContract(t, store)
}

func TestSQLiteStore_ReopenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "plan.db")

	store, err := OpenSQLiteStore(ctx, path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sampleState(t)))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteStore(ctx, path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	count, err := reopened.migrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "migrations are applied once")

	state, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, state.Items, 2)
	assert.Equal(t, 23, state.Entitlement)
}

func TestManagerWithSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteStore(ctx, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := newTestManager(t, store)
	_, err = m.AddCustomPeriod(period(t, 19, 30), "  ")
	require.NoError(t, err)
	require.NoError(t, m.Save(ctx))

	restored := newTestManager(t, store)
	require.NoError(t, restored.Load(ctx))

	items := restored.Items()
	require.Len(t, items, 1)
	assert.True(t, items[0].IsCustom)
	assert.Equal(t, "", items[0].Label)
	assert.Equal(t, 10, restored.TotalLeaveDays())
	assert.Equal(t, 15, restored.RemainingLeaveDays())
}
