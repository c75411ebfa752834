package library

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newManager(t *testing.T) *LibraryManager {
	t.Helper()
	mgr, err := NewLibraryManager(MemoryDSN, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestManagerLoadCatalogFile(t *testing.T) {
	mgr := newManager(t)
	require.NoError(t, mgr.LoadCatalogFile(filepath.Join("..", "testdata", "catalog.yaml")))

	assert.Len(t, mgr.GetAllItems(), 4)
	assert.Len(t, mgr.GetAllPatrons(), 3)
	assert.True(t, mgr.RequiresPIN("P3"))
	assert.False(t, mgr.RequiresPIN("P1"))
	assert.False(t, mgr.RequiresPIN("nobody"))

	// Loading the same catalog twice collides on ids.
	assert.ErrorIs(t, mgr.LoadCatalogFile(filepath.Join("..", "testdata", "catalog.yaml")), ErrDuplicateItem)
}

func TestManagerCirculationIsJournaledAndCounted(t *testing.T) {
	mgr := newManager(t)
	require.NoError(t, mgr.AddItem(KindMovie, "M1", "Ran", "Akira Kurosawa"))
	require.NoError(t, mgr.AddPatron("P1", "Alice", ""))
	require.NoError(t, mgr.AddPatron("P2", "Bob", "1234"))

	require.NoError(t, mgr.CheckOut("P1", "M1"))
	require.NoError(t, mgr.RequestHold("P2", "M1"))
	assert.Equal(t, 9, mgr.AdvanceDays(9))

	overdue := mgr.Overdue()
	require.Len(t, overdue, 1)
	assert.Equal(t, "M1", overdue[0].ID())

	returnedBy, err := mgr.ReturnItem("M1")
	require.NoError(t, err)
	assert.Equal(t, "P1", returnedBy)
	assert.Empty(t, mgr.Overdue())

	require.NoError(t, mgr.CancelHold("P2", "M1"))
	require.NoError(t, mgr.PayFine("P1", 20))

	p, err := mgr.GetPatron("P1")
	require.NoError(t, err)
	assert.Equal(t, Money(0), p.FineAmount())

	entries, err := mgr.History(HistoryFilter{ItemID: "M1"})
	require.NoError(t, err)
	assert.Len(t, entries, 2+2+2) // checkout, request, two fines, return, cancel

	lines, err := mgr.Stats()
	require.NoError(t, err)
	assert.Contains(t, lines, `library_fines_paid_cents_total 20`)
	assert.Contains(t, lines, `library_current_day 9`)

	assert.ErrorIs(t, mgr.Authenticate("P2", "0000"), ErrInvalidCredentials)
	assert.Equal(t, 9, mgr.Today())
}

func TestPrettyHelpers(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdefgh", 5))
	assert.Equal(t, "ab", Truncate("abcdefgh", 2))
	assert.Equal(t, "七人の", Truncate("七人の侍", 3))
	assert.Equal(t, "Amé...", Truncate("Amélie Poulain", 6))
	assert.Equal(t, "Amélie", Truncate("Amélie", 6))

	it := NewBook("B1", "Dune", "Frank Herbert")
	assert.Contains(t, PrettyItem(it), "ON_SHELF")
	p := NewPatron("P1", "Alice")
	assert.Contains(t, PrettyPatron(p), "0.00")
}
