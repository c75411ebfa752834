package library

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func tempJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal(MemoryDSN, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalRecordsCirculation(t *testing.T) {
	j := tempJournal(t)
	lib := newTestLibrary(t, WithObserver(j))

	require.NoError(t, lib.CheckOut("P1", "B1"))
	require.NoError(t, lib.RequestHold("P2", "B1"))
	assert.ErrorIs(t, lib.CheckOut("P2", "B1"), ErrAlreadyCheckedOut)
	_, err := lib.ReturnItem("B1")
	require.NoError(t, err)

	entries, err := j.History(HistoryFilter{ItemID: "B1"})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Newest first.
	assert.Equal(t, OpReturn, entries[0].Op)
	assert.Equal(t, "P1", entries[0].PatronID)
	assert.True(t, entries[0].OK())
	assert.Equal(t, string(OnHoldShelf), entries[0].Detail())

	assert.Equal(t, OpCheckOut, entries[1].Op)
	assert.False(t, entries[1].OK())
	assert.Contains(t, entries[1].Detail(), "item already checked out")

	assert.Equal(t, OpCheckOut, entries[3].Op)
	assert.Equal(t, string(CheckedOut), entries[3].Detail())
	assert.NotEmpty(t, entries[3].EventID)
	assert.NotEqual(t, entries[3].EventID, entries[2].EventID)
}

func TestJournalHistoryFilters(t *testing.T) {
	j := tempJournal(t)
	lib := newTestLibrary(t, WithObserver(j))

	require.NoError(t, lib.CheckOut("P1", "M1"))
	require.NoError(t, lib.CheckOut("P2", "A1"))
	lib.AdvanceDays(9)
	require.NoError(t, lib.PayFine("P1", -20))

	all, err := j.History(HistoryFilter{})
	require.NoError(t, err)
	// 2 checkouts, 9 advances, fines on days 8 and 9, 1 payment.
	assert.Len(t, all, 2+9+2+1)

	n, err := j.Count()
	require.NoError(t, err)
	assert.Equal(t, len(all), n)

	p1, err := j.History(HistoryFilter{PatronID: "P1"})
	require.NoError(t, err)
	require.Len(t, p1, 4)
	assert.Equal(t, OpPayFine, p1[0].Op)
	assert.Equal(t, Money(20), p1[0].Amount)
	assert.Equal(t, OpFineAccrued, p1[1].Op)
	assert.Equal(t, 9, p1[1].Day)
	assert.Equal(t, DailyOverdueFine, p1[1].Amount)

	limited, err := j.History(HistoryFilter{PatronID: "P1", ItemID: "M1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, OpFineAccrued, limited[0].Op)

	none, err := j.History(HistoryFilter{PatronID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestJournalFileReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "journal.db")

	j, err := OpenJournal(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, j.Record(Event{Op: OpAdvanceDay, Day: 1}))
	require.NoError(t, j.Close())

	j, err = OpenJournal(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	n, err := j.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
