package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatronItems(t *testing.T) {
	p := NewPatron("P1", "Alice")
	b := NewBook("B1", "Dune", "Frank Herbert")

	p.AddItem(b)
	p.AddItem(b)
	p.AddItem(NewMovie("M1", "Ran", "Akira Kurosawa"))
	assert.Equal(t, []string{"B1", "M1"}, p.CheckedOutItems())

	assert.True(t, p.RemoveItem("B1"))
	assert.False(t, p.RemoveItem("B1"))
	assert.False(t, p.HasItem("B1"))
	assert.True(t, p.HasItem("M1"))
}

func TestPatronAmendFine(t *testing.T) {
	p := NewPatron("P1", "Alice")
	p.AmendFine(DailyOverdueFine)
	p.AmendFine(DailyOverdueFine)
	assert.Equal(t, Money(20), p.FineAmount())

	// No lower bound.
	p.AmendFine(-100)
	assert.Equal(t, Money(-80), p.FineAmount())
}

func TestPatronPIN(t *testing.T) {
	p := NewPatron("P1", "Alice")
	assert.False(t, p.HasPIN())
	assert.NoError(t, p.CheckPIN("anything"))

	require.NoError(t, p.SetPIN("1234"))
	assert.True(t, p.HasPIN())
	assert.NoError(t, p.CheckPIN("1234"))
	assert.ErrorIs(t, p.CheckPIN("0000"), ErrInvalidCredentials)

	require.NoError(t, p.SetPIN(""))
	assert.False(t, p.HasPIN())
}

func TestLibraryAuthenticate(t *testing.T) {
	lib := New()
	p := NewPatron("P1", "Alice")
	require.NoError(t, p.SetPIN("1234"))
	require.NoError(t, lib.AddPatron(p))

	assert.NoError(t, lib.Authenticate("P1", "1234"))
	assert.ErrorIs(t, lib.Authenticate("P1", "9999"), ErrInvalidCredentials)
	assert.ErrorIs(t, lib.Authenticate("P9", "1234"), ErrPatronNotFound)
}
