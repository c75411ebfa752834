package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
items:
  - kind: book
    id: B1
    title: Dune
    author: Frank Herbert
  - kind: album
    id: A1
    title: Kind of Blue
    artist: Miles Davis
  - kind: movie
    id: M1
    title: Ran
    director: Akira Kurosawa
patrons:
  - id: P1
    name: Alice
  - id: P2
    name: Bob
    pin: "1234"
`

func TestCatalogLoad(t *testing.T) {
	c, err := ReadCatalog(strings.NewReader(sampleCatalog))
	require.NoError(t, err)

	lib := New()
	require.NoError(t, c.Load(lib))

	items := lib.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "A1", items[0].ID())
	assert.Equal(t, KindAlbum, items[0].Kind())
	assert.Equal(t, "Miles Davis", items[0].Creator())
	assert.Equal(t, 7, lookupItem(t, lib, "M1").CheckOutLength())

	assert.False(t, lookupPatron(t, lib, "P1").HasPIN())
	assert.True(t, lookupPatron(t, lib, "P2").HasPIN())
	assert.NoError(t, lib.Authenticate("P2", "1234"))
}

func TestCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	c, err := ReadCatalogFile(path)
	require.NoError(t, err)
	assert.Len(t, c.Items, 3)
	assert.Len(t, c.Patrons, 2)

	_, err = ReadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCatalogEmpty(t *testing.T) {
	c, err := ReadCatalog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestCatalogInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown kind", "items:\n  - {kind: magazine, id: X1, title: Wired}\n"},
		{"missing id", "items:\n  - {kind: book, title: Dune, author: Frank Herbert}\n"},
		{"missing title", "items:\n  - {kind: book, id: B1}\n"},
		{"wrong creator field", "items:\n  - {kind: movie, id: M1, title: Ran, author: Akira Kurosawa}\n"},
		{"duplicate item", "items:\n  - {kind: book, id: B1, title: A}\n  - {kind: book, id: B1, title: B}\n"},
		{"duplicate patron", "patrons:\n  - {id: P1, name: A}\n  - {id: P1, name: B}\n"},
		{"missing patron id", "patrons:\n  - {name: A}\n"},
		{"unknown field", "items:\n  - {kind: book, id: B1, title: A, isbn: 123}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ReadCatalog(strings.NewReader(tt.yaml))
			if err != nil {
				return
			}
			assert.Error(t, c.Load(New()))
		})
	}
}
