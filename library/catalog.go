package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the seed file format: the holdings and members a simulation
// starts from.
type Catalog struct {
	Items   []CatalogItem   `yaml:"items"`
	Patrons []CatalogPatron `yaml:"patrons"`
}

// CatalogItem names the descriptive field after the kind: author for books,
// artist for albums, director for movies.
type CatalogItem struct {
	Kind     string `yaml:"kind"`
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Author   string `yaml:"author,omitempty"`
	Artist   string `yaml:"artist,omitempty"`
	Director string `yaml:"director,omitempty"`
}

type CatalogPatron struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	PIN  string `yaml:"pin,omitempty"`
}

// ReadCatalogFile parses the YAML catalog at path.
func ReadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCatalog(f)
}

// ReadCatalog parses a YAML catalog from r.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// Item builds the library item, checking that the descriptive field matches the kind.
func (ci CatalogItem) Item() (*Item, error) {
	kind, err := ParseKind(ci.Kind)
	if err != nil {
		return nil, fmt.Errorf("item %q: %w", ci.ID, err)
	}
	if strings.TrimSpace(ci.ID) == "" {
		return nil, fmt.Errorf("item %q: id is required", ci.Title)
	}
	if strings.TrimSpace(ci.Title) == "" {
		return nil, fmt.Errorf("item %q: title is required", ci.ID)
	}

	fields := map[Kind]string{KindBook: ci.Author, KindAlbum: ci.Artist, KindMovie: ci.Director}
	for k, v := range fields {
		if k != kind && v != "" {
			return nil, fmt.Errorf("item %q: a %s has no %s", ci.ID, kind, k.CreatorLabel())
		}
	}
	return NewItem(kind, ci.ID, ci.Title, fields[kind]), nil
}

// Load adds every catalog entry to lib, stopping at the first invalid or
// duplicate entry.
func (c *Catalog) Load(lib *Library) error {
	for _, ci := range c.Items {
		item, err := ci.Item()
		if err != nil {
			return err
		}
		if err := lib.AddItem(item); err != nil {
			return err
		}
	}
	for _, cp := range c.Patrons {
		if strings.TrimSpace(cp.ID) == "" {
			return fmt.Errorf("patron %q: id is required", cp.Name)
		}
		patron := NewPatron(cp.ID, cp.Name)
		if err := patron.SetPIN(cp.PIN); err != nil {
			return err
		}
		if err := lib.AddPatron(patron); err != nil {
			return err
		}
	}
	return nil
}
