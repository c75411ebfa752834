package library

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/crypto/bcrypt"
)

// Patron is a registered member. checkedOut holds the ids of items currently
// checked out by this patron; the items themselves are owned by the Library.
type Patron struct {
	id         string
	name       string
	checkedOut map[string]struct{}
	fine       Money
	pinHash    []byte
}

func NewPatron(id, name string) *Patron {
	return &Patron{
		id:         id,
		name:       name,
		checkedOut: make(map[string]struct{}),
	}
}

func (p *Patron) ID() string        { return p.id }
func (p *Patron) Name() string      { return p.name }
func (p *Patron) FineAmount() Money { return p.fine }
func (p *Patron) HasPIN() bool      { return len(p.pinHash) > 0 }

// CheckedOutItems returns the ids of the patron's items in sorted order.
func (p *Patron) CheckedOutItems() []string {
	ids := make([]string, 0, len(p.checkedOut))
	for id := range p.checkedOut {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasItem reports whether the item is in the patron's checked-out set.
func (p *Patron) HasItem(itemID string) bool {
	_, ok := p.checkedOut[itemID]
	return ok
}

// AddItem registers the item as checked out by p. Adding an id twice is harmless.
func (p *Patron) AddItem(item *Item) {
	p.checkedOut[item.ID()] = struct{}{}
}

// RemoveItem drops the item from the checked-out set. It is a no-op returning
// false when the id is not present.
func (p *Patron) RemoveItem(itemID string) bool {
	if _, ok := p.checkedOut[itemID]; !ok {
		return false
	}
	delete(p.checkedOut, itemID)
	return true
}

// AmendFine adds delta to the fine balance. No lower bound is applied.
func (p *Patron) AmendFine(delta Money) {
	p.fine += delta
}

// SetPIN stores a bcrypt hash of pin. An empty pin clears it.
func (p *Patron) SetPIN(pin string) error {
	if pin == "" {
		p.pinHash = nil
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash PIN: %w", err)
	}
	p.pinHash = hash
	return nil
}

// CheckPIN verifies pin. A patron without a PIN accepts anything.
func (p *Patron) CheckPIN(pin string) error {
	if !p.HasPIN() {
		return nil
	}
	err := bcrypt.CompareHashAndPassword(p.pinHash, []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%w for patron %s", ErrInvalidCredentials, p.id)
	}
	return err
}

func (p *Patron) clone() *Patron {
	c := *p
	c.checkedOut = make(map[string]struct{}, len(p.checkedOut))
	for id := range p.checkedOut {
		c.checkedOut[id] = struct{}{}
	}
	return &c
}
