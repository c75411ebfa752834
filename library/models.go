package library

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Location is where an item currently sits in the circulation cycle.
type Location string

const (
	OnShelf     Location = "ON_SHELF"
	CheckedOut  Location = "CHECKED_OUT"
	OnHoldShelf Location = "ON_HOLD_SHELF"
)

// Kind selects the item variant. It fixes the loan length and the name of the
// descriptive field.
type Kind string

const (
	KindBook  Kind = "book"
	KindAlbum Kind = "album"
	KindMovie Kind = "movie"
)

// ParseKind accepts the lower-case variant name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindBook, KindAlbum, KindMovie:
		return k, nil
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

// CheckOutLength is the number of days the variant may be out before it is overdue.
func (k Kind) CheckOutLength() int {
	switch k {
	case KindBook:
		return 21
	case KindAlbum:
		return 14
	case KindMovie:
		return 7
	}
	return 0
}

// CreatorLabel names the descriptive field: author, artist or director.
func (k Kind) CreatorLabel() string {
	switch k {
	case KindBook:
		return "author"
	case KindAlbum:
		return "artist"
	case KindMovie:
		return "director"
	}
	return "creator"
}

// Money is an amount in cents.
type Money int64

// DailyOverdueFine is charged once per overdue item per advanced day.
const DailyOverdueFine Money = 10

// ParseMoney reads amounts like "5", "-5", "0.1" or "2.25".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("invalid amount %q: at most two decimal places", s)
	}
	if d.Exponent() > 0 {
		return 0, fmt.Errorf("invalid amount %q: exponents are not supported", s)
	}

	cents := d.Shift(2)
	if cents.Abs().GreaterThan(maxCents) {
		return 0, fmt.Errorf("invalid amount %q: out of range", s)
	}
	return Money(cents.IntPart()), nil
}

var maxCents = decimal.NewFromInt(math.MaxInt64)

func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, m/100, m%100)
}

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// Item is a circulating library item. Back-references to patrons are held as
// patron ids and resolved through the owning Library.
type Item struct {
	id      string
	title   string
	kind    Kind
	creator string

	location       Location
	checkedOutBy   string
	requestedBy    string
	dateCheckedOut int
}

// NewItem creates an item of the given kind, initially on the shelf.
func NewItem(kind Kind, id, title, creator string) *Item {
	return &Item{
		id:       id,
		title:    title,
		kind:     kind,
		creator:  creator,
		location: OnShelf,
	}
}

func NewBook(id, title, author string) *Item { return NewItem(KindBook, id, title, author) }

func NewAlbum(id, title, artist string) *Item { return NewItem(KindAlbum, id, title, artist) }

func NewMovie(id, title, director string) *Item { return NewItem(KindMovie, id, title, director) }

func (it *Item) ID() string          { return it.id }
func (it *Item) Title() string       { return it.title }
func (it *Item) Kind() Kind          { return it.kind }
func (it *Item) Creator() string     { return it.creator }
func (it *Item) Location() Location  { return it.location }
func (it *Item) DateCheckedOut() int { return it.dateCheckedOut }
func (it *Item) CheckOutLength() int { return it.kind.CheckOutLength() }

// CheckedOutBy returns the id of the patron holding the item, if any.
func (it *Item) CheckedOutBy() (string, bool) { return it.checkedOutBy, it.checkedOutBy != "" }

// RequestedBy returns the id of the patron with an active hold, if any.
func (it *Item) RequestedBy() (string, bool) { return it.requestedBy, it.requestedBy != "" }

// Due is the last day the item can be kept without accruing a fine.
func (it *Item) Due() int { return it.dateCheckedOut + it.CheckOutLength() }

func (it *Item) setLocation(loc Location)  { it.location = loc }
func (it *Item) setCheckedOutBy(id string) { it.checkedOutBy = id }
func (it *Item) setRequestedBy(id string)  { it.requestedBy = id }
func (it *Item) setDateCheckedOut(day int) { it.dateCheckedOut = day }

func (it *Item) clone() *Item {
	c := *it
	return &c
}
