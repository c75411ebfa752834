package library

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Library owns every item and patron and enforces the circulation rules.
// All methods are safe for concurrent use; one mutex serializes them.
type Library struct {
	mu sync.Mutex

	holdings    map[string]*Item
	members     map[string]*Patron
	currentDate int

	observers []Observer
}

// Option configures a Library.
type Option func(*Library)

// WithObserver registers observers that receive every circulation event.
func WithObserver(obs ...Observer) Option {
	return func(l *Library) { l.observers = append(l.observers, obs...) }
}

// New returns an empty library on day 0.
func New(opts ...Option) *Library {
	l := &Library{
		holdings: make(map[string]*Item),
		members:  make(map[string]*Patron),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ---------------------------------------------------------------------------
// Catalog setup
// ---------------------------------------------------------------------------

// AddItem adds a new item to the holdings. The library takes ownership of it.
func (l *Library) AddItem(item *Item) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.TrimSpace(item.ID()) == "" {
		return fmt.Errorf("%w: item %q", ErrBlankID, item.Title())
	}
	if _, exists := l.holdings[item.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateItem, item.ID())
	}
	l.holdings[item.ID()] = item
	return nil
}

// AddPatron registers a new member. The library takes ownership of it.
func (l *Library) AddPatron(patron *Patron) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.TrimSpace(patron.ID()) == "" {
		return fmt.Errorf("%w: patron %q", ErrBlankID, patron.Name())
	}
	if _, exists := l.members[patron.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePatron, patron.ID())
	}
	l.members[patron.ID()] = patron
	return nil
}

// ---------------------------------------------------------------------------
// Lookups
// ---------------------------------------------------------------------------

// LookupItem returns a snapshot of the item.
func (l *Library) LookupItem(id string) (*Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, err := l.item(id)
	if err != nil {
		return nil, err
	}
	return item.clone(), nil
}

// LookupPatron returns a snapshot of the patron.
func (l *Library) LookupPatron(id string) (*Patron, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	patron, err := l.patron(id)
	if err != nil {
		return nil, err
	}
	return patron.clone(), nil
}

// Items returns snapshots of all holdings ordered by id.
func (l *Library) Items() []*Item {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := make([]*Item, 0, len(l.holdings))
	for _, id := range sortedKeys(l.holdings) {
		items = append(items, l.holdings[id].clone())
	}
	return items
}

// Patrons returns snapshots of all members ordered by id.
func (l *Library) Patrons() []*Patron {
	l.mu.Lock()
	defer l.mu.Unlock()

	patrons := make([]*Patron, 0, len(l.members))
	for _, id := range sortedKeys(l.members) {
		patrons = append(patrons, l.members[id].clone())
	}
	return patrons
}

// Today returns the current simulated day.
func (l *Library) Today() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentDate
}

// Authenticate checks the patron's PIN.
func (l *Library) Authenticate(patronID, pin string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	patron, err := l.patron(patronID)
	if err != nil {
		return err
	}
	return patron.CheckPIN(pin)
}

// ---------------------------------------------------------------------------
// Circulation
// ---------------------------------------------------------------------------

// CheckOut lends the item to the patron. An item on the hold shelf can only be
// checked out by the patron who requested it, which also clears the hold.
func (l *Library) CheckOut(patronID, itemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := Event{Op: OpCheckOut, Day: l.currentDate, PatronID: patronID, ItemID: itemID}
	ev.Err = l.checkOut(patronID, itemID)
	l.emit(ev)
	return ev.Err
}

func (l *Library) checkOut(patronID, itemID string) error {
	patron, err := l.patron(patronID)
	if err != nil {
		return err
	}
	item, err := l.item(itemID)
	if err != nil {
		return err
	}

	switch item.Location() {
	case CheckedOut:
		return fmt.Errorf("%w: %s", ErrAlreadyCheckedOut, itemID)
	case OnHoldShelf:
		if requester, _ := item.RequestedBy(); requester != patronID {
			return fmt.Errorf("%w: %s", ErrHeldByOther, itemID)
		}
		item.setRequestedBy("")
	}

	item.setCheckedOutBy(patronID)
	item.setDateCheckedOut(l.currentDate)
	item.setLocation(CheckedOut)
	patron.AddItem(item)
	return nil
}

// ReturnItem brings a checked-out item back. It goes to the hold shelf when a
// patron has requested it, otherwise back on the shelf. The id of the patron
// who had the item is returned.
func (l *Library) ReturnItem(itemID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := Event{Op: OpReturn, Day: l.currentDate, ItemID: itemID}
	ev.PatronID, ev.Err = l.returnItem(itemID)
	l.emit(ev)
	return ev.PatronID, ev.Err
}

func (l *Library) returnItem(itemID string) (string, error) {
	item, err := l.item(itemID)
	if err != nil {
		return "", err
	}
	// An item waiting on the hold shelf is already in the library.
	if item.Location() != CheckedOut {
		return "", fmt.Errorf("%w: %s", ErrAlreadyOnShelf, itemID)
	}

	holderID, _ := item.CheckedOutBy()
	if holder, ok := l.members[holderID]; ok {
		holder.RemoveItem(itemID)
	}

	if _, requested := item.RequestedBy(); requested {
		item.setLocation(OnHoldShelf)
	} else {
		item.setLocation(OnShelf)
	}
	item.setCheckedOutBy("")
	return holderID, nil
}

// RequestHold places a hold for the patron. An item on the shelf moves to the
// hold shelf at once; a checked-out item keeps its location until returned.
func (l *Library) RequestHold(patronID, itemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := Event{Op: OpRequestHold, Day: l.currentDate, PatronID: patronID, ItemID: itemID}
	ev.Err = l.requestHold(patronID, itemID)
	l.emit(ev)
	return ev.Err
}

func (l *Library) requestHold(patronID, itemID string) error {
	if _, err := l.patron(patronID); err != nil {
		return err
	}
	item, err := l.item(itemID)
	if err != nil {
		return err
	}
	if _, requested := item.RequestedBy(); requested {
		return fmt.Errorf("%w: %s", ErrAlreadyRequested, itemID)
	}

	item.setRequestedBy(patronID)
	if item.Location() == OnShelf {
		item.setLocation(OnHoldShelf)
	}
	return nil
}

// CancelHold withdraws the patron's hold on the item. An item waiting on the
// hold shelf goes back on the shelf.
func (l *Library) CancelHold(patronID, itemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := Event{Op: OpCancelHold, Day: l.currentDate, PatronID: patronID, ItemID: itemID}
	ev.Err = l.cancelHold(patronID, itemID)
	l.emit(ev)
	return ev.Err
}

func (l *Library) cancelHold(patronID, itemID string) error {
	if _, err := l.patron(patronID); err != nil {
		return err
	}
	item, err := l.item(itemID)
	if err != nil {
		return err
	}
	if requester, _ := item.RequestedBy(); requester != patronID {
		return fmt.Errorf("%w: patron %s on item %s", ErrNoActiveHold, patronID, itemID)
	}

	item.setRequestedBy("")
	if item.Location() == OnHoldShelf {
		item.setLocation(OnShelf)
	}
	return nil
}

// PayFine reduces the patron's fine by the magnitude of amount, so a payment
// never increases the balance.
func (l *Library) PayFine(patronID string, amount Money) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := Event{Op: OpPayFine, Day: l.currentDate, PatronID: patronID, Amount: amount.Abs()}
	patron, err := l.patron(patronID)
	if err == nil {
		patron.AmendFine(-amount.Abs())
	}
	ev.Err = err
	l.emit(ev)
	return err
}

// AdvanceDay moves the clock forward one day and charges DailyOverdueFine for
// every item kept past its loan length. It returns the new date.
func (l *Library) AdvanceDay() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.advanceDay()
}

// AdvanceDays advances the clock n days, one day at a time.
func (l *Library) AdvanceDays(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 0; i < n; i++ {
		l.advanceDay()
	}
	return l.currentDate
}

func (l *Library) advanceDay() int {
	l.currentDate++
	l.emit(Event{Op: OpAdvanceDay, Day: l.currentDate})

	for _, patronID := range sortedKeys(l.members) {
		patron := l.members[patronID]
		for _, itemID := range patron.CheckedOutItems() {
			item, ok := l.holdings[itemID]
			if !ok {
				continue
			}
			daysOut := l.currentDate - item.DateCheckedOut()
			if daysOut > item.CheckOutLength() {
				patron.AmendFine(DailyOverdueFine)
				l.emit(Event{
					Op:       OpFineAccrued,
					Day:      l.currentDate,
					PatronID: patronID,
					ItemID:   itemID,
					Amount:   DailyOverdueFine,
					Location: item.Location(),
				})
			}
		}
	}
	return l.currentDate
}

// ---------------------------------------------------------------------------
// Helpers (callers hold l.mu)
// ---------------------------------------------------------------------------

func (l *Library) item(id string) (*Item, error) {
	item, ok := l.holdings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item, nil
}

func (l *Library) patron(id string) (*Patron, error) {
	patron, ok := l.members[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPatronNotFound, id)
	}
	return patron, nil
}

func (l *Library) emit(ev Event) {
	if ev.Err == nil && ev.ItemID != "" && ev.Location == "" {
		if item, ok := l.holdings[ev.ItemID]; ok {
			ev.Location = item.Location()
		}
	}
	for _, obs := range l.observers {
		obs.Observe(ev)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
