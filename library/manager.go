package library

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// LibraryManager is a thin façade over the Library, its Journal and its
// Metrics, keeping CLI code simple.
type LibraryManager struct {
	lib     *Library
	journal *Journal
	metrics *Metrics
	log     *zap.Logger
}

// NewLibraryManager opens the journal at journalDSN and wires it, together
// with a fresh metrics registry, into an empty library.
func NewLibraryManager(journalDSN string, log *zap.Logger) (*LibraryManager, error) {
	journal, err := OpenJournal(journalDSN, log)
	if err != nil {
		return nil, err
	}
	metrics := NewMetrics()
	return &LibraryManager{
		lib:     New(WithObserver(journal, metrics)),
		journal: journal,
		metrics: metrics,
		log:     log,
	}, nil
}

// Close closes the underlying journal.
func (lm *LibraryManager) Close() error { return lm.journal.Close() }

// Library exposes the coordinator for callers that need the full surface.
func (lm *LibraryManager) Library() *Library { return lm.lib }

// ------------------ Catalog ------------------

// LoadCatalogFile reads a YAML catalog and adds its entries.
func (lm *LibraryManager) LoadCatalogFile(path string) error {
	c, err := ReadCatalogFile(path)
	if err != nil {
		return err
	}
	if err := c.Load(lm.lib); err != nil {
		return fmt.Errorf("load catalog %s: %w", path, err)
	}
	lm.log.Info("catalog loaded",
		zap.String("path", path),
		zap.Int("items", len(c.Items)),
		zap.Int("patrons", len(c.Patrons)))
	return nil
}

func (lm *LibraryManager) AddItem(kind Kind, id, title, creator string) error {
	return lm.lib.AddItem(NewItem(kind, id, title, creator))
}

func (lm *LibraryManager) AddPatron(id, name, pin string) error {
	p := NewPatron(id, name)
	if err := p.SetPIN(pin); err != nil {
		return err
	}
	return lm.lib.AddPatron(p)
}

// ------------------ Lookups ------------------

func (lm *LibraryManager) GetItem(id string) (*Item, error)     { return lm.lib.LookupItem(id) }
func (lm *LibraryManager) GetPatron(id string) (*Patron, error) { return lm.lib.LookupPatron(id) }
func (lm *LibraryManager) GetAllItems() []*Item                 { return lm.lib.Items() }
func (lm *LibraryManager) GetAllPatrons() []*Patron             { return lm.lib.Patrons() }
func (lm *LibraryManager) Today() int                           { return lm.lib.Today() }

func (lm *LibraryManager) RequiresPIN(patronID string) bool {
	p, err := lm.lib.LookupPatron(patronID)
	return err == nil && p.HasPIN()
}

func (lm *LibraryManager) Authenticate(patronID, pin string) error {
	return lm.lib.Authenticate(patronID, pin)
}

// ------------------ Circulation ------------------

func (lm *LibraryManager) CheckOut(patronID, itemID string) error {
	return lm.lib.CheckOut(patronID, itemID)
}

// ReturnItem returns the item and yields the patron who had it.
func (lm *LibraryManager) ReturnItem(itemID string) (string, error) {
	return lm.lib.ReturnItem(itemID)
}

func (lm *LibraryManager) RequestHold(patronID, itemID string) error {
	return lm.lib.RequestHold(patronID, itemID)
}

func (lm *LibraryManager) CancelHold(patronID, itemID string) error {
	return lm.lib.CancelHold(patronID, itemID)
}

func (lm *LibraryManager) PayFine(patronID string, amount Money) error {
	return lm.lib.PayFine(patronID, amount)
}

// AdvanceDays moves the clock and returns the new date.
func (lm *LibraryManager) AdvanceDays(n int) int {
	day := lm.lib.AdvanceDays(n)
	lm.log.Debug("clock advanced", zap.Int("days", n), zap.Int("today", day))
	return day
}

// ------------------ Reporting ------------------

func (lm *LibraryManager) History(f HistoryFilter) ([]Entry, error) { return lm.journal.History(f) }

func (lm *LibraryManager) Stats() ([]string, error) { return lm.metrics.Summary() }

// Overdue returns the items currently kept past their loan length.
func (lm *LibraryManager) Overdue() []*Item {
	today := lm.lib.Today()
	var overdue []*Item
	for _, it := range lm.lib.Items() {
		if it.Location() == CheckedOut && today > it.Due() {
			overdue = append(overdue, it)
		}
	}
	return overdue
}

// ------------------ Utilities ------------------

// PrettyItem formats an item for lists.
func PrettyItem(it *Item) string {
	holder, _ := it.CheckedOutBy()
	requester, _ := it.RequestedBy()
	return fmt.Sprintf("%-8s %-6s %-30s %-25s %-14s %-8s %-8s",
		it.ID(), it.Kind(), Truncate(it.Title(), 30), Truncate(it.Creator(), 25), it.Location(), dash(holder), dash(requester))
}

// PrettyPatron formats a patron for lists.
func PrettyPatron(p *Patron) string {
	return fmt.Sprintf("%-8s %-25s %8s %s", p.ID(), Truncate(p.Name(), 25), p.FineAmount(), dash(strings.Join(p.CheckedOutItems(), ",")))
}

// Truncate shortens s to maxLength, marking the cut with "...".
func Truncate(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
