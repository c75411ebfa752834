package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"library-circulation/library"
)

// errUsage marks a line that could not be parsed as a command.
var errUsage = errors.New("usage")

// maxAdvanceDays bounds one advance command to ten years of simulated days.
const maxAdvanceDays = 3650

type shell struct {
	mgr *library.LibraryManager
	out io.Writer
	log *zap.Logger

	// readPIN prompts for a PIN; nil when there is no terminal to ask.
	readPIN func(prompt string) (string, error)
}

func newShell(mgr *library.LibraryManager, out io.Writer, log *zap.Logger) *shell {
	return &shell{mgr: mgr, out: out, log: log}
}

// run executes one command per line from r. With strict set, the first line
// that fails to parse aborts the run; circulation errors never do.
func (s *shell) run(r io.Reader, prompt, strict bool) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for {
		if prompt {
			fmt.Fprint(s.out, "\n> ")
		}
		if !scanner.Scan() {
			break
		}
		lineNo++

		quit, err := s.exec(scanner.Text())
		if err != nil {
			if strict {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			fmt.Fprintln(s.out, err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// exec runs a single command line. Errors returned are parse errors only.
func (s *shell) exec(line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}
	args, err := splitArgs(line)
	if err != nil {
		return false, err
	}

	cmd, args := strings.ToLower(args[0]), args[1:]
	s.log.Debug("command", zap.String("cmd", cmd), zap.Strings("args", args))

	switch cmd {
	case "add":
		return false, s.handleAdd(args)
	case "checkout":
		return false, s.handleCheckout(args)
	case "return":
		return false, s.handleReturn(args)
	case "request", "hold":
		return false, s.handleRequest(args)
	case "cancel":
		return false, s.handleCancel(args)
	case "pay":
		return false, s.handlePay(args)
	case "advance":
		return false, s.handleAdvance(args)
	case "day":
		fmt.Fprintf(s.out, "Day %d\n", s.mgr.Today())
		return false, nil
	case "item":
		return false, s.handleItem(args)
	case "patron":
		return false, s.handlePatron(args)
	case "items":
		s.handleListItems()
		return false, nil
	case "patrons":
		s.handleListPatrons()
		return false, nil
	case "overdue":
		s.handleOverdue()
		return false, nil
	case "history":
		return false, s.handleHistory(args)
	case "stats":
		s.handleStats()
		return false, nil
	case "help":
		s.printHelp()
		return false, nil
	case "exit", "quit":
		fmt.Fprintln(s.out, "Goodbye!")
		return true, nil
	}
	return false, fmt.Errorf("unknown command %q, type 'help' for the list", cmd)
}

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

// ------------------ Catalog ------------------

func (s *shell) handleAdd(args []string) error {
	if len(args) == 0 {
		return usage("add book|album|movie <id> <title> <creator> | add patron <id> <name> [pin]")
	}

	if strings.EqualFold(args[0], "patron") {
		if len(args) != 3 && len(args) != 4 {
			return usage("add patron <id> <name> [pin]")
		}
		pin := ""
		if len(args) == 4 {
			pin = args[3]
		}
		if err := s.mgr.AddPatron(args[1], args[2], pin); err != nil {
			fmt.Fprintf(s.out, "Error adding patron: %v\n", err)
			return nil
		}
		fmt.Fprintf(s.out, "Added patron '%s' with ID %s\n", args[2], args[1])
		return nil
	}

	kind, err := library.ParseKind(args[0])
	if err != nil {
		return usage("add book|album|movie <id> <title> <creator>")
	}
	if len(args) != 4 {
		return usage(fmt.Sprintf("add %s <id> <title> <%s>", kind, kind.CreatorLabel()))
	}
	if err := s.mgr.AddItem(kind, args[1], args[2], args[3]); err != nil {
		fmt.Fprintf(s.out, "Error adding %s: %v\n", kind, err)
		return nil
	}
	fmt.Fprintf(s.out, "Added %s '%s' with ID %s (loan %d days)\n", kind, args[2], args[1], kind.CheckOutLength())
	return nil
}

// ------------------ Circulation ------------------

// authenticate checks the patron's PIN when one is set. The PIN comes from the
// command line, or from the terminal when the line carries none.
func (s *shell) authenticate(patronID string, pinArgs []string) error {
	if !s.mgr.RequiresPIN(patronID) {
		return nil
	}

	var pin string
	switch {
	case len(pinArgs) > 0:
		pin = pinArgs[0]
	case s.readPIN != nil:
		var err error
		if pin, err = s.readPIN(fmt.Sprintf("PIN for %s: ", patronID)); err != nil {
			return fmt.Errorf("failed to read PIN: %w", err)
		}
	default:
		return fmt.Errorf("%w: PIN required for patron %s", library.ErrInvalidCredentials, patronID)
	}
	return s.mgr.Authenticate(patronID, pin)
}

func (s *shell) handleCheckout(args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return usage("checkout <patron> <item> [pin]")
	}
	patronID, itemID := args[0], args[1]

	if err := s.authenticate(patronID, args[2:]); err != nil {
		fmt.Fprintf(s.out, "Authentication failed: %v\n", err)
		return nil
	}
	if err := s.mgr.CheckOut(patronID, itemID); err != nil {
		fmt.Fprintf(s.out, "Error checking out item: %v\n", err)
		return nil
	}

	item, _ := s.mgr.GetItem(itemID)
	patron, _ := s.mgr.GetPatron(patronID)
	fmt.Fprintf(s.out, "Item '%s' checked out to %s (due day %d)\n", item.Title(), patron.Name(), item.Due())
	return nil
}

func (s *shell) handleReturn(args []string) error {
	if len(args) != 1 {
		return usage("return <item>")
	}
	itemID := args[0]

	returnedBy, err := s.mgr.ReturnItem(itemID)
	if err != nil {
		fmt.Fprintf(s.out, "Error returning item: %v\n", err)
		return nil
	}

	item, _ := s.mgr.GetItem(itemID)
	fmt.Fprintf(s.out, "Item '%s' returned by %s\n", item.Title(), s.patronName(returnedBy))
	if requester, ok := item.RequestedBy(); ok {
		fmt.Fprintf(s.out, "Item placed on the hold shelf for %s\n", s.patronName(requester))
	} else {
		fmt.Fprintln(s.out, "Item is back on the shelf")
	}
	return nil
}

func (s *shell) handleRequest(args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return usage("request <patron> <item> [pin]")
	}
	patronID, itemID := args[0], args[1]

	if err := s.authenticate(patronID, args[2:]); err != nil {
		fmt.Fprintf(s.out, "Authentication failed: %v\n", err)
		return nil
	}
	if err := s.mgr.RequestHold(patronID, itemID); err != nil {
		fmt.Fprintf(s.out, "Error requesting item: %v\n", err)
		return nil
	}

	item, _ := s.mgr.GetItem(itemID)
	if item.Location() == library.OnHoldShelf {
		fmt.Fprintf(s.out, "Item '%s' is on the hold shelf for %s\n", item.Title(), s.patronName(patronID))
	} else {
		fmt.Fprintf(s.out, "Hold placed on '%s' for %s; it goes to the hold shelf when returned\n", item.Title(), s.patronName(patronID))
	}
	return nil
}

func (s *shell) handleCancel(args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return usage("cancel <patron> <item> [pin]")
	}
	patronID, itemID := args[0], args[1]

	if err := s.authenticate(patronID, args[2:]); err != nil {
		fmt.Fprintf(s.out, "Authentication failed: %v\n", err)
		return nil
	}
	if err := s.mgr.CancelHold(patronID, itemID); err != nil {
		fmt.Fprintf(s.out, "Error cancelling hold: %v\n", err)
		return nil
	}

	item, _ := s.mgr.GetItem(itemID)
	fmt.Fprintf(s.out, "Hold on '%s' cancelled for %s\n", item.Title(), s.patronName(patronID))
	return nil
}

func (s *shell) handlePay(args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return usage("pay <patron> <amount> [pin]")
	}
	patronID := args[0]
	amount, err := library.ParseMoney(args[1])
	if err != nil {
		return usage("pay <patron> <amount> [pin]: " + err.Error())
	}

	if err := s.authenticate(patronID, args[2:]); err != nil {
		fmt.Fprintf(s.out, "Authentication failed: %v\n", err)
		return nil
	}
	if err := s.mgr.PayFine(patronID, amount); err != nil {
		fmt.Fprintf(s.out, "Error paying fine: %v\n", err)
		return nil
	}

	patron, _ := s.mgr.GetPatron(patronID)
	fmt.Fprintf(s.out, "Payment of %s received from %s; balance %s\n", amount.Abs(), patron.Name(), patron.FineAmount())
	return nil
}

func (s *shell) handleAdvance(args []string) error {
	days := 1
	if len(args) > 1 {
		return usage("advance [days]")
	}
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > maxAdvanceDays {
			return usage(fmt.Sprintf("advance [days]: days must be between 1 and %d", maxAdvanceDays))
		}
		days = n
	}

	today := s.mgr.AdvanceDays(days)
	overdue := s.mgr.Overdue()
	fmt.Fprintf(s.out, "Day %d (%d overdue item(s))\n", today, len(overdue))
	return nil
}

// ------------------ Lookups ------------------

func (s *shell) handleItem(args []string) error {
	if len(args) != 1 {
		return usage("item <id>")
	}
	item, err := s.mgr.GetItem(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil
	}

	fmt.Fprintf(s.out, "%s %s: '%s'\n", item.Kind(), item.ID(), item.Title())
	fmt.Fprintf(s.out, "  %-10s %s\n", item.Kind().CreatorLabel()+":", item.Creator())
	fmt.Fprintf(s.out, "  %-10s %s\n", "location:", item.Location())
	if holder, ok := item.CheckedOutBy(); ok {
		fmt.Fprintf(s.out, "  %-10s %s since day %d, due day %d\n", "borrower:", s.patronName(holder), item.DateCheckedOut(), item.Due())
	}
	if requester, ok := item.RequestedBy(); ok {
		fmt.Fprintf(s.out, "  %-10s %s\n", "hold:", s.patronName(requester))
	}
	return nil
}

func (s *shell) handlePatron(args []string) error {
	if len(args) != 1 {
		return usage("patron <id>")
	}
	patron, err := s.mgr.GetPatron(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil
	}

	fmt.Fprintf(s.out, "Patron %s: %s\n", patron.ID(), patron.Name())
	fmt.Fprintf(s.out, "  %-10s %s\n", "fine:", patron.FineAmount())
	items := patron.CheckedOutItems()
	if len(items) == 0 {
		fmt.Fprintf(s.out, "  %-10s none\n", "items:")
	}
	for _, id := range items {
		if item, err := s.mgr.GetItem(id); err == nil {
			fmt.Fprintf(s.out, "  %-10s %s '%s' due day %d\n", "item:", id, item.Title(), item.Due())
		}
	}
	return nil
}

func (s *shell) handleListItems() {
	items := s.mgr.GetAllItems()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "No items in library.")
		return
	}
	fmt.Fprintf(s.out, "%-8s %-6s %-30s %-25s %-14s %-8s %-8s\n", "ID", "Kind", "Title", "Creator", "Location", "Borrower", "Hold")
	fmt.Fprintln(s.out, strings.Repeat("-", 105))
	for _, it := range items {
		fmt.Fprintln(s.out, library.PrettyItem(it))
	}
}

func (s *shell) handleListPatrons() {
	patrons := s.mgr.GetAllPatrons()
	if len(patrons) == 0 {
		fmt.Fprintln(s.out, "No patrons registered.")
		return
	}
	fmt.Fprintf(s.out, "%-8s %-25s %8s %s\n", "ID", "Name", "Fine", "Items")
	fmt.Fprintln(s.out, strings.Repeat("-", 60))
	for _, p := range patrons {
		fmt.Fprintln(s.out, library.PrettyPatron(p))
	}
}

func (s *shell) handleOverdue() {
	overdue := s.mgr.Overdue()
	if len(overdue) == 0 {
		fmt.Fprintln(s.out, "No overdue items.")
		return
	}
	today := s.mgr.Today()
	for _, it := range overdue {
		holder, _ := it.CheckedOutBy()
		fmt.Fprintf(s.out, "%-8s %-30s %-20s %d day(s) late\n", it.ID(), library.Truncate(it.Title(), 30), s.patronName(holder), today-it.Due())
	}
}

// ------------------ Reporting ------------------

func (s *shell) handleHistory(args []string) error {
	var f library.HistoryFilter
	rest := args
	if len(rest) >= 2 {
		switch strings.ToLower(rest[0]) {
		case "patron":
			f.PatronID, rest = rest[1], rest[2:]
		case "item":
			f.ItemID, rest = rest[1], rest[2:]
		}
	}
	if len(rest) > 1 {
		return usage("history [patron|item <id>] [limit]")
	}
	if len(rest) == 1 {
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 1 {
			return usage("history [patron|item <id>] [limit]: limit must be a positive integer")
		}
		f.Limit = n
	}

	entries, err := s.mgr.History(f)
	if err != nil {
		fmt.Fprintf(s.out, "Error retrieving history: %v\n", err)
		return nil
	}
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "No history.")
		return nil
	}
	fmt.Fprintf(s.out, "%-5s %-9s %-8s %-8s %8s %-7s %s\n", "Day", "Op", "Patron", "Item", "Amount", "Outcome", "Detail")
	fmt.Fprintln(s.out, strings.Repeat("-", 80))
	for _, e := range entries {
		amount := ""
		if e.Amount != 0 {
			amount = e.Amount.String()
		}
		fmt.Fprintf(s.out, "%-5d %-9s %-8s %-8s %8s %-7s %s\n", e.Day, e.Op, e.PatronID, e.ItemID, amount, e.Outcome, e.Detail())
	}
	return nil
}

func (s *shell) handleStats() {
	lines, err := s.mgr.Stats()
	if err != nil {
		fmt.Fprintf(s.out, "Error gathering stats: %v\n", err)
		return
	}
	for _, l := range lines {
		fmt.Fprintln(s.out, l)
	}
}

func (s *shell) printHelp() {
	fmt.Fprint(s.out, `Available commands:
  Catalog:     add book|album|movie <id> "<title>" "<creator>"
               add patron <id> "<name>" [pin]
  Circulation: checkout <patron> <item> [pin]
               return <item>
               request <patron> <item> [pin]
               cancel <patron> <item> [pin]
               pay <patron> <amount> [pin]
  Clock:       advance [days], day
  Lookups:     item <id>, patron <id>, items, patrons, overdue
  Reporting:   history [patron|item <id>] [limit], stats
  System:      help, exit
`)
}

func (s *shell) patronName(id string) string {
	if p, err := s.mgr.GetPatron(id); err == nil {
		return p.Name()
	}
	return id
}

// splitArgs splits a command line on whitespace, keeping double-quoted
// sections together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		hasTok  bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasTok = true
		case !inQuote && (r == ' ' || r == '\t'):
			if hasTok {
				args = append(args, cur.String())
				cur.Reset()
				hasTok = false
			}
		default:
			cur.WriteRune(r)
			hasTok = true
		}
	}
	if inQuote {
		return nil, usage("unterminated quote")
	}
	if hasTok {
		args = append(args, cur.String())
	}
	if len(args) == 0 {
		return nil, usage("empty command")
	}
	return args, nil
}
