package library

// Op names a circulation operation as reported to observers.
type Op string

const (
	OpCheckOut    Op = "checkout"
	OpReturn      Op = "return"
	OpRequestHold Op = "request"
	OpCancelHold  Op = "cancel"
	OpPayFine     Op = "pay"
	OpFineAccrued Op = "fine"
	OpAdvanceDay  Op = "advance"
)

// Event describes one attempted operation. Err is nil on success, in which
// case Location is the item's location after the operation.
type Event struct {
	Op       Op
	Day      int
	PatronID string
	ItemID   string
	Amount   Money
	Location Location
	Err      error
}

// Observer receives events synchronously while the library lock is held, so
// implementations must not call back into the Library.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }
