package library

import "errors"

var (
	ErrPatronNotFound    = errors.New("patron not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrAlreadyCheckedOut = errors.New("item already checked out")
	ErrHeldByOther       = errors.New("item on hold by other patron")
	ErrAlreadyOnShelf    = errors.New("item already in library")
	ErrAlreadyRequested  = errors.New("item already on hold")
	ErrNoActiveHold      = errors.New("no active hold")

	ErrBlankID            = errors.New("id must not be blank")
	ErrDuplicateItem      = errors.New("item id already in holdings")
	ErrDuplicatePatron    = errors.New("patron id already registered")
	ErrInvalidCredentials = errors.New("invalid PIN")
)
