package lending

import "time"

// Config carries the lending limits. It is supplied by the caller, never read from globals.
type Config struct {
	MaxNumberOfBooks int // simultaneous active loans allowed per user
	MaxNumberOfDays  int // loan duration and membership grace window
	// MembershipDurationDays is loaded with the rest of the configuration but no rule
	// consumes it yet.
	MembershipDurationDays int
}

// BorrowRequest asks to lend any available copy of the titled book to a user.
type BorrowRequest struct {
	UserID    int64  `validate:"gt=0"`
	BookTitle string `validate:"required,max=255"`
}

// BorrowResponse describes a successful loan.
type BorrowResponse struct {
	UserID     int64
	BookItemID int64
	BookTitle  string
	BorrowDate time.Time
	DueDate    time.Time
}

// ReturnRequest asks to end the user's active loan of a book item.
type ReturnRequest struct {
	UserID     int64 `validate:"gt=0"`
	BookItemID int64 `validate:"gt=0"`
}

// ReturnResponse describes a successful return.
type ReturnResponse struct {
	UserID     int64
	BookItemID int64
	BookTitle  string
}

// ListActiveLoansRequest selects the user whose loans are listed.
type ListActiveLoansRequest struct {
	UserID int64
}

// ListActiveLoansResponse lists the copies currently on loan to a user.
type ListActiveLoansResponse struct {
	Items []LoanedItem
}

// LoanedItem represents a book copy on loan.
type LoanedItem struct {
	BookItemID int64
	BookID     int64
	Publisher  string
	Available  bool
	BorrowDate time.Time
	DueDate    time.Time
}
