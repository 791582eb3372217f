package library

import "time"

// User represents a library member.
type User struct {
	ID                    int64     // ID is the unique identifier for the user
	FirstName             string    // FirstName of the member
	LastName              string    // LastName of the member
	Email                 string    // Email is unique across members
	Status                bool      // Status is true for active members
	MembershipRenewalDate time.Time // MembershipRenewalDate is the day the membership was last renewed
	Penalties             int       // Penalties is recorded but not computed by any rule
}

// FullName returns "first last".
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Author represents a book author. (FirstName, LastName, BirthDate) is unique.
type Author struct {
	ID        int64
	FirstName string
	LastName  string
	BirthDate time.Time
	Biography *string
}

// Category groups books. Name is unique.
type Category struct {
	ID   int64
	Name string
}

// Book is a title in the catalog.
type Book struct {
	ID              int64
	Title           string
	Description     *string
	Language        *string
	PublicationDate time.Time
	AuthorID        int64
	CategoryID      int64
}

// BookItem is one physical, individually loanable copy of a Book.
type BookItem struct {
	ID        int64
	Publisher string
	Available bool
	BookID    int64
}

// Loan links a user to a borrowed book item.
// Its identity is (UserID, BookItemID, BorrowDate).
type Loan struct {
	UserID       int64
	BookItemID   int64
	BorrowDate   time.Time
	BorrowStatus bool
}

// Active reports whether the loan is still outstanding.
func (l Loan) Active() bool {
	return l.BorrowStatus
}

// LoanedItem is a book item together with the loan that holds it.
type LoanedItem struct {
	Item       BookItem
	BorrowDate time.Time
}
