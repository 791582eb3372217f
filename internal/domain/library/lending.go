package library

import "time"

// Failure reasons reported by the lending workflow.
const (
	ReasonMembershipExpired = "membership_expired"
	ReasonBorrowLimit       = "borrow_limit_reached"
	ReasonOverdueItems      = "overdue_items"
	ReasonNoCopiesAvailable = "no_copies_available"
	ReasonNotBorrowed       = "not_borrowed_by_user"
)

// LendingPolicy holds the configured lending limits.
type LendingPolicy struct {
	MaxBooks int // MaxBooks is the per-user ceiling of simultaneous active loans
	MaxDays  int // MaxDays is the loan duration and the membership grace window
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DueDate returns the last day a loan started on borrowDate may be kept.
func (p LendingPolicy) DueDate(borrowDate time.Time) time.Time {
	return Date(borrowDate).AddDate(0, 0, p.MaxDays)
}

// MembershipExpired reports whether u's membership ran out before today.
func (p LendingPolicy) MembershipExpired(u User, today time.Time) bool {
	expiry := Date(u.MembershipRenewalDate).AddDate(0, 0, p.MaxDays)
	return expiry.Before(Date(today))
}

// Overdue reports whether an active loan is past its due date.
func (p LendingPolicy) Overdue(l Loan, today time.Time) bool {
	return l.Active() && p.DueDate(l.BorrowDate).Before(Date(today))
}

// BorrowRefusal is the first rule that blocks u from borrowing another copy,
// or "" if none does. Checks run cheapest first: membership, limit, overdue.
// Copy availability is checked afterwards by the caller against the store.
func (p LendingPolicy) BorrowRefusal(u User, active []Loan, today time.Time) string {
	if p.MembershipExpired(u, today) {
		return ReasonMembershipExpired
	}

	count := 0
	for _, l := range active {
		if l.Active() {
			count++
		}
	}
	if count >= p.MaxBooks {
		return ReasonBorrowLimit
	}

	for _, l := range active {
		if p.Overdue(l, today) {
			return ReasonOverdueItems
		}
	}

	return ""
}
