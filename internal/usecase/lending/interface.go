package lending

import "context"

// Usecase defines the interface for the lending workflow.
type Usecase interface {
	Borrow(ctx context.Context, in BorrowRequest) (*BorrowResponse, error)
	ReturnBookItem(ctx context.Context, in ReturnRequest) (*ReturnResponse, error)
	ListActiveLoans(ctx context.Context, in ListActiveLoansRequest) (*ListActiveLoansResponse, error)
}
