package lending

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "library-service/internal/domain/library"
	apperrors "library-service/pkg/errors"
	"library-service/pkg/validation"
)

// Repository is the view of the entity store the lending workflow needs.
// Lookups by id or title return a NotFoundError when the row is absent.
type Repository interface {
	// WithinTx runs fn in a single transaction against a Repository bound to it.
	// A non-nil error from fn rolls the transaction back and is returned as is.
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repository) error) error

	// GetUserForUpdate loads a user and, where the store supports it, locks the row
	// for the rest of the transaction.
	GetUserForUpdate(ctx context.Context, id int64) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetBookByTitle(ctx context.Context, title string) (*domain.Book, error)
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	GetBookItemForUpdate(ctx context.Context, id int64) (*domain.BookItem, error)

	// FindAvailableItem locks and returns one available copy of a book, nil if none.
	FindAvailableItem(ctx context.Context, bookID int64) (*domain.BookItem, error)
	SetAvailability(ctx context.Context, itemID int64, available bool) error

	ListActiveLoans(ctx context.Context, userID int64) ([]domain.Loan, error)
	// FindActiveLoan returns the user's active loan of an item, nil if none.
	FindActiveLoan(ctx context.Context, userID, itemID int64) (*domain.Loan, error)
	CreateLoan(ctx context.Context, l *domain.Loan) error
	DeleteLoan(ctx context.Context, l domain.Loan) error
	ListLoanedItems(ctx context.Context, userID int64) ([]domain.LoanedItem, error)
}

// Service implements borrowing and returning book items.
type Service struct {
	repo     Repository
	policy   domain.LendingPolicy
	cfg      Config
	clock    domain.Clock
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a lending Service enforcing cfg.
func New(r Repository, cfg Config, clock domain.Clock, log *zap.Logger) *Service {
	return &Service{
		repo:     r,
		policy:   domain.LendingPolicy{MaxBooks: cfg.MaxNumberOfBooks, MaxDays: cfg.MaxNumberOfDays},
		cfg:      cfg,
		clock:    clock,
		log:      log,
		validate: validation.New(),
	}
}

// Borrow lends any available copy of the book titled in.BookTitle to the user.
//
// The checks run in this order: user exists, book exists, membership not expired,
// borrow limit not reached, no overdue loans, a copy is available. All of them and
// the write happen in one transaction.
func (s *Service) Borrow(ctx context.Context, in BorrowRequest) (*BorrowResponse, error) {
	s.log.Info("borrow requested", zap.Int64("user_id", in.UserID), zap.String("book_title", in.BookTitle))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, validation.Format(err)
	}

	var resp *BorrowResponse
	err := s.repo.WithinTx(ctx, func(ctx context.Context, r Repository) error {
		u, err := r.GetUserForUpdate(ctx, in.UserID)
		if err != nil {
			return notFound(err, "user", "user not found")
		}

		book, err := r.GetBookByTitle(ctx, in.BookTitle)
		if err != nil {
			return notFound(err, "book", "book not found")
		}

		loans, err := r.ListActiveLoans(ctx, u.ID)
		if err != nil {
			return err
		}

		today := domain.Date(s.clock.Now())
		if reason := s.policy.BorrowRefusal(*u, loans, today); reason != "" {
			return s.refusal(reason, u)
		}

		item, err := r.FindAvailableItem(ctx, book.ID)
		if err != nil {
			return err
		}
		if item == nil {
			return s.refusal(domain.ReasonNoCopiesAvailable, u)
		}

		if err := r.SetAvailability(ctx, item.ID, false); err != nil {
			return err
		}
		loan := &domain.Loan{
			UserID:       u.ID,
			BookItemID:   item.ID,
			BorrowDate:   today,
			BorrowStatus: true,
		}
		if err := r.CreateLoan(ctx, loan); err != nil {
			return err
		}

		resp = &BorrowResponse{
			UserID:     u.ID,
			BookItemID: item.ID,
			BookTitle:  book.Title,
			BorrowDate: loan.BorrowDate,
			DueDate:    s.policy.DueDate(loan.BorrowDate),
		}
		return nil
	})
	if err != nil {
		s.logFailure("borrow failed", err, zap.Int64("user_id", in.UserID), zap.String("book_title", in.BookTitle))
		return nil, err
	}

	s.log.Info("book borrowed",
		zap.Int64("user_id", resp.UserID),
		zap.Int64("book_item_id", resp.BookItemID),
		zap.Time("due_date", resp.DueDate),
	)
	return resp, nil
}

// ReturnBookItem ends the user's active loan of a book item and makes the copy available again.
func (s *Service) ReturnBookItem(ctx context.Context, in ReturnRequest) (*ReturnResponse, error) {
	s.log.Info("return requested", zap.Int64("user_id", in.UserID), zap.Int64("book_item_id", in.BookItemID))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, validation.Format(err)
	}

	var resp *ReturnResponse
	err := s.repo.WithinTx(ctx, func(ctx context.Context, r Repository) error {
		u, err := r.GetUserForUpdate(ctx, in.UserID)
		if err != nil {
			return notFound(err, "user", "user not found")
		}

		item, err := r.GetBookItemForUpdate(ctx, in.BookItemID)
		if err != nil {
			return notFound(err, "book item", "book item not found")
		}

		loan, err := r.FindActiveLoan(ctx, u.ID, item.ID)
		if err != nil {
			return err
		}
		if loan == nil {
			return apperrors.NewPolicyViolationError(domain.ReasonNotBorrowed,
				fmt.Sprintf("not currently borrowed by this user: book item %d is not on loan to %s", item.ID, u.FullName()))
		}

		book, err := r.GetBook(ctx, item.BookID)
		if err != nil {
			return err
		}

		if err := r.SetAvailability(ctx, item.ID, true); err != nil {
			return err
		}
		if err := r.DeleteLoan(ctx, *loan); err != nil {
			return err
		}

		resp = &ReturnResponse{UserID: u.ID, BookItemID: item.ID, BookTitle: book.Title}
		return nil
	})
	if err != nil {
		s.logFailure("return failed", err, zap.Int64("user_id", in.UserID), zap.Int64("book_item_id", in.BookItemID))
		return nil, err
	}

	s.log.Info("book item returned", zap.Int64("user_id", resp.UserID), zap.Int64("book_item_id", resp.BookItemID))
	return resp, nil
}

// ListActiveLoans lists the copies currently on loan to a user.
func (s *Service) ListActiveLoans(ctx context.Context, in ListActiveLoansRequest) (*ListActiveLoansResponse, error) {
	if in.UserID <= 0 {
		return nil, apperrors.NewValidationError("user_id", "invalid user id")
	}

	if _, err := s.repo.GetUser(ctx, in.UserID); err != nil {
		return nil, notFound(err, "user", "user not found")
	}

	loaned, err := s.repo.ListLoanedItems(ctx, in.UserID)
	if err != nil {
		s.log.Error("failed to list loaned items", zap.Int64("user_id", in.UserID), zap.Error(err))
		return nil, err
	}

	items := make([]LoanedItem, len(loaned))
	for i, li := range loaned {
		items[i] = LoanedItem{
			BookItemID: li.Item.ID,
			BookID:     li.Item.BookID,
			Publisher:  li.Item.Publisher,
			Available:  li.Item.Available,
			BorrowDate: li.BorrowDate,
			DueDate:    s.policy.DueDate(li.BorrowDate),
		}
	}
	return &ListActiveLoansResponse{Items: items}, nil
}

// refusal builds the policy violation reported for reason.
func (s *Service) refusal(reason string, u *domain.User) error {
	var msg string
	switch reason {
	case domain.ReasonMembershipExpired:
		msg = "membership expired: please renew your membership before borrowing"
	case domain.ReasonBorrowLimit:
		msg = fmt.Sprintf("borrow limit reached: %s already has %d borrowed books, return at least one first",
			u.FullName(), s.cfg.MaxNumberOfBooks)
	case domain.ReasonOverdueItems:
		msg = "overdue items must be returned first"
	case domain.ReasonNoCopiesAvailable:
		msg = "no copies available: the book is not available at the moment"
	default:
		msg = reason
	}
	return apperrors.NewPolicyViolationError(reason, msg)
}

// logFailure logs caller errors as warnings and everything else as errors.
func (s *Service) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))

	var pv *apperrors.PolicyViolationError
	var nf *apperrors.NotFoundError
	if errors.As(err, &pv) || errors.As(err, &nf) {
		s.log.Warn(msg, fields...)
		return
	}
	s.log.Error(msg, fields...)
}

// notFound replaces a store NotFoundError with one carrying the workflow's message.
func notFound(err error, resource, message string) error {
	var nf *apperrors.NotFoundError
	if errors.As(err, &nf) {
		return apperrors.NewNotFoundError(resource, message)
	}
	return err
}
