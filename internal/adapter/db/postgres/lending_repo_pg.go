package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "library-service/internal/domain/library"
	"library-service/internal/usecase/lending"
	apperrors "library-service/pkg/errors"
)

// LendingRepoPG implements the lending Repository interface. Inside WithinTx it is
// bound to the transaction; outside it runs against the pool.
type LendingRepoPG struct {
	db       *gorm.DB
	log      *zap.Logger
	postgres bool // row locks and SERIALIZABLE are only issued on PostgreSQL
}

// NewLendingRepoPG creates a new instance of LendingRepoPG.
func NewLendingRepoPG(db *gorm.DB, log *zap.Logger) *LendingRepoPG {
	return &LendingRepoPG{db: db, log: log, postgres: db.Dialector.Name() == "postgres"}
}

// WithinTx runs fn in one transaction. fn's error rolls back and is returned unchanged.
func (r *LendingRepoPG) WithinTx(ctx context.Context, fn func(ctx context.Context, r lending.Repository) error) error {
	var opts []*sql.TxOptions
	if r.postgres {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &LendingRepoPG{db: tx, log: r.log, postgres: r.postgres})
	}, opts...)
}

// forUpdate adds a row lock to q when the dialect supports it.
func (r *LendingRepoPG) forUpdate(q *gorm.DB) *gorm.DB {
	if r.postgres {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *LendingRepoPG) GetUserForUpdate(ctx context.Context, id int64) (*domain.User, error) {
	return r.getUser(r.forUpdate(r.db.WithContext(ctx)), id)
}

func (r *LendingRepoPG) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return r.getUser(r.db.WithContext(ctx), id)
}

func (r *LendingRepoPG) getUser(q *gorm.DB, id int64) (*domain.User, error) {
	var model UserSchema
	if err := q.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := toUser(model)
	return &u, nil
}

// GetBookByTitle retrieves the book with exactly this title, the oldest one if several share it.
func (r *LendingRepoPG) GetBookByTitle(ctx context.Context, title string) (*domain.Book, error) {
	var model BookSchema
	if err := r.db.WithContext(ctx).Where("title = ?", title).Order("id").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("book", fmt.Sprintf("book not found: title=%q", title))
		}
		r.log.Error("failed to get book by title from db", zap.Error(err), zap.String("title", title))
		return nil, fmt.Errorf("failed to get book by title: %w", err)
	}

	b := toBook(model)
	return &b, nil
}

func (r *LendingRepoPG) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	var model BookSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("book", fmt.Sprintf("book not found: id=%d", id))
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	b := toBook(model)
	return &b, nil
}

func (r *LendingRepoPG) GetBookItemForUpdate(ctx context.Context, id int64) (*domain.BookItem, error) {
	var model BookItemSchema
	if err := r.forUpdate(r.db.WithContext(ctx)).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("book item", fmt.Sprintf("book item not found: id=%d", id))
		}
		r.log.Error("failed to get book item from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get book item: %w", err)
	}

	item := toBookItem(model)
	return &item, nil
}

// FindAvailableItem locks the lowest-id available copy of a book. It returns nil, nil
// when every copy is on loan.
func (r *LendingRepoPG) FindAvailableItem(ctx context.Context, bookID int64) (*domain.BookItem, error) {
	var model BookItemSchema
	err := r.forUpdate(r.db.WithContext(ctx)).
		Where("book_id = ? AND available = ?", bookID, true).
		Order("id").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to find available book item", zap.Error(err), zap.Int64("book_id", bookID))
		return nil, fmt.Errorf("failed to find available book item: %w", err)
	}

	item := toBookItem(model)
	return &item, nil
}

func (r *LendingRepoPG) SetAvailability(ctx context.Context, itemID int64, available bool) error {
	res := r.db.WithContext(ctx).Model(&BookItemSchema{}).Where("id = ?", itemID).Update("available", available)
	if res.Error != nil {
		r.log.Error("failed to update book item availability", zap.Error(res.Error), zap.Int64("id", itemID))
		return fmt.Errorf("failed to update book item availability: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("book item", fmt.Sprintf("book item not found: id=%d", itemID))
	}
	return nil
}

// ListActiveLoans retrieves the user's loans with borrow_status true, oldest first.
func (r *LendingRepoPG) ListActiveLoans(ctx context.Context, userID int64) ([]domain.Loan, error) {
	var models []LoanSchema
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND borrow_status = ?", userID, true).
		Order("borrow_date, book_item_id").
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list active loans", zap.Error(err), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("failed to list active loans: %w", err)
	}

	out := make([]domain.Loan, len(models))
	for i, m := range models {
		out[i] = toLoan(m)
	}
	return out, nil
}

func (r *LendingRepoPG) FindActiveLoan(ctx context.Context, userID, itemID int64) (*domain.Loan, error) {
	var model LoanSchema
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_item_id = ? AND borrow_status = ?", userID, itemID, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to find active loan", zap.Error(err), zap.Int64("user_id", userID), zap.Int64("book_item_id", itemID))
		return nil, fmt.Errorf("failed to find active loan: %w", err)
	}

	l := toLoan(model)
	return &l, nil
}

func (r *LendingRepoPG) CreateLoan(ctx context.Context, l *domain.Loan) error {
	if l == nil {
		return errors.New("loan cannot be nil")
	}

	model := LoanSchema{
		UserID:       l.UserID,
		BookItemID:   l.BookItemID,
		BorrowDate:   domain.Date(l.BorrowDate),
		BorrowStatus: l.BorrowStatus,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.NewAlreadyExistsError("loan", "book item already borrowed by this user today")
		}
		r.log.Error("failed to create loan", zap.Error(err), zap.Int64("user_id", l.UserID), zap.Int64("book_item_id", l.BookItemID))
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// DeleteLoan removes the user's active loan of the item. A user holds at most one
// active loan per item since the item is unavailable while it is out.
func (r *LendingRepoPG) DeleteLoan(ctx context.Context, l domain.Loan) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND book_item_id = ? AND borrow_status = ?", l.UserID, l.BookItemID, true).
		Delete(&LoanSchema{})
	if res.Error != nil {
		r.log.Error("failed to delete loan", zap.Error(res.Error), zap.Int64("user_id", l.UserID), zap.Int64("book_item_id", l.BookItemID))
		return fmt.Errorf("failed to delete loan: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("loan", "loan not found")
	}
	return nil
}

type loanedItemRow struct {
	ID         int64
	Publisher  string
	Available  bool
	BookID     int64
	BorrowDate time.Time
}

// ListLoanedItems retrieves the copies on active loan to the user with their borrow dates.
func (r *LendingRepoPG) ListLoanedItems(ctx context.Context, userID int64) ([]domain.LoanedItem, error) {
	var rows []loanedItemRow
	err := r.db.WithContext(ctx).
		Table("book_items").
		Select("book_items.id, book_items.publisher, book_items.available, book_items.book_id, user_book_items.borrow_date").
		Joins("JOIN user_book_items ON user_book_items.book_item_id = book_items.id").
		Where("user_book_items.user_id = ? AND user_book_items.borrow_status = ?", userID, true).
		Order("user_book_items.borrow_date, book_items.id").
		Scan(&rows).Error
	if err != nil {
		r.log.Error("failed to list loaned items", zap.Error(err), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("failed to list loaned items: %w", err)
	}

	out := make([]domain.LoanedItem, len(rows))
	for i, row := range rows {
		out[i] = domain.LoanedItem{
			Item:       domain.BookItem{ID: row.ID, Publisher: row.Publisher, Available: row.Available, BookID: row.BookID},
			BorrowDate: domain.Date(row.BorrowDate),
		}
	}
	return out, nil
}
