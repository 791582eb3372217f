package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "library-service/internal/domain/library"
	"library-service/internal/usecase/lending"
)

// LendingHandler handles borrowing and returning book items
type LendingHandler struct {
	uc  lending.Usecase
	log *zap.Logger
}

// NewLendingHandler creates a new LendingHandler instance
func NewLendingHandler(uc lending.Usecase, log *zap.Logger) *LendingHandler {
	return &LendingHandler{uc: uc, log: log}
}

// BorrowRequest represents the HTTP request body for borrowing a book by title
type BorrowRequest struct {
	UserID    int64  `json:"user_id" binding:"required,gt=0"`
	BookTitle string `json:"book_title" binding:"required,max=255"`
}

// LoanResponse represents a loan
type LoanResponse struct {
	UserID     int64  `json:"user_id"`
	BookItemID int64  `json:"book_item_id"`
	BookTitle  string `json:"book_title"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
}

// ReturnResponse represents a completed return
type ReturnResponse struct {
	UserID     int64  `json:"user_id"`
	BookItemID int64  `json:"book_item_id"`
	BookTitle  string `json:"book_title"`
	Message    string `json:"message"`
}

// LoanedItemResponse represents a copy currently on loan
type LoanedItemResponse struct {
	BookItemID int64  `json:"book_item_id"`
	BookID     int64  `json:"book_id"`
	Publisher  string `json:"publisher"`
	Available  bool   `json:"available"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
}

// Borrow handles POST /v1/loans
func (h *LendingHandler) Borrow(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid borrow request", zap.Error(err))
		badRequest(c, err)
		return
	}

	resp, err := h.uc.Borrow(c.Request.Context(), lending.BorrowRequest{UserID: req.UserID, BookTitle: req.BookTitle})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, LoanResponse{
		UserID:     resp.UserID,
		BookItemID: resp.BookItemID,
		BookTitle:  resp.BookTitle,
		BorrowDate: formatDate(resp.BorrowDate),
		DueDate:    formatDate(resp.DueDate),
	})
}

// ReturnBookItem handles PUT /v1/users/:id/books/:book_item_id
func (h *LendingHandler) ReturnBookItem(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "book_item_id")
	if !ok {
		return
	}

	resp, err := h.uc.ReturnBookItem(c.Request.Context(), lending.ReturnRequest{UserID: userID, BookItemID: itemID})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ReturnResponse{
		UserID:     resp.UserID,
		BookItemID: resp.BookItemID,
		BookTitle:  resp.BookTitle,
		Message:    "book " + resp.BookTitle + " returned",
	})
}

// ListActiveLoans handles GET /v1/users/:id/loans
func (h *LendingHandler) ListActiveLoans(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.uc.ListActiveLoans(c.Request.Context(), lending.ListActiveLoansRequest{UserID: userID})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	page, pageSize := pageParams(c)
	slice, p := domain.Paginate(resp.Items, page, pageSize)

	out := make([]LoanedItemResponse, len(slice))
	for i, item := range slice {
		out[i] = LoanedItemResponse{
			BookItemID: item.BookItemID,
			BookID:     item.BookID,
			Publisher:  item.Publisher,
			Available:  item.Available,
			BorrowDate: formatDate(item.BorrowDate),
			DueDate:    formatDate(item.DueDate),
		}
	}

	c.JSON(http.StatusOK, gin.H{"items": out, "pagination": paginationResponse(p)})
}
