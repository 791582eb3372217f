package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "library-service/internal/domain/library"
	"library-service/internal/usecase/catalog"
)

// CatalogHandler handles HTTP requests for authors, categories, books and book items
type CatalogHandler struct {
	uc  catalog.Usecase
	log *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler instance
func NewCatalogHandler(uc catalog.Usecase, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{uc: uc, log: log}
}

// CreateAuthorRequest represents the HTTP request body for adding an author
type CreateAuthorRequest struct {
	FirstName string  `json:"first_name" binding:"required,max=100"`
	LastName  string  `json:"last_name" binding:"required,max=100"`
	BirthDate string  `json:"birth_date" binding:"required"`
	Biography *string `json:"biography"`
}

// AuthorResponse represents an author
type AuthorResponse struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	BirthDate string  `json:"birth_date"`
	Biography *string `json:"biography,omitempty"`
}

// CreateCategoryRequest represents the HTTP request body for adding a category
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CategoryResponse represents a category
type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateBookRequest represents the HTTP request body for adding a book
type CreateBookRequest struct {
	Title           string  `json:"title" binding:"required,max=255"`
	Description     *string `json:"description"`
	Language        *string `json:"language"`
	PublicationDate string  `json:"publication_date" binding:"required"`
	AuthorID        int64   `json:"author_id" binding:"required,gt=0"`
	CategoryID      int64   `json:"category_id" binding:"required,gt=0"`
}

// BookResponse represents a book
type BookResponse struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     *string `json:"description,omitempty"`
	Language        *string `json:"language,omitempty"`
	PublicationDate string  `json:"publication_date"`
	AuthorID        int64   `json:"author_id"`
	CategoryID      int64   `json:"category_id"`
}

// BookDetailResponse represents a book with its copies
type BookDetailResponse struct {
	BookResponse
	Items []BookItemResponse `json:"items"`
}

// CreateBookItemRequest represents the HTTP request body for adding a copy
type CreateBookItemRequest struct {
	Publisher string `json:"publisher" binding:"required,max=255"`
	BookID    int64  `json:"book_id" binding:"required,gt=0"`
}

// BookItemResponse represents a physical copy
type BookItemResponse struct {
	ID        int64  `json:"id"`
	Publisher string `json:"publisher"`
	Available bool   `json:"available"`
	BookID    int64  `json:"book_id"`
	BookTitle string `json:"book_title,omitempty"`
}

// CreateAuthor handles POST /v1/authors
func (h *CatalogHandler) CreateAuthor(c *gin.Context) {
	var req CreateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid create author request", zap.Error(err))
		badRequest(c, err)
		return
	}

	birthDate, err := parseDate("birth_date", req.BirthDate)
	if err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.uc.CreateAuthor(c.Request.Context(), catalog.CreateAuthorRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: birthDate,
		Biography: req.Biography,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, authorResponse(resp.Author))
}

// ListAuthors handles GET /v1/authors
func (h *CatalogHandler) ListAuthors(c *gin.Context) {
	page, pageSize := pageParams(c)

	authors, err := h.uc.ListAuthors(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	slice, p := domain.Paginate(authors, page, pageSize)
	out := make([]AuthorResponse, len(slice))
	for i, a := range slice {
		out[i] = authorResponse(a)
	}

	c.JSON(http.StatusOK, gin.H{"authors": out, "pagination": paginationResponse(p)})
}

// CreateCategory handles POST /v1/categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid create category request", zap.Error(err))
		badRequest(c, err)
		return
	}

	resp, err := h.uc.CreateCategory(c.Request.Context(), catalog.CreateCategoryRequest{Name: req.Name})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, CategoryResponse{ID: resp.Category.ID, Name: resp.Category.Name})
}

// ListCategories handles GET /v1/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	page, pageSize := pageParams(c)

	categories, err := h.uc.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	slice, p := domain.Paginate(categories, page, pageSize)
	c.JSON(http.StatusOK, gin.H{"categories": categoryResponses(slice), "pagination": paginationResponse(p)})
}

// CreateBook handles POST /v1/books
func (h *CatalogHandler) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid create book request", zap.Error(err))
		badRequest(c, err)
		return
	}

	published, err := parseDate("publication_date", req.PublicationDate)
	if err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.uc.CreateBook(c.Request.Context(), catalog.CreateBookRequest{
		Title:           req.Title,
		Description:     req.Description,
		Language:        req.Language,
		PublicationDate: published,
		AuthorID:        req.AuthorID,
		CategoryID:      req.CategoryID,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, bookResponse(resp.Book))
}

// ListBooks handles GET /v1/books
func (h *CatalogHandler) ListBooks(c *gin.Context) {
	page, pageSize := pageParams(c)

	books, err := h.uc.ListBooks(c.Request.Context(), catalog.ListBooksRequest{Query: c.Query("query")})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	slice, p := domain.Paginate(books, page, pageSize)
	out := make([]BookResponse, len(slice))
	for i, b := range slice {
		out[i] = bookResponse(b)
	}

	c.JSON(http.StatusOK, gin.H{"books": out, "pagination": paginationResponse(p)})
}

// GetBook handles GET /v1/books/:id
func (h *CatalogHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.uc.GetBook(c.Request.Context(), catalog.GetBookRequest{ID: id})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	items := make([]BookItemResponse, len(resp.Items))
	for i, item := range resp.Items {
		items[i] = bookItemResponse(item)
	}

	c.JSON(http.StatusOK, BookDetailResponse{BookResponse: bookResponse(resp.Book), Items: items})
}

// CreateBookItem handles POST /v1/book-items
func (h *CatalogHandler) CreateBookItem(c *gin.Context) {
	var req CreateBookItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid create book item request", zap.Error(err))
		badRequest(c, err)
		return
	}

	resp, err := h.uc.CreateBookItem(c.Request.Context(), catalog.CreateBookItemRequest{
		Publisher: req.Publisher,
		BookID:    req.BookID,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	out := bookItemResponse(resp.Item)
	out.BookTitle = resp.BookTitle
	c.JSON(http.StatusCreated, out)
}

func authorResponse(a catalog.Author) AuthorResponse {
	return AuthorResponse{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		BirthDate: formatDate(a.BirthDate),
		Biography: a.Biography,
	}
}

func categoryResponses(categories []catalog.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		out[i] = CategoryResponse{ID: c.ID, Name: c.Name}
	}
	return out
}

func bookResponse(b catalog.Book) BookResponse {
	return BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Description:     b.Description,
		Language:        b.Language,
		PublicationDate: formatDate(b.PublicationDate),
		AuthorID:        b.AuthorID,
		CategoryID:      b.CategoryID,
	}
}

func bookItemResponse(item catalog.BookItem) BookItemResponse {
	return BookItemResponse{
		ID:        item.ID,
		Publisher: item.Publisher,
		Available: item.Available,
		BookID:    item.BookID,
	}
}
