package catalog

import "time"

// CreateAuthorRequest represents the request payload for adding an author.
type CreateAuthorRequest struct {
	FirstName string    `validate:"required,max=100"`
	LastName  string    `validate:"required,max=100"`
	BirthDate time.Time `validate:"required"`
	Biography *string
}

// CreateAuthorResponse represents the created author.
type CreateAuthorResponse struct {
	Author Author
}

// CreateCategoryRequest represents the request payload for adding a category.
type CreateCategoryRequest struct {
	Name string `validate:"required,max=100"`
}

// CreateCategoryResponse represents the created category.
type CreateCategoryResponse struct {
	Category Category
}

// CreateBookRequest represents the request payload for adding a book.
type CreateBookRequest struct {
	Title           string    `validate:"required,max=255"`
	PublicationDate time.Time `validate:"required"`
	Description     *string
	Language        *string
	AuthorID        int64 `validate:"gt=0"`
	CategoryID      int64 `validate:"gt=0"`
}

// CreateBookResponse represents the created book.
type CreateBookResponse struct {
	Book Book
}

// GetBookRequest represents the request payload for retrieving a book.
type GetBookRequest struct {
	ID int64
}

// GetBookResponse represents a book together with its copies.
type GetBookResponse struct {
	Book  Book
	Items []BookItem
}

// ListBooksRequest filters the book listing by title. An empty Query lists all books.
type ListBooksRequest struct {
	Query string
}

// CreateBookItemRequest represents the request payload for adding a copy of a book.
type CreateBookItemRequest struct {
	Publisher string `validate:"required,max=255"`
	BookID    int64  `validate:"gt=0"`
}

// CreateBookItemResponse represents the created copy and the title it belongs to.
type CreateBookItemResponse struct {
	Item      BookItem
	BookTitle string
}

// Author represents an author DTO.
type Author struct {
	ID        int64
	FirstName string
	LastName  string
	BirthDate time.Time
	Biography *string
}

// Category represents a category DTO.
type Category struct {
	ID   int64
	Name string
}

// Book represents a book DTO.
type Book struct {
	ID              int64
	Title           string
	Description     *string
	Language        *string
	PublicationDate time.Time
	AuthorID        int64
	CategoryID      int64
}

// BookItem represents a book copy DTO.
type BookItem struct {
	ID        int64
	Publisher string
	Available bool
	BookID    int64
}
