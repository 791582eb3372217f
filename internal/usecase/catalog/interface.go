package catalog

import "context"

// Usecase defines the interface for catalog operations.
type Usecase interface {
	CreateAuthor(ctx context.Context, in CreateAuthorRequest) (*CreateAuthorResponse, error)
	ListAuthors(ctx context.Context) ([]Author, error)

	CreateCategory(ctx context.Context, in CreateCategoryRequest) (*CreateCategoryResponse, error)
	ListCategories(ctx context.Context) ([]Category, error)

	CreateBook(ctx context.Context, in CreateBookRequest) (*CreateBookResponse, error)
	GetBook(ctx context.Context, in GetBookRequest) (*GetBookResponse, error)
	ListBooks(ctx context.Context, in ListBooksRequest) ([]Book, error)

	CreateBookItem(ctx context.Context, in CreateBookItemRequest) (*CreateBookItemResponse, error)
}
