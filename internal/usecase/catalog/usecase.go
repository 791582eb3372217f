package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "library-service/internal/domain/library"
	apperrors "library-service/pkg/errors"
	"library-service/pkg/security"
	"library-service/pkg/validation"
)

// AuthorRepository defines the data access operations for authors.
type AuthorRepository interface {
	Create(ctx context.Context, a *domain.Author) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Author, error) // NotFoundError if absent
	// FindByIdentity returns nil if no author has this name and birth date.
	FindByIdentity(ctx context.Context, firstName, lastName string, birthDate time.Time) (*domain.Author, error)
	List(ctx context.Context) ([]domain.Author, error)
}

// CategoryRepository defines the data access operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)     // NotFoundError if absent
	GetByName(ctx context.Context, name string) (*domain.Category, error) // nil if absent
	List(ctx context.Context) ([]domain.Category, error)
}

// BookRepository defines the data access operations for books.
type BookRepository interface {
	Create(ctx context.Context, b *domain.Book) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Book, error) // NotFoundError if absent
	// List returns books whose title contains query; an empty query returns all books.
	List(ctx context.Context, query string) ([]domain.Book, error)
}

// BookItemRepository defines the data access operations for book copies.
type BookItemRepository interface {
	Create(ctx context.Context, item *domain.BookItem) (int64, error)
	ListByBook(ctx context.Context, bookID int64) ([]domain.BookItem, error)
}

// Repositories bundles the stores the catalog works on.
type Repositories struct {
	Authors    AuthorRepository
	Categories CategoryRepository
	Books      BookRepository
	BookItems  BookItemRepository
}

// Service implements catalog management: authors, categories, books and their copies.
type Service struct {
	repos    Repositories
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new catalog Service.
func New(repos Repositories, log *zap.Logger) *Service {
	return &Service{repos: repos, log: log, validate: validation.New()}
}

// CreateAuthor adds an author unless one with the same name and birth date exists.
func (s *Service) CreateAuthor(ctx context.Context, in CreateAuthorRequest) (*CreateAuthorResponse, error) {
	s.log.Info("creating author", zap.String("first_name", in.FirstName), zap.String("last_name", in.LastName))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, validation.Format(err)
	}

	birthDate := domain.Date(in.BirthDate)
	existing, err := s.repos.Authors.FindByIdentity(ctx, in.FirstName, in.LastName, birthDate)
	if err != nil {
		s.log.Error("failed to check existing author", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to validate author uniqueness", err)
	}
	if existing != nil {
		s.log.Warn("author already exists", zap.Int64("existing_id", existing.ID))
		return nil, apperrors.NewAlreadyExistsError("author", "author already exists")
	}

	a := &domain.Author{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		BirthDate: birthDate,
		Biography: in.Biography,
	}
	id, err := s.repos.Authors.Create(ctx, a)
	if err != nil {
		s.log.Error("failed to create author", zap.Error(err))
		return nil, err
	}
	a.ID = id

	return &CreateAuthorResponse{Author: authorDTO(*a)}, nil
}

// ListAuthors returns every author.
func (s *Service) ListAuthors(ctx context.Context) ([]Author, error) {
	authors, err := s.repos.Authors.List(ctx)
	if err != nil {
		s.log.Error("failed to list authors", zap.Error(err))
		return nil, err
	}

	out := make([]Author, len(authors))
	for i, a := range authors {
		out[i] = authorDTO(a)
	}
	return out, nil
}

// CreateCategory adds a category unless the name is taken.
func (s *Service) CreateCategory(ctx context.Context, in CreateCategoryRequest) (*CreateCategoryResponse, error) {
	s.log.Info("creating category", zap.String("name", in.Name))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, validation.Format(err)
	}

	existing, err := s.repos.Categories.GetByName(ctx, in.Name)
	if err != nil {
		s.log.Error("failed to check existing category", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to validate category uniqueness", err)
	}
	if existing != nil {
		s.log.Warn("category already exists", zap.String("name", in.Name))
		return nil, apperrors.NewAlreadyExistsError("category", "category already exists")
	}

	c := &domain.Category{Name: in.Name}
	id, err := s.repos.Categories.Create(ctx, c)
	if err != nil {
		s.log.Error("failed to create category", zap.Error(err))
		return nil, err
	}
	c.ID = id

	return &CreateCategoryResponse{Category: Category{ID: c.ID, Name: c.Name}}, nil
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repos.Categories.List(ctx)
	if err != nil {
		s.log.Error("failed to list categories", zap.Error(err))
		return nil, err
	}
	return categoryDTOs(categories), nil
}

// CreateBook adds a book after checking that its author and category exist.
// An unknown category fails with an UnknownCategoryError listing the existing categories.
func (s *Service) CreateBook(ctx context.Context, in CreateBookRequest) (*CreateBookResponse, error) {
	s.log.Info("creating book", zap.String("title", in.Title),
		zap.Int64("author_id", in.AuthorID), zap.Int64("category_id", in.CategoryID))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, validation.Format(err)
	}

	if _, err := s.repos.Authors.GetByID(ctx, in.AuthorID); err != nil {
		if isNotFound(err) {
			s.log.Warn("unknown author", zap.Int64("author_id", in.AuthorID))
			return nil, apperrors.NewNotFoundError("author", "unknown author: author with provided id does not exist")
		}
		return nil, err
	}

	if _, err := s.repos.Categories.GetByID(ctx, in.CategoryID); err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		s.log.Warn("unknown category", zap.Int64("category_id", in.CategoryID))

		categories, listErr := s.repos.Categories.List(ctx)
		if listErr != nil {
			s.log.Error("failed to list categories", zap.Error(listErr))
			return nil, listErr
		}
		return nil, &UnknownCategoryError{CategoryID: in.CategoryID, Categories: categoryDTOs(categories)}
	}

	b := &domain.Book{
		Title:           in.Title,
		Description:     in.Description,
		Language:        in.Language,
		PublicationDate: domain.Date(in.PublicationDate),
		AuthorID:        in.AuthorID,
		CategoryID:      in.CategoryID,
	}
	id, err := s.repos.Books.Create(ctx, b)
	if err != nil {
		s.log.Error("failed to create book", zap.Error(err))
		return nil, err
	}
	b.ID = id

	return &CreateBookResponse{Book: bookDTO(*b)}, nil
}

// GetBook returns a book and all of its copies.
func (s *Service) GetBook(ctx context.Context, in GetBookRequest) (*GetBookResponse, error) {
	if in.ID <= 0 {
		return nil, apperrors.NewValidationError("id", "invalid book id")
	}

	b, err := s.repos.Books.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	items, err := s.repos.BookItems.ListByBook(ctx, b.ID)
	if err != nil {
		s.log.Error("failed to list book items", zap.Int64("book_id", b.ID), zap.Error(err))
		return nil, err
	}

	out := make([]BookItem, len(items))
	for i, item := range items {
		out[i] = bookItemDTO(item)
	}
	return &GetBookResponse{Book: bookDTO(*b), Items: out}, nil
}

// ListBooks returns every book, or those whose title matches in.Query.
func (s *Service) ListBooks(ctx context.Context, in ListBooksRequest) ([]Book, error) {
	query, err := security.ValidateSearchQuery(in.Query)
	if err != nil {
		s.log.Warn("invalid search query", zap.String("query", in.Query), zap.Error(err))
		return nil, apperrors.NewValidationError("query", "invalid search query: "+err.Error())
	}

	books, err := s.repos.Books.List(ctx, query)
	if err != nil {
		s.log.Error("failed to list books", zap.String("query", query), zap.Error(err))
		return nil, err
	}

	out := make([]Book, len(books))
	for i, b := range books {
		out[i] = bookDTO(b)
	}
	return out, nil
}

// CreateBookItem adds an available copy of an existing book.
func (s *Service) CreateBookItem(ctx context.Context, in CreateBookItemRequest) (*CreateBookItemResponse, error) {
	s.log.Info("creating book item", zap.Int64("book_id", in.BookID), zap.String("publisher", in.Publisher))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, validation.Format(err)
	}

	b, err := s.repos.Books.GetByID(ctx, in.BookID)
	if err != nil {
		if isNotFound(err) {
			s.log.Warn("unknown book", zap.Int64("book_id", in.BookID))
			return nil, apperrors.NewNotFoundError("book", "unknown book: book with provided id does not exist")
		}
		return nil, err
	}

	item := &domain.BookItem{
		Publisher: in.Publisher,
		Available: true,
		BookID:    b.ID,
	}
	id, err := s.repos.BookItems.Create(ctx, item)
	if err != nil {
		s.log.Error("failed to create book item", zap.Error(err))
		return nil, err
	}
	item.ID = id

	return &CreateBookItemResponse{Item: bookItemDTO(*item), BookTitle: b.Title}, nil
}

func isNotFound(err error) bool {
	var nf *apperrors.NotFoundError
	return errors.As(err, &nf)
}

func authorDTO(a domain.Author) Author {
	return Author{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		BirthDate: a.BirthDate,
		Biography: a.Biography,
	}
}

func categoryDTOs(categories []domain.Category) []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = Category{ID: c.ID, Name: c.Name}
	}
	return out
}

func bookDTO(b domain.Book) Book {
	return Book{
		ID:              b.ID,
		Title:           b.Title,
		Description:     b.Description,
		Language:        b.Language,
		PublicationDate: b.PublicationDate,
		AuthorID:        b.AuthorID,
		CategoryID:      b.CategoryID,
	}
}

func bookItemDTO(item domain.BookItem) BookItem {
	return BookItem{
		ID:        item.ID,
		Publisher: item.Publisher,
		Available: item.Available,
		BookID:    item.BookID,
	}
}
