package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "library-service/internal/domain/library"
	apperrors "library-service/pkg/errors"
	"library-service/pkg/security"
)

// AuthorRepoPG stores authors.
type AuthorRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewAuthorRepoPG creates a new instance of AuthorRepoPG.
func NewAuthorRepoPG(db *gorm.DB, log *zap.Logger) *AuthorRepoPG {
	return &AuthorRepoPG{db: db, log: log}
}

// Create inserts a new author.
func (r *AuthorRepoPG) Create(ctx context.Context, a *domain.Author) (int64, error) {
	if a == nil {
		return 0, errors.New("author cannot be nil")
	}

	model := AuthorSchema{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		BirthDate: domain.Date(a.BirthDate),
		Biography: a.Biography,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, apperrors.NewAlreadyExistsError("author", "author already exists")
		}
		r.log.Error("failed to create author in db", zap.Error(err))
		return 0, fmt.Errorf("failed to create author: %w", err)
	}

	r.log.Info("author created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// GetByID retrieves an author by id.
func (r *AuthorRepoPG) GetByID(ctx context.Context, id int64) (*domain.Author, error) {
	var model AuthorSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("author", fmt.Sprintf("author not found: id=%d", id))
		}
		r.log.Error("failed to get author from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get author: %w", err)
	}

	a := toAuthor(model)
	return &a, nil
}

// FindByIdentity returns the author with this name and birth date, or nil.
func (r *AuthorRepoPG) FindByIdentity(ctx context.Context, firstName, lastName string, birthDate time.Time) (*domain.Author, error) {
	var model AuthorSchema
	err := r.db.WithContext(ctx).
		Where("first_name = ? AND last_name = ? AND birth_date = ?", firstName, lastName, domain.Date(birthDate)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to find author in db", zap.Error(err))
		return nil, fmt.Errorf("failed to find author: %w", err)
	}

	a := toAuthor(model)
	return &a, nil
}

// List retrieves every author ordered by id.
func (r *AuthorRepoPG) List(ctx context.Context) ([]domain.Author, error) {
	var models []AuthorSchema
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list authors from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}

	out := make([]domain.Author, len(models))
	for i, m := range models {
		out[i] = toAuthor(m)
	}
	return out, nil
}

// CategoryRepoPG stores categories.
type CategoryRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewCategoryRepoPG creates a new instance of CategoryRepoPG.
func NewCategoryRepoPG(db *gorm.DB, log *zap.Logger) *CategoryRepoPG {
	return &CategoryRepoPG{db: db, log: log}
}

// Create inserts a new category.
func (r *CategoryRepoPG) Create(ctx context.Context, c *domain.Category) (int64, error) {
	if c == nil {
		return 0, errors.New("category cannot be nil")
	}

	model := CategorySchema{Name: c.Name}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, apperrors.NewAlreadyExistsError("category", "category already exists")
		}
		r.log.Error("failed to create category in db", zap.Error(err), zap.String("name", c.Name))
		return 0, fmt.Errorf("failed to create category: %w", err)
	}

	r.log.Info("category created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// GetByID retrieves a category by id.
func (r *CategoryRepoPG) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	var model CategorySchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("category", fmt.Sprintf("category not found: id=%d", id))
		}
		r.log.Error("failed to get category from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &domain.Category{ID: model.ID, Name: model.Name}, nil
}

// GetByName retrieves a category by its unique name, or nil.
func (r *CategoryRepoPG) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	var model CategorySchema
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get category by name from db", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}

	return &domain.Category{ID: model.ID, Name: model.Name}, nil
}

// List retrieves every category ordered by id.
func (r *CategoryRepoPG) List(ctx context.Context) ([]domain.Category, error) {
	var models []CategorySchema
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list categories from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	out := make([]domain.Category, len(models))
	for i, m := range models {
		out[i] = domain.Category{ID: m.ID, Name: m.Name}
	}
	return out, nil
}

// BookRepoPG stores books.
type BookRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewBookRepoPG creates a new instance of BookRepoPG.
func NewBookRepoPG(db *gorm.DB, log *zap.Logger) *BookRepoPG {
	return &BookRepoPG{db: db, log: log}
}

// Create inserts a new book.
func (r *BookRepoPG) Create(ctx context.Context, b *domain.Book) (int64, error) {
	if b == nil {
		return 0, errors.New("book cannot be nil")
	}

	model := BookSchema{
		Title:           b.Title,
		Description:     b.Description,
		Language:        b.Language,
		PublicationDate: domain.Date(b.PublicationDate),
		AuthorID:        b.AuthorID,
		CategoryID:      b.CategoryID,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return 0, apperrors.NewValidationError("book", "author or category does not exist")
		}
		r.log.Error("failed to create book in db", zap.Error(err), zap.String("title", b.Title))
		return 0, fmt.Errorf("failed to create book: %w", err)
	}

	r.log.Info("book created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// GetByID retrieves a book by id.
func (r *BookRepoPG) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	var model BookSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("book", fmt.Sprintf("book not found: id=%d", id))
		}
		r.log.Error("failed to get book from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	b := toBook(model)
	return &b, nil
}

// List retrieves books whose title contains query, case-insensitively.
// The query is matched literally: LIKE wildcards in it are escaped.
func (r *BookRepoPG) List(ctx context.Context, query string) ([]domain.Book, error) {
	q := r.db.WithContext(ctx)
	if query != "" {
		q = q.Where(`LOWER(title) LIKE LOWER(?) ESCAPE '\'`, "%"+security.SanitizeSearchString(query)+"%")
	}

	var models []BookSchema
	if err := q.Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list books from db", zap.Error(err), zap.String("query", query))
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	out := make([]domain.Book, len(models))
	for i, m := range models {
		out[i] = toBook(m)
	}
	return out, nil
}

// BookItemRepoPG stores book copies.
type BookItemRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewBookItemRepoPG creates a new instance of BookItemRepoPG.
func NewBookItemRepoPG(db *gorm.DB, log *zap.Logger) *BookItemRepoPG {
	return &BookItemRepoPG{db: db, log: log}
}

// Create inserts a new copy.
func (r *BookItemRepoPG) Create(ctx context.Context, item *domain.BookItem) (int64, error) {
	if item == nil {
		return 0, errors.New("book item cannot be nil")
	}

	model := BookItemSchema{
		Publisher: item.Publisher,
		Available: item.Available,
		BookID:    item.BookID,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create book item in db", zap.Error(err), zap.Int64("book_id", item.BookID))
		return 0, fmt.Errorf("failed to create book item: %w", err)
	}

	r.log.Info("book item created in db", zap.Int64("id", model.ID), zap.Int64("book_id", model.BookID))
	return model.ID, nil
}

// ListByBook retrieves every copy of a book ordered by id.
func (r *BookItemRepoPG) ListByBook(ctx context.Context, bookID int64) ([]domain.BookItem, error) {
	var models []BookItemSchema
	if err := r.db.WithContext(ctx).Where("book_id = ?", bookID).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list book items from db", zap.Error(err), zap.Int64("book_id", bookID))
		return nil, fmt.Errorf("failed to list book items: %w", err)
	}

	out := make([]domain.BookItem, len(models))
	for i, m := range models {
		out[i] = toBookItem(m)
	}
	return out, nil
}
