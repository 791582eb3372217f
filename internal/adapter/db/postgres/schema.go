package postgres

import (
	"time"

	"gorm.io/gorm"

	domain "library-service/internal/domain/library"
)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement"`
	FirstName             string    `gorm:"size:100;not null"`
	LastName              string    `gorm:"size:100;not null"`
	Email                 string    `gorm:"size:255;not null;unique"`
	Status                bool      `gorm:"not null;default:true"`
	MembershipRenewalDate time.Time `gorm:"type:date;not null"`
	Penalties             int       `gorm:"not null;default:0"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// AuthorSchema represents the authors table. Name and birth date together are unique.
type AuthorSchema struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	FirstName string    `gorm:"size:100;not null;uniqueIndex:idx_author_identity"`
	LastName  string    `gorm:"size:100;not null;uniqueIndex:idx_author_identity"`
	BirthDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_author_identity"`
	Biography *string   `gorm:"type:text"`
}

func (AuthorSchema) TableName() string {
	return "authors"
}

// CategorySchema represents the categories table.
type CategorySchema struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:100;not null;unique"`
}

func (CategorySchema) TableName() string {
	return "categories"
}

// BookSchema represents the books table.
type BookSchema struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	Title           string          `gorm:"size:255;not null;index"`
	Description     *string         `gorm:"type:text"`
	Language        *string         `gorm:"size:50"`
	PublicationDate time.Time       `gorm:"type:date;not null"`
	AuthorID        int64           `gorm:"not null;index"`
	Author          *AuthorSchema   `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT"`
	CategoryID      int64           `gorm:"not null;index"`
	Category        *CategorySchema `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
}

func (BookSchema) TableName() string {
	return "books"
}

// BookItemSchema represents one physical copy of a book.
type BookItemSchema struct {
	ID        int64       `gorm:"primaryKey;autoIncrement"`
	Publisher string      `gorm:"size:255;not null"`
	Available bool        `gorm:"not null;default:true;index"`
	BookID    int64       `gorm:"not null;index"`
	Book      *BookSchema `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
}

func (BookItemSchema) TableName() string {
	return "book_items"
}

// LoanSchema is the association between a user and a borrowed book item.
type LoanSchema struct {
	UserID       int64           `gorm:"primaryKey;autoIncrement:false"`
	User         *UserSchema     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	BookItemID   int64           `gorm:"primaryKey;autoIncrement:false;index"`
	BookItem     *BookItemSchema `gorm:"foreignKey:BookItemID;constraint:OnDelete:CASCADE"`
	BorrowDate   time.Time       `gorm:"primaryKey;type:date"`
	BorrowStatus bool            `gorm:"not null;default:true"`
}

func (LoanSchema) TableName() string {
	return "user_book_items"
}

// Models lists every schema in dependency order.
func Models() []any {
	return []any{
		&UserSchema{},
		&AuthorSchema{},
		&CategorySchema{},
		&BookSchema{},
		&BookItemSchema{},
		&LoanSchema{},
	}
}

// AutoMigrate creates or updates every table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func toUser(m UserSchema) domain.User {
	return domain.User{
		ID:                    m.ID,
		FirstName:             m.FirstName,
		LastName:              m.LastName,
		Email:                 m.Email,
		Status:                m.Status,
		MembershipRenewalDate: domain.Date(m.MembershipRenewalDate),
		Penalties:             m.Penalties,
	}
}

func toAuthor(m AuthorSchema) domain.Author {
	return domain.Author{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		BirthDate: domain.Date(m.BirthDate),
		Biography: m.Biography,
	}
}

func toBook(m BookSchema) domain.Book {
	return domain.Book{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description,
		Language:        m.Language,
		PublicationDate: domain.Date(m.PublicationDate),
		AuthorID:        m.AuthorID,
		CategoryID:      m.CategoryID,
	}
}

func toBookItem(m BookItemSchema) domain.BookItem {
	return domain.BookItem{
		ID:        m.ID,
		Publisher: m.Publisher,
		Available: m.Available,
		BookID:    m.BookID,
	}
}

func toLoan(m LoanSchema) domain.Loan {
	return domain.Loan{
		UserID:       m.UserID,
		BookItemID:   m.BookItemID,
		BorrowDate:   domain.Date(m.BorrowDate),
		BorrowStatus: m.BorrowStatus,
	}
}
