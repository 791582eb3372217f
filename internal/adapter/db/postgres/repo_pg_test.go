package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	domain "library-service/internal/domain/library"
	"library-service/internal/usecase/lending"
	apperrors "library-service/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))
	return db
}

var renewal = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, repo *UserRepoPG, email string, status bool) int64 {
	id, err := repo.Create(context.Background(), &domain.User{
		FirstName: "Ada", LastName: "Lovelace", Email: email,
		Status: status, MembershipRenewalDate: renewal,
	})
	require.NoError(t, err)
	return id
}

func TestUserRepoPG_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	id := seedUser(t, repo, "ada@example.com", true)

	u, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.True(t, u.Status)
	assert.Equal(t, 0, u.Penalties)
	assert.True(t, u.MembershipRenewalDate.Equal(renewal))

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)
}

func TestUserRepoPG_Missing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 42)
	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nf)

	u, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepoPG_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepoPG(db, zaptest.NewLogger(t))

	seedUser(t, repo, "ada@example.com", true)

	_, err := repo.Create(context.Background(), &domain.User{
		FirstName: "Other", LastName: "Person", Email: "ada@example.com", Status: true, MembershipRenewalDate: renewal,
	})
	assert.Error(t, err)
}

func TestUserRepoPG_ListByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	seedUser(t, repo, "a@example.com", true)
	inactive := seedUser(t, repo, "b@example.com", true)
	seedUser(t, repo, "c@example.com", true)
	require.NoError(t, db.Model(&UserSchema{}).Where("id = ?", inactive).Update("status", false).Error)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := repo.ListByStatus(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	off, err := repo.ListByStatus(ctx, false)
	require.NoError(t, err)
	require.Len(t, off, 1)
	assert.Equal(t, inactive, off[0].ID)
}

func TestAuthorRepoPG_FindByIdentity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthorRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	birth := time.Date(1920, time.January, 2, 0, 0, 0, 0, time.UTC)
	id, err := repo.Create(ctx, &domain.Author{FirstName: "Isaac", LastName: "Asimov", BirthDate: birth})
	require.NoError(t, err)

	found, err := repo.FindByIdentity(ctx, "Isaac", "Asimov", birth)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID)
	assert.Nil(t, found.Biography)

	other, err := repo.FindByIdentity(ctx, "Isaac", "Asimov", birth.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestCategoryRepoPG(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, &domain.Category{Name: "Science Fiction"})
	require.NoError(t, err)

	c, err := repo.GetByName(ctx, "Science Fiction")
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)

	missing, err := repo.GetByName(ctx, "Poetry")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.GetByID(ctx, 99)
	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

type fixture struct {
	db       *gorm.DB
	userID   int64
	bookID   int64
	itemIDs  []int64
	lendRepo *LendingRepoPG
}

func setupCatalog(t *testing.T, titles ...string) (fixture, []int64) {
	db := setupTestDB(t)
	log := zaptest.NewLogger(t)
	ctx := context.Background()

	authorID, err := NewAuthorRepoPG(db, log).Create(ctx, &domain.Author{
		FirstName: "Frank", LastName: "Herbert", BirthDate: time.Date(1920, time.October, 8, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	categoryID, err := NewCategoryRepoPG(db, log).Create(ctx, &domain.Category{Name: "Fiction"})
	require.NoError(t, err)

	books := NewBookRepoPG(db, log)
	ids := make([]int64, len(titles))
	for i, title := range titles {
		ids[i], err = books.Create(ctx, &domain.Book{
			Title: title, PublicationDate: time.Date(1965, time.August, 1, 0, 0, 0, 0, time.UTC),
			AuthorID: authorID, CategoryID: categoryID,
		})
		require.NoError(t, err)
	}

	f := fixture{db: db, lendRepo: NewLendingRepoPG(db, log)}
	f.userID = seedUser(t, NewUserRepoPG(db, log), "reader@example.com", true)
	if len(ids) > 0 {
		f.bookID = ids[0]
		items := NewBookItemRepoPG(db, log)
		for _, publisher := range []string{"Chilton", "Ace"} {
			id, err := items.Create(ctx, &domain.BookItem{Publisher: publisher, Available: true, BookID: f.bookID})
			require.NoError(t, err)
			f.itemIDs = append(f.itemIDs, id)
		}
	}
	return f, ids
}

func TestBookRepoPG_List(t *testing.T) {
	f, _ := setupCatalog(t, "Dune", "Dune Messiah", "The_Hobbit", "The Hobbit", "50% Off")
	repo := NewBookRepoPG(f.db, zaptest.NewLogger(t))

	tests := []struct {
		name        string
		query       string
		expectCount int
	}{
		{name: "empty query lists all", query: "", expectCount: 5},
		{name: "substring", query: "dune", expectCount: 2},
		{name: "case insensitive", query: "DUNE", expectCount: 2},
		{name: "underscore is literal", query: "e_h", expectCount: 1},
		{name: "percent is literal", query: "%", expectCount: 1},
		{name: "no match", query: "Foundation", expectCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := repo.List(context.Background(), tt.query)

			require.NoError(t, err)
			assert.NotNil(t, books)
			assert.Len(t, books, tt.expectCount)
		})
	}
}

func TestBookItemRepoPG_ListByBook(t *testing.T) {
	f, _ := setupCatalog(t, "Dune")
	repo := NewBookItemRepoPG(f.db, zaptest.NewLogger(t))

	items, err := repo.ListByBook(context.Background(), f.bookID)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].Available)
	assert.Equal(t, "Chilton", items[0].Publisher)
}

func TestLendingRepoPG_LoanLifecycle(t *testing.T) {
	f, _ := setupCatalog(t, "Dune")
	repo := f.lendRepo
	ctx := context.Background()
	day := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	book, err := repo.GetBookByTitle(ctx, "Dune")
	require.NoError(t, err)
	assert.Equal(t, f.bookID, book.ID)

	item, err := repo.FindAvailableItem(ctx, f.bookID)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, f.itemIDs[0], item.ID)

	require.NoError(t, repo.SetAvailability(ctx, item.ID, false))
	require.NoError(t, repo.CreateLoan(ctx, &domain.Loan{UserID: f.userID, BookItemID: item.ID, BorrowDate: day, BorrowStatus: true}))

	next, err := repo.FindAvailableItem(ctx, f.bookID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, f.itemIDs[1], next.ID)

	loans, err := repo.ListActiveLoans(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.True(t, loans[0].BorrowDate.Equal(day))

	loaned, err := repo.ListLoanedItems(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, loaned, 1)
	assert.Equal(t, item.ID, loaned[0].Item.ID)
	assert.False(t, loaned[0].Item.Available)
	assert.True(t, loaned[0].BorrowDate.Equal(day))

	active, err := repo.FindActiveLoan(ctx, f.userID, item.ID)
	require.NoError(t, err)
	require.NotNil(t, active)

	require.NoError(t, repo.DeleteLoan(ctx, *active))
	require.NoError(t, repo.SetAvailability(ctx, item.ID, true))

	gone, err := repo.FindActiveLoan(ctx, f.userID, item.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestLendingRepoPG_NoCopyLeft(t *testing.T) {
	f, _ := setupCatalog(t, "Dune")
	ctx := context.Background()

	for _, id := range f.itemIDs {
		require.NoError(t, f.lendRepo.SetAvailability(ctx, id, false))
	}

	item, err := f.lendRepo.FindAvailableItem(ctx, f.bookID)
	assert.NoError(t, err)
	assert.Nil(t, item)
}

func TestLendingRepoPG_WithinTxRollsBack(t *testing.T) {
	f, _ := setupCatalog(t, "Dune")
	ctx := context.Background()
	boom := errors.New("boom")

	err := f.lendRepo.WithinTx(ctx, func(ctx context.Context, r lending.Repository) error {
		if err := r.SetAvailability(ctx, f.itemIDs[0], false); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	item, err := f.lendRepo.GetBookItemForUpdate(ctx, f.itemIDs[0])
	require.NoError(t, err)
	assert.True(t, item.Available)
}

func TestLendingRepoPG_NotFound(t *testing.T) {
	f, _ := setupCatalog(t)
	ctx := context.Background()
	var nf *apperrors.NotFoundError

	_, err := f.lendRepo.GetBookByTitle(ctx, "Nope")
	assert.ErrorAs(t, err, &nf)

	_, err = f.lendRepo.GetBookItemForUpdate(ctx, 404)
	assert.ErrorAs(t, err, &nf)

	_, err = f.lendRepo.GetUserForUpdate(ctx, 404)
	assert.ErrorAs(t, err, &nf)

	assert.ErrorAs(t, f.lendRepo.SetAvailability(ctx, 404, true), &nf)
}
