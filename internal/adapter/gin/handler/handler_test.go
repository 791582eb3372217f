package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "library-service/internal/domain/library"
	"library-service/internal/usecase/catalog"
	"library-service/internal/usecase/lending"
	"library-service/internal/usecase/membership"
	apperrors "library-service/pkg/errors"
)

type MockMembershipUsecase struct {
	mock.Mock
}

func (m *MockMembershipUsecase) CreateUser(ctx context.Context, in membership.CreateUserRequest) (*membership.CreateUserResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.CreateUserResponse), args.Error(1)
}

func (m *MockMembershipUsecase) GetUser(ctx context.Context, in membership.GetUserRequest) (*membership.GetUserResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.GetUserResponse), args.Error(1)
}

func (m *MockMembershipUsecase) ListUsers(ctx context.Context, in membership.ListUsersRequest) (*membership.ListUsersResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.ListUsersResponse), args.Error(1)
}

func (m *MockMembershipUsecase) ListUsersByStatus(ctx context.Context, status bool) (*membership.ListUsersResponse, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.ListUsersResponse), args.Error(1)
}

type MockCatalogUsecase struct {
	mock.Mock
}

func (m *MockCatalogUsecase) CreateAuthor(ctx context.Context, in catalog.CreateAuthorRequest) (*catalog.CreateAuthorResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.CreateAuthorResponse), args.Error(1)
}

func (m *MockCatalogUsecase) ListAuthors(ctx context.Context) ([]catalog.Author, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.Author), args.Error(1)
}

func (m *MockCatalogUsecase) CreateCategory(ctx context.Context, in catalog.CreateCategoryRequest) (*catalog.CreateCategoryResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.CreateCategoryResponse), args.Error(1)
}

func (m *MockCatalogUsecase) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCatalogUsecase) CreateBook(ctx context.Context, in catalog.CreateBookRequest) (*catalog.CreateBookResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.CreateBookResponse), args.Error(1)
}

func (m *MockCatalogUsecase) GetBook(ctx context.Context, in catalog.GetBookRequest) (*catalog.GetBookResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.GetBookResponse), args.Error(1)
}

func (m *MockCatalogUsecase) ListBooks(ctx context.Context, in catalog.ListBooksRequest) ([]catalog.Book, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Book), args.Error(1)
}

func (m *MockCatalogUsecase) CreateBookItem(ctx context.Context, in catalog.CreateBookItemRequest) (*catalog.CreateBookItemResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.CreateBookItemResponse), args.Error(1)
}

type MockLendingUsecase struct {
	mock.Mock
}

func (m *MockLendingUsecase) Borrow(ctx context.Context, in lending.BorrowRequest) (*lending.BorrowResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lending.BorrowResponse), args.Error(1)
}

func (m *MockLendingUsecase) ReturnBookItem(ctx context.Context, in lending.ReturnRequest) (*lending.ReturnResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lending.ReturnResponse), args.Error(1)
}

func (m *MockLendingUsecase) ListActiveLoans(ctx context.Context, in lending.ListActiveLoansRequest) (*lending.ListActiveLoansResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lending.ListActiveLoansResponse), args.Error(1)
}

type testEnv struct {
	router     *gin.Engine
	membership *MockMembershipUsecase
	catalog    *MockCatalogUsecase
	lending    *MockLendingUsecase
}

func setupTest(t *testing.T) testEnv {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	env := testEnv{
		router:     gin.New(),
		membership: new(MockMembershipUsecase),
		catalog:    new(MockCatalogUsecase),
		lending:    new(MockLendingUsecase),
	}

	users := NewUserHandler(env.membership, log)
	books := NewCatalogHandler(env.catalog, log)
	loans := NewLendingHandler(env.lending, log)

	env.router.POST("/v1/users", users.CreateUser)
	env.router.GET("/v1/users", users.ListUsers)
	env.router.GET("/v1/users/by-status", users.ListUsersByStatus)
	env.router.GET("/v1/users/:id", users.GetUser)
	env.router.GET("/v1/users/:id/loans", loans.ListActiveLoans)
	env.router.PUT("/v1/users/:id/books/:book_item_id", loans.ReturnBookItem)
	env.router.POST("/v1/loans", loans.Borrow)
	env.router.POST("/v1/authors", books.CreateAuthor)
	env.router.GET("/v1/authors", books.ListAuthors)
	env.router.POST("/v1/books", books.CreateBook)
	env.router.GET("/v1/books", books.ListBooks)
	env.router.GET("/v1/books/:id", books.GetBook)
	env.router.POST("/v1/book-items", books.CreateBookItem)
	return env
}

func (e testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

var renewed = time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		env := setupTest(t)
		env.membership.On("CreateUser", mock.Anything, membership.CreateUserRequest{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		}).Return(&membership.CreateUserResponse{User: membership.User{
			ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Status: true, MembershipRenewalDate: renewed,
		}}, nil)

		w := env.do(http.MethodPost, "/v1/users", gin.H{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"})

		assert.Equal(t, http.StatusCreated, w.Code)
		body := decode(t, w)
		assert.Equal(t, "2024-05-02", body["membership_renewal_date"])
		assert.Equal(t, true, body["status"])
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		env := setupTest(t)

		w := env.do(http.MethodPost, "/v1/users", gin.H{"first_name": "Ada", "last_name": "Lovelace", "email": "nope"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decode(t, w)["error"])
		env.membership.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		env := setupTest(t)
		env.membership.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewAlreadyExistsError("user", "email already exists"))

		w := env.do(http.MethodPost, "/v1/users", gin.H{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "email already exists", decode(t, w)["message"])
	})
}

func TestGetUser(t *testing.T) {
	t.Run("InvalidID", func(t *testing.T) {
		env := setupTest(t)

		w := env.do(http.MethodGet, "/v1/users/abc", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_id", decode(t, w)["error"])
	})

	t.Run("NotFound", func(t *testing.T) {
		env := setupTest(t)
		env.membership.On("GetUser", mock.Anything, membership.GetUserRequest{ID: 9}).
			Return(nil, apperrors.NewNotFoundError("user", "user not found"))

		w := env.do(http.MethodGet, "/v1/users/9", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListUsers(t *testing.T) {
	users := make([]membership.User, 15)
	for i := range users {
		users[i] = membership.User{ID: int64(i + 1), MembershipRenewalDate: renewed}
	}

	t.Run("StatusFilterAndPagination", func(t *testing.T) {
		env := setupTest(t)
		active := true
		env.membership.On("ListUsers", mock.Anything, membership.ListUsersRequest{Status: &active}).
			Return(&membership.ListUsersResponse{Users: users}, nil)

		w := env.do(http.MethodGet, "/v1/users?status=true&page=2&pageSize=10", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp ListUsersResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Users, 5)
		assert.Equal(t, int64(11), resp.Users[0].ID)
		assert.Equal(t, int64(15), resp.Pagination.Total)
		assert.Equal(t, int64(2), resp.Pagination.TotalPages)
	})

	t.Run("PageSizeCapped", func(t *testing.T) {
		env := setupTest(t)
		env.membership.On("ListUsers", mock.Anything, membership.ListUsersRequest{}).
			Return(&membership.ListUsersResponse{Users: users}, nil)

		w := env.do(http.MethodGet, "/v1/users?pageSize=1000", nil)

		var resp ListUsersResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(100), resp.Pagination.PageSize)
		assert.Len(t, resp.Users, 15)
	})

	t.Run("BadStatus", func(t *testing.T) {
		env := setupTest(t)

		w := env.do(http.MethodGet, "/v1/users?status=maybe", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ByStatusRequiresStatus", func(t *testing.T) {
		env := setupTest(t)

		w := env.do(http.MethodGet, "/v1/users/by-status", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env.membership.AssertNotCalled(t, "ListUsersByStatus", mock.Anything, mock.Anything)
	})

	t.Run("ByStatus", func(t *testing.T) {
		env := setupTest(t)
		env.membership.On("ListUsersByStatus", mock.Anything, false).
			Return(&membership.ListUsersResponse{Users: users[:2]}, nil)

		w := env.do(http.MethodGet, "/v1/users/by-status?status=false", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp ListUsersResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Users, 2)
	})
}

func TestCreateAuthor_BadDate(t *testing.T) {
	env := setupTest(t)

	w := env.do(http.MethodPost, "/v1/authors", gin.H{"first_name": "Isaac", "last_name": "Asimov", "birth_date": "02/01/1920"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], "birth_date")
	env.catalog.AssertNotCalled(t, "CreateAuthor", mock.Anything, mock.Anything)
}

func TestCreateBook_UnknownCategory(t *testing.T) {
	env := setupTest(t)
	env.catalog.On("CreateBook", mock.Anything, mock.MatchedBy(func(in catalog.CreateBookRequest) bool {
		return in.CategoryID == 42 && in.PublicationDate.Equal(time.Date(1951, time.June, 1, 0, 0, 0, 0, time.UTC))
	})).Return(nil, &catalog.UnknownCategoryError{
		CategoryID: 42,
		Categories: []catalog.Category{{ID: 1, Name: "Fantasy"}, {ID: 2, Name: "Science Fiction"}},
	})

	w := env.do(http.MethodPost, "/v1/books", gin.H{
		"title": "Foundation", "publication_date": "1951-06-01", "author_id": 1, "category_id": 42,
	})

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error)
	assert.Contains(t, resp.Message, "unknown category")
	assert.Equal(t, []CategoryResponse{{ID: 1, Name: "Fantasy"}, {ID: 2, Name: "Science Fiction"}}, resp.Categories)
}

func TestListBooks_InvalidQuery(t *testing.T) {
	env := setupTest(t)
	env.catalog.On("ListBooks", mock.Anything, catalog.ListBooksRequest{Query: "x; DROP"}).
		Return(nil, apperrors.NewValidationError("query", "invalid search query"))

	w := env.do(http.MethodGet, "/v1/books?query=x%3B%20DROP", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBook(t *testing.T) {
	env := setupTest(t)
	env.catalog.On("GetBook", mock.Anything, catalog.GetBookRequest{ID: 3}).Return(&catalog.GetBookResponse{
		Book:  catalog.Book{ID: 3, Title: "Dune", PublicationDate: time.Date(1965, time.August, 1, 0, 0, 0, 0, time.UTC)},
		Items: []catalog.BookItem{{ID: 8, Publisher: "Chilton", Available: true, BookID: 3}},
	}, nil)

	w := env.do(http.MethodGet, "/v1/books/3", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp BookDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1965-08-01", resp.PublicationDate)
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].Available)
}

func TestBorrow(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		env := setupTest(t)
		day := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
		env.lending.On("Borrow", mock.Anything, lending.BorrowRequest{UserID: 1, BookTitle: "Dune"}).
			Return(&lending.BorrowResponse{UserID: 1, BookItemID: 8, BookTitle: "Dune", BorrowDate: day, DueDate: day.AddDate(0, 0, 14)}, nil)

		w := env.do(http.MethodPost, "/v1/loans", gin.H{"user_id": 1, "book_title": "Dune"})

		require.Equal(t, http.StatusCreated, w.Code)
		var resp LoanResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "2024-03-29", resp.DueDate)
	})

	t.Run("PolicyViolation", func(t *testing.T) {
		env := setupTest(t)
		env.lending.On("Borrow", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewPolicyViolationError(domain.ReasonBorrowLimit, "borrow limit reached"))

		w := env.do(http.MethodPost, "/v1/loans", gin.H{"user_id": 1, "book_title": "Dune"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decode(t, w)
		assert.Equal(t, "policy_violation", body["error"])
		assert.Equal(t, domain.ReasonBorrowLimit, body["reason"])
	})

	t.Run("MissingTitle", func(t *testing.T) {
		env := setupTest(t)

		w := env.do(http.MethodPost, "/v1/loans", gin.H{"user_id": 1})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("InternalErrorHidden", func(t *testing.T) {
		env := setupTest(t)
		env.lending.On("Borrow", mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection refused"))

		w := env.do(http.MethodPost, "/v1/loans", gin.H{"user_id": 1, "book_title": "Dune"})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pq:")
	})
}

func TestReturnBookItem(t *testing.T) {
	env := setupTest(t)
	env.lending.On("ReturnBookItem", mock.Anything, lending.ReturnRequest{UserID: 1, BookItemID: 8}).
		Return(&lending.ReturnResponse{UserID: 1, BookItemID: 8, BookTitle: "Dune"}, nil)

	w := env.do(http.MethodPut, "/v1/users/1/books/8", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dune", decode(t, w)["book_title"])
}

func TestListActiveLoans(t *testing.T) {
	env := setupTest(t)
	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	env.lending.On("ListActiveLoans", mock.Anything, lending.ListActiveLoansRequest{UserID: 1}).
		Return(&lending.ListActiveLoansResponse{Items: []lending.LoanedItem{
			{BookItemID: 8, BookID: 3, Publisher: "Chilton", BorrowDate: day, DueDate: day.AddDate(0, 0, 14)},
		}}, nil)

	w := env.do(http.MethodGet, "/v1/users/1/loans", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "2024-03-15", items[0].(map[string]any)["due_date"])
}
