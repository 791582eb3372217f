package cached

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"library-service/internal/adapter/cache"
	domain "library-service/internal/domain/library"
	apperrors "library-service/pkg/errors"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRepository) ListByStatus(ctx context.Context, status bool) ([]domain.User, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.User), args.Error(1)
}

func setup(t *testing.T) (*CachedUserRepository, *MockRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zaptest.NewLogger(t)
	db := new(MockRepository)
	return NewCachedUserRepository(db, cache.NewRedisUserCache(client, time.Minute, log), log), db, mr
}

var member = &domain.User{
	ID: 7, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Status: true,
	MembershipRenewalDate: time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC),
}

func TestGetByID_PopulatesCache(t *testing.T) {
	repo, db, mr := setup(t)
	ctx := context.Background()

	db.On("GetByID", ctx, int64(7)).Return(member, nil).Once()

	first, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, member.Email, first.Email)
	assert.True(t, mr.Exists("library:user:7"))

	second, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, *member, *second)

	db.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestGetByID_NotFoundIsNotCached(t *testing.T) {
	repo, db, mr := setup(t)
	ctx := context.Background()

	db.On("GetByID", ctx, int64(9)).Return(nil, apperrors.NewNotFoundError("user", "user not found"))

	_, err := repo.GetByID(ctx, 9)

	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.False(t, mr.Exists("library:user:9"))
}

func TestGetByID_CacheDownFallsBackToDatabase(t *testing.T) {
	repo, db, mr := setup(t)
	ctx := context.Background()

	mr.Close()
	db.On("GetByID", ctx, int64(7)).Return(member, nil)

	u, err := repo.GetByID(ctx, 7)

	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
}

func TestGetByID_ConcurrentMissesShareOneQuery(t *testing.T) {
	repo, db, _ := setup(t)
	ctx := context.Background()

	release := make(chan time.Time)
	db.On("GetByID", ctx, int64(7)).
		WaitUntil(release).
		Return(member, nil)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := repo.GetByID(ctx, 7)
			assert.NoError(t, err)
			assert.Equal(t, int64(7), u.ID)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	db.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestCreate_EvictsEntry(t *testing.T) {
	repo, db, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("library:user:8", `{"id":8}`))
	db.On("Create", ctx, mock.Anything).Return(int64(8), nil)

	id, err := repo.Create(ctx, &domain.User{Email: "new@example.com"})

	require.NoError(t, err)
	assert.Equal(t, int64(8), id)
	assert.False(t, mr.Exists("library:user:8"))
}

func TestNilCachePassThrough(t *testing.T) {
	db := new(MockRepository)
	repo := NewCachedUserRepository(db, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	db.On("GetByID", ctx, int64(7)).Return(member, nil)
	db.On("ListByStatus", ctx, true).Return([]domain.User{*member}, nil)

	u, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)

	users, err := repo.ListByStatus(ctx, true)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
