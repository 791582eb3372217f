package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "library-service/internal/domain/library"
	apperrors "library-service/pkg/errors"
)

// UserRepoPG implements the membership Repository interface using GORM.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// Create inserts a new user into the database.
func (r *UserRepoPG) Create(ctx context.Context, u *domain.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	model := UserSchema{
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		Email:                 u.Email,
		Status:                u.Status,
		MembershipRenewalDate: domain.Date(u.MembershipRenewalDate),
		Penalties:             u.Penalties,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.log.Warn("duplicate user email", zap.String("email", u.Email))
			return 0, apperrors.NewAlreadyExistsError("user", "email already exists")
		}
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("user not found", zap.Int64("id", id))
			return nil, apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := toUser(model)
	return &u, nil
}

// GetByEmail retrieves a user by email address. It returns nil, nil when no user has it.
func (r *UserRepoPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	u := toUser(model)
	return &u, nil
}

// List retrieves every user ordered by id.
func (r *UserRepoPG) List(ctx context.Context) ([]domain.User, error) {
	return r.find(r.db.WithContext(ctx))
}

// ListByStatus retrieves the users whose status matches.
func (r *UserRepoPG) ListByStatus(ctx context.Context, status bool) ([]domain.User, error) {
	return r.find(r.db.WithContext(ctx).Where("status = ?", status))
}

func (r *UserRepoPG) find(q *gorm.DB) ([]domain.User, error) {
	var models []UserSchema
	if err := q.Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]domain.User, len(models))
	for i, model := range models {
		users[i] = toUser(model)
	}
	return users, nil
}
