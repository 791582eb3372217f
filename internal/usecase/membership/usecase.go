package membership

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "library-service/internal/domain/library"
	apperrors "library-service/pkg/errors"
	"library-service/pkg/validation"
)

// Repository defines the data access operations needed for members.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)             // Create a new member
	GetByID(ctx context.Context, id int64) (*domain.User, error)           // Retrieve member by ID, NotFoundError if absent
	GetByEmail(ctx context.Context, email string) (*domain.User, error)    // Retrieve member by email, nil if absent
	List(ctx context.Context) ([]domain.User, error)                       // List all members
	ListByStatus(ctx context.Context, status bool) ([]domain.User, error) // List members with the given status
}

// Service implements member registration and lookup.
type Service struct {
	repo     Repository
	clock    domain.Clock
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new membership Service.
func New(r Repository, clock domain.Clock, log *zap.Logger) *Service {
	return &Service{repo: r, clock: clock, log: log, validate: validation.New()}
}

// CreateUser registers a member after validating the request and checking email uniqueness.
// New members are active, renewed today and have no penalties.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	s.log.Info("creating user", zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, validation.Format(err)
	}

	existing, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		s.log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if existing != nil {
		s.log.Warn("email already exists", zap.String("email", in.Email))
		return nil, apperrors.NewAlreadyExistsError("user", "email already exists")
	}

	u := &domain.User{
		FirstName:             in.FirstName,
		LastName:              in.LastName,
		Email:                 in.Email,
		Status:                true,
		MembershipRenewalDate: domain.Date(s.clock.Now()),
		Penalties:             0,
	}
	id, err := s.repo.Create(ctx, u)
	if err != nil {
		s.log.Error("failed to create user", zap.Error(err))
		return nil, err
	}
	u.ID = id

	return &CreateUserResponse{User: toDTO(*u)}, nil
}

// GetUser retrieves a member by ID.
func (s *Service) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	if in.ID <= 0 {
		s.log.Warn("get user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, apperrors.NewValidationError("id", "invalid user id")
	}

	u, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		s.log.Warn("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &GetUserResponse{User: toDTO(*u)}, nil
}

// ListUsers lists every member, or only those with in.Status when it is set.
func (s *Service) ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error) {
	if in.Status != nil {
		return s.ListUsersByStatus(ctx, *in.Status)
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("failed to list users", zap.Error(err))
		return nil, err
	}
	return &ListUsersResponse{Users: toDTOs(users)}, nil
}

// ListUsersByStatus lists members whose status equals status.
func (s *Service) ListUsersByStatus(ctx context.Context, status bool) (*ListUsersResponse, error) {
	users, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		s.log.Error("failed to list users by status", zap.Bool("status", status), zap.Error(err))
		return nil, err
	}
	return &ListUsersResponse{Users: toDTOs(users)}, nil
}

func toDTO(u domain.User) User {
	return User{
		ID:                    u.ID,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		Email:                 u.Email,
		Status:                u.Status,
		MembershipRenewalDate: u.MembershipRenewalDate,
		Penalties:             u.Penalties,
	}
}

func toDTOs(users []domain.User) []User {
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = toDTO(u)
	}
	return out
}
