package membership

import "context"

// Usecase defines the interface for membership operations.
type Usecase interface {
	CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error)
	GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error)
	ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error)
	ListUsersByStatus(ctx context.Context, status bool) (*ListUsersResponse, error)
}
