package membership

import "time"

// CreateUserRequest represents the request payload for registering a member.
type CreateUserRequest struct {
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"required,max=100"`
	Email     string `validate:"required,email"`
}

// CreateUserResponse represents the registered member.
type CreateUserResponse struct {
	User User
}

// GetUserRequest represents the request payload for retrieving a member.
type GetUserRequest struct {
	ID int64
}

// GetUserResponse represents the member details.
type GetUserResponse struct {
	User User
}

// ListUsersRequest represents the request payload for listing members.
// A nil Status lists everyone.
type ListUsersRequest struct {
	Status *bool
}

// ListUsersResponse represents the response payload for member listing.
type ListUsersResponse struct {
	Users []User
}

// User represents a member DTO for API responses.
type User struct {
	ID                    int64
	FirstName             string
	LastName              string
	Email                 string
	Status                bool
	MembershipRenewalDate time.Time
	Penalties             int
}
