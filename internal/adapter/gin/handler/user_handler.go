package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "library-service/internal/domain/library"
	"library-service/internal/usecase/membership"
)

// UserHandler handles HTTP requests for member operations
type UserHandler struct {
	uc  membership.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc membership.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest represents the HTTP request body for registering a member
type CreateUserRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email"`
}

// UserResponse represents the HTTP response for member data
type UserResponse struct {
	ID                    int64  `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	Email                 string `json:"email"`
	Status                bool   `json:"status"`
	MembershipRenewalDate string `json:"membership_renewal_date"`
	Penalties             int    `json:"penalties"`
}

// ListUsersResponse represents the HTTP response for listing members
type ListUsersResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination *Pagination    `json:"pagination,omitempty"`
}

// CreateUser handles POST /v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid create user request", zap.Error(err))
		badRequest(c, err)
		return
	}

	h.log.Info("Gin CreateUser request", zap.String("email", req.Email))

	resp, err := h.uc.CreateUser(c.Request.Context(), membership.CreateUserRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, userResponse(resp.User))
}

// GetUser handles GET /v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), membership.GetUserRequest{ID: id})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, userResponse(resp.User))
}

// ListUsers handles GET /v1/users with an optional status filter
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req membership.ListUsersRequest
	if raw, ok := c.GetQuery("status"); ok {
		status, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "status must be true or false"})
			return
		}
		req.Status = &status
	}

	resp, err := h.uc.ListUsers(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.writeUsers(c, resp.Users)
}

// ListUsersByStatus handles GET /v1/users/by-status?status=
func (h *UserHandler) ListUsersByStatus(c *gin.Context) {
	status, err := strconv.ParseBool(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "status is required and must be true or false"})
		return
	}

	resp, err := h.uc.ListUsersByStatus(c.Request.Context(), status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.writeUsers(c, resp.Users)
}

func (h *UserHandler) writeUsers(c *gin.Context, users []membership.User) {
	page, pageSize := pageParams(c)
	slice, p := domain.Paginate(users, page, pageSize)

	out := make([]UserResponse, len(slice))
	for i, u := range slice {
		out[i] = userResponse(u)
	}

	c.JSON(http.StatusOK, ListUsersResponse{Users: out, Pagination: paginationResponse(p)})
}

func userResponse(u membership.User) UserResponse {
	return UserResponse{
		ID:                    u.ID,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		Email:                 u.Email,
		Status:                u.Status,
		MembershipRenewalDate: formatDate(u.MembershipRenewalDate),
		Penalties:             u.Penalties,
	}
}
