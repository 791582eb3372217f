package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "library-service/internal/domain/library"
	"library-service/internal/usecase/catalog"
	apperrors "library-service/pkg/errors"
	"library-service/pkg/logger"
)

const (
	dateLayout      = "2006-01-02"
	defaultPageSize = 10
	maxPageSize     = 100
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error      string             `json:"error"`
	Message    string             `json:"message,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	Categories []CategoryResponse `json:"categories,omitempty"`
}

// Pagination represents pagination information
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int64 `json:"page"`
	PageSize   int64 `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
}

func paginationResponse(p *domain.Pagination) *Pagination {
	return &Pagination{Total: p.Total, Page: p.Page, PageSize: p.Limit, TotalPages: p.TotalPages}
}

// pageParams reads page and pageSize, falling back to defaults on bad input.
func pageParams(c *gin.Context) (page, pageSize int64) {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err = strconv.ParseInt(c.DefaultQuery("pageSize", strconv.Itoa(defaultPageSize)), 10, 64)
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// pathID parses the named path parameter as a positive id and writes a 400 if it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: name + " must be a positive number",
		})
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(field, "must be a date formatted as YYYY-MM-DD")
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// writeError converts usecase errors to HTTP responses.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var (
		unknownCategory *catalog.UnknownCategoryError
		validation      *apperrors.ValidationError
		notFound        *apperrors.NotFoundError
		exists          *apperrors.AlreadyExistsError
		policy          *apperrors.PolicyViolationError
	)

	switch {
	case errors.As(err, &unknownCategory):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:      "not_found",
			Message:    unknownCategory.Error(),
			Categories: categoryResponses(unknownCategory.Categories),
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: validation.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: notFound.Error()})
	case errors.As(err, &exists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "already_exists", Message: exists.Error()})
	case errors.As(err, &policy):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "policy_violation",
			Message: policy.Error(),
			Reason:  policy.Reason,
		})
	default:
		logger.WithContext(c.Request.Context(), log).Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
