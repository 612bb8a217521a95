package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	apperrors "github.com/agenttrace/sycobench/internal/pkg/errors"
)

// Pagination represents pagination parameters for list operations.
type Pagination struct {
	Limit  int
	Offset int
}

// DefaultPagination provides default pagination values.
var DefaultPagination = Pagination{Limit: 50, Offset: 0}

// ParsePagination extracts limit and offset query parameters.
// maxLimit caps the limit (0 for no maximum).
func ParsePagination(c *fiber.Ctx, maxLimit int) Pagination {
	p := Pagination{
		Limit:  parseQueryInt(c, "limit", DefaultPagination.Limit),
		Offset: parseQueryInt(c, "offset", DefaultPagination.Offset),
	}

	if p.Limit <= 0 {
		p.Limit = DefaultPagination.Limit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func parseQueryInt(c *fiber.Ctx, key string, defaultValue int) int {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// runIDParam parses the :runId route parameter, writing a 400 on failure
func runIDParam(c *fiber.Ctx) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Params("runId"))
	if err != nil {
		return uuid.Nil, false, errorResponse(c, fiber.StatusBadRequest, "Invalid run ID")
	}
	return id, true, nil
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func statusName(statusCode int) string {
	switch statusCode {
	case fiber.StatusBadRequest:
		return "Bad Request"
	case fiber.StatusNotFound:
		return "Not Found"
	case fiber.StatusConflict:
		return "Conflict"
	case fiber.StatusBadGateway:
		return "Bad Gateway"
	case fiber.StatusServiceUnavailable:
		return "Service Unavailable"
	case fiber.StatusInternalServerError:
		return "Internal Server Error"
	}
	return "Error"
}

func errorResponse(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(ErrorResponse{
		Error:   statusName(statusCode),
		Message: message,
	})
}

// appErrorResponse maps app errors to their status. Anything else is a 500
// with a generic message.
func appErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	appErr := apperrors.GetAppError(err)
	if appErr == nil || appErr.StatusCode >= fiber.StatusInternalServerError {
		return errorResponse(c, fiber.StatusInternalServerError, fallback)
	}
	return c.Status(appErr.StatusCode).JSON(ErrorResponse{
		Error:   statusName(appErr.StatusCode),
		Message: appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}
