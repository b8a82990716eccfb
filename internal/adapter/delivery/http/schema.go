package http

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
)

const statusError = "error"

type scheduleSchema struct {
	Start          time.Time `json:"start" validate:"required"`
	End            time.Time `json:"end" validate:"required,gtfield=Start"`
	AlternativeURL string    `json:"alternative_url" validate:"required,url"`
}

func toSchedules(schemas []scheduleSchema) []entity.Schedule {
	if len(schemas) == 0 {
		return nil
	}

	schedules := make([]entity.Schedule, 0, len(schemas))
	for _, s := range schemas {
		schedules = append(schedules, entity.Schedule{
			Start:          s.Start.UTC(),
			End:            s.End.UTC(),
			AlternativeURL: s.AlternativeURL,
		})
	}

	return schedules
}

func toScheduleSchemas(schedules []entity.Schedule) []scheduleSchema {
	if len(schedules) == 0 {
		return nil
	}

	schemas := make([]scheduleSchema, 0, len(schedules))
	for _, s := range schedules {
		schemas = append(schemas, scheduleSchema{
			Start:          s.Start,
			End:            s.End,
			AlternativeURL: s.AlternativeURL,
		})
	}

	return schemas
}

// shortenRequest represents a request to shorten a URL. An empty vanity asks
// for a generated short code.
type shortenRequest struct {
	URL       string           `json:"url" validate:"required,url"`
	Title     string           `json:"title" validate:"max=256"`
	Vanity    string           `json:"vanity" validate:"omitempty,max=64,excludesall=/?#%"`
	Schedules []scheduleSchema `json:"schedules" validate:"omitempty,dive"`
}

// updateRequest replaces the target, title and schedules of a URL.
type updateRequest struct {
	URL       string           `json:"url" validate:"required,url"`
	Title     string           `json:"title" validate:"max=256"`
	Schedules []scheduleSchema `json:"schedules" validate:"omitempty,dive"`
}

type urlResponse struct {
	ShortCode  string           `json:"short_code"`
	ShortURL   string           `json:"short_url"`
	URL        string           `json:"url"`
	Title      string           `json:"title,omitempty"`
	Clicks     int64            `json:"clicks"`
	IsArchived bool             `json:"is_archived"`
	Schedules  []scheduleSchema `json:"schedules,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type listResponse struct {
	URLs  []urlResponse `json:"urls"`
	Count int           `json:"count"`
}

type clickDateResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type clickStatsResponse struct {
	ShortCode string              `json:"short_code"`
	Items     []clickDateResponse `json:"items"`
}

func toClickStatsResponse(stats *entity.ClickStats) clickStatsResponse {
	items := make([]clickDateResponse, 0, len(stats.Items))
	for _, item := range stats.Items {
		items = append(items, clickDateResponse{Date: item.Date, Count: item.Count})
	}

	return clickStatsResponse{
		ShortCode: stats.ShortCode,
		Items:     items,
	}
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	invalidQueryResponse = errorResponse{
		Status:  statusError,
		Message: "invalid query parameter",
	}

	invalidInputResponse = errorResponse{
		Status:  statusError,
		Message: "invalid input",
	}

	urlNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "url not found",
	}

	shortCodeExistsResponse = errorResponse{
		Status:  statusError,
		Message: "short code already exists",
	}

	conflictResponse = errorResponse{
		Status:  statusError,
		Message: "url is being modified concurrently, try again",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url":
		return "invalid url"
	case "gtfield":
		return "must be after start"
	case "max":
		return "value is too long"
	case "excludesall":
		return "contains forbidden characters"
	default:
		return "invalid value"
	}
}

// getValidationErrors processes validation errors and returns a list of validationError.
func getValidationErrors(err error) []validationError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	validationErrs := make([]validationError, 0, len(errs))
	for _, e := range errs {
		validationErrs = append(validationErrs, validationError{
			Field:   e.Field(),
			Message: messageForTag(e.Tag()),
		})
	}

	return validationErrs
}

// validationErrorResponse constructs an errorResponse for validation errors.
func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}
