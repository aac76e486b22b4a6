package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime/types"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/api"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeSlotConflict        = "SLOT_CONFLICT"
	CodeNotFound            = "NOT_FOUND"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeInternal            = "INTERNAL_ERROR"
)

func stringPtr(s string) *string {
	return &s
}

func dateToString(d types.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(types.DateFormat)
}

func timeToDate(t time.Time) types.Date {
	return types.Date{Time: t}
}

// classifyError maps a service error to an HTTP status and error code
func classifyError(err error) (int, string) {
	switch {
	case model.IsValidationError(err):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, model.ErrSlotConflict):
		return http.StatusConflict, CodeSlotConflict
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, model.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, CodeUpstreamUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// respondError writes the ErrorResponse for err. Internal errors keep their cause out of the body.
func respondError(c *gin.Context, logger *zap.Logger, message string, err error) {
	status, code := classifyError(err)

	resp := api.ErrorResponse{Code: code, Message: message}
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		resp.Details = stringPtr(strings.Join(ve.Fields, "; "))
	case status == http.StatusConflict:
		resp.Message = "The selected slot is no longer available, please choose another time"
	case status != http.StatusInternalServerError:
		resp.Details = stringPtr(err.Error())
	}

	if status >= http.StatusInternalServerError {
		logger.Error(message, zap.Error(err), zap.String("code", code))
		_ = c.Error(err)
	} else {
		logger.Info(message, zap.Error(err), zap.String("code", code))
	}

	c.JSON(status, resp)
}

// bindError answers a malformed request body
func bindError(c *gin.Context, logger *zap.Logger, err error) {
	logger.Info("invalid request body", zap.Error(err))
	c.JSON(http.StatusBadRequest, api.ErrorResponse{
		Code:    CodeValidation,
		Message: "Invalid request body",
		Details: stringPtr(err.Error()),
	})
}

// ParamErrorHandler answers path and query parameter binding failures
func ParamErrorHandler(c *gin.Context, err error, statusCode int) {
	c.JSON(statusCode, api.ErrorResponse{
		Code:    CodeValidation,
		Message: "Invalid request parameters",
		Details: stringPtr(err.Error()),
	})
}
