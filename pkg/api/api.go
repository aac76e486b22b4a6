// Package api holds the HTTP request/response types and the gin server glue for the booking API.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
)

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// RecommendationRequest defines model for RecommendationRequest.
type RecommendationRequest struct {
	Report  model.DiagnosticReport       `json:"report"`
	Patient *model.PatientProfile        `json:"patient,omitempty"`
	Filters *model.RecommendationFilters `json:"filters,omitempty"`
}

// RecommendationResponse defines model for RecommendationResponse.
type RecommendationResponse struct {
	Specialties     []string                     `json:"specialties"`
	Recommendations []model.RecommendationResult `json:"recommendations"`
}

// SlotsResponse defines model for SlotsResponse.
type SlotsResponse struct {
	DoctorId        string             `json:"doctor_id"`
	Date            openapi_types.Date `json:"date"`
	DurationMinutes int                `json:"duration_minutes"`
	Slots           []model.TimeSlot   `json:"slots"`
}

// CreateAppointmentRequest defines model for CreateAppointmentRequest.
type CreateAppointmentRequest struct {
	PatientId          string             `json:"patient_id"`
	DoctorId           string             `json:"doctor_id"`
	Date               openapi_types.Date `json:"date"`
	Time               string             `json:"time"`
	DurationMinutes    *int               `json:"duration_minutes,omitempty"`
	Type               *string            `json:"type,omitempty"`
	DiagnosticReportId *string            `json:"diagnostic_report_id,omitempty"`
	PreAnalysisId      *string            `json:"pre_analysis_id,omitempty"`
	PaymentStatus      *string            `json:"payment_status,omitempty"`
	PaymentMethod      *string            `json:"payment_method,omitempty"`
	Reason             *string            `json:"reason,omitempty"`
}

// AppointmentResponse defines model for AppointmentResponse.
type AppointmentResponse struct {
	Id                 string             `json:"id"`
	DoctorId           string             `json:"doctor_id"`
	PatientId          string             `json:"patient_id"`
	Date               openapi_types.Date `json:"date"`
	Time               string             `json:"time"`
	DurationMinutes    int                `json:"duration_minutes"`
	Type               string             `json:"type"`
	Status             string             `json:"status"`
	DiagnosticReportId *string            `json:"diagnostic_report_id,omitempty"`
	PreAnalysisId      *string            `json:"pre_analysis_id,omitempty"`
	PaymentStatus      string             `json:"payment_status"`
	PaymentMethod      *string            `json:"payment_method,omitempty"`
	ReportShared       bool               `json:"report_shared"`
	Reason             *string            `json:"reason,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// GetApiV1DoctorsIdSlotsParams defines parameters for GetApiV1DoctorsIdSlots.
type GetApiV1DoctorsIdSlotsParams struct {
	Date     openapi_types.Date `form:"date" json:"date"`
	Duration *int               `form:"duration,omitempty" json:"duration,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /health)
	GetHealth(c *gin.Context)
	// (POST /api/v1/appointments)
	PostApiV1Appointments(c *gin.Context)
	// (GET /api/v1/appointments/{id})
	GetApiV1AppointmentsId(c *gin.Context, id string)
	// (GET /api/v1/doctors/{id}/slots)
	GetApiV1DoctorsIdSlots(c *gin.Context, id string, params GetApiV1DoctorsIdSlotsParams)
	// (POST /api/v1/recommendations)
	PostApiV1Recommendations(c *gin.Context)
}

// MiddlewareFunc runs before a handler once its parameters are bound
type MiddlewareFunc func(c *gin.Context)

// ServerInterfaceWrapper converts gin contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandler       func(*gin.Context, error, int)
}

func (siw *ServerInterfaceWrapper) runMiddlewares(c *gin.Context) bool {
	for _, middleware := range siw.HandlerMiddlewares {
		middleware(c)
		if c.IsAborted() {
			return false
		}
	}
	return true
}

// GetHealth operation middleware
func (siw *ServerInterfaceWrapper) GetHealth(c *gin.Context) {
	if !siw.runMiddlewares(c) {
		return
	}
	siw.Handler.GetHealth(c)
}

// PostApiV1Appointments operation middleware
func (siw *ServerInterfaceWrapper) PostApiV1Appointments(c *gin.Context) {
	if !siw.runMiddlewares(c) {
		return
	}
	siw.Handler.PostApiV1Appointments(c)
}

// GetApiV1AppointmentsId operation middleware
func (siw *ServerInterfaceWrapper) GetApiV1AppointmentsId(c *gin.Context) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id, runtime.BindStyledParameterOptions{Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter id: %w", err), http.StatusBadRequest)
		return
	}

	if !siw.runMiddlewares(c) {
		return
	}
	siw.Handler.GetApiV1AppointmentsId(c, id)
}

// GetApiV1DoctorsIdSlots operation middleware
func (siw *ServerInterfaceWrapper) GetApiV1DoctorsIdSlots(c *gin.Context) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id, runtime.BindStyledParameterOptions{Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter id: %w", err), http.StatusBadRequest)
		return
	}

	var params GetApiV1DoctorsIdSlotsParams

	err = runtime.BindQueryParameter("form", true, true, "date", c.Request.URL.Query(), &params.Date)
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter date: %w", err), http.StatusBadRequest)
		return
	}

	err = runtime.BindQueryParameter("form", true, false, "duration", c.Request.URL.Query(), &params.Duration)
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter duration: %w", err), http.StatusBadRequest)
		return
	}

	if !siw.runMiddlewares(c) {
		return
	}
	siw.Handler.GetApiV1DoctorsIdSlots(c, id, params)
}

// PostApiV1Recommendations operation middleware
func (siw *ServerInterfaceWrapper) PostApiV1Recommendations(c *gin.Context) {
	if !siw.runMiddlewares(c) {
		return
	}
	siw.Handler.PostApiV1Recommendations(c)
}

// GinServerOptions provides options for the Gin server.
type GinServerOptions struct {
	BaseURL      string
	Middlewares  []MiddlewareFunc
	ErrorHandler func(*gin.Context, error, int)
}

// RegisterHandlers creates http.Handler with routing matching the API routes.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, GinServerOptions{})
}

// RegisterHandlersWithOptions creates http.Handler with additional options
func RegisterHandlersWithOptions(router gin.IRouter, si ServerInterface, options GinServerOptions) {
	errorHandler := options.ErrorHandler
	if errorHandler == nil {
		errorHandler = func(c *gin.Context, err error, statusCode int) {
			c.JSON(statusCode, ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			})
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandler:       errorHandler,
	}

	router.GET(options.BaseURL+"/health", wrapper.GetHealth)
	router.POST(options.BaseURL+"/api/v1/appointments", wrapper.PostApiV1Appointments)
	router.GET(options.BaseURL+"/api/v1/appointments/:id", wrapper.GetApiV1AppointmentsId)
	router.GET(options.BaseURL+"/api/v1/doctors/:id/slots", wrapper.GetApiV1DoctorsIdSlots)
	router.POST(options.BaseURL+"/api/v1/recommendations", wrapper.PostApiV1Recommendations)
}
