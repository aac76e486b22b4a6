package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/service"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/api"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// AppointmentHandler implements the booking endpoints
type AppointmentHandler struct {
	booking *service.BookingService
	logger  *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler
func NewAppointmentHandler(booking *service.BookingService, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		booking: booking,
		logger:  logger,
	}
}

// PostApiV1Appointments books an appointment
func (h *AppointmentHandler) PostApiV1Appointments(c *gin.Context) {
	var req api.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	bookingReq := model.BookingRequest{
		PatientID:          req.PatientId,
		DoctorID:           req.DoctorId,
		Date:               dateToString(req.Date),
		Time:               req.Time,
		DiagnosticReportID: req.DiagnosticReportId,
		PreAnalysisID:      req.PreAnalysisId,
		PaymentMethod:      req.PaymentMethod,
		Reason:             req.Reason,
	}
	if req.DurationMinutes != nil {
		bookingReq.DurationMinutes = *req.DurationMinutes
	}
	if req.Type != nil {
		bookingReq.Type = model.AppointmentType(*req.Type)
	}
	if req.PaymentStatus != nil {
		bookingReq.PaymentStatus = model.PaymentStatus(*req.PaymentStatus)
	}

	appt, err := h.booking.BookAppointment(c.Request.Context(), bookingReq)
	if err != nil {
		respondError(c, h.logger, "Failed to book appointment", err)
		return
	}

	h.logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("doctor_id", appt.DoctorID),
		zap.String("patient_id", appt.PatientID),
	)

	c.JSON(http.StatusCreated, toAppointmentResponse(appt))
}

// GetApiV1AppointmentsId returns a booked appointment
func (h *AppointmentHandler) GetApiV1AppointmentsId(c *gin.Context, id string) {
	appt, err := h.booking.GetAppointment(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Failed to get appointment", err)
		return
	}

	c.JSON(http.StatusOK, toAppointmentResponse(appt))
}

func toAppointmentResponse(appt *model.Appointment) api.AppointmentResponse {
	return api.AppointmentResponse{
		Id:                 appt.ID,
		DoctorId:           appt.DoctorID,
		PatientId:          appt.PatientID,
		Date:               timeToDate(appt.Date),
		Time:               appt.StartTime.String(),
		DurationMinutes:    appt.DurationMinutes,
		Type:               string(appt.Type),
		Status:             string(appt.Status),
		DiagnosticReportId: appt.DiagnosticReportID,
		PreAnalysisId:      appt.PreAnalysisID,
		PaymentStatus:      string(appt.PaymentStatus),
		PaymentMethod:      appt.PaymentMethod,
		ReportShared:       appt.ReportShared,
		Reason:             appt.Reason,
		CreatedAt:          appt.CreatedAt,
		UpdatedAt:          appt.UpdatedAt,
	}
}
