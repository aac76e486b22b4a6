package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/service"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/api"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// SlotHandler serves a doctor's daily availability
type SlotHandler struct {
	availability *service.AvailabilityService
	doctors      service.DoctorLookup
	logger       *zap.Logger
}

// NewSlotHandler creates a new SlotHandler
func NewSlotHandler(availability *service.AvailabilityService, doctors service.DoctorLookup, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{
		availability: availability,
		doctors:      doctors,
		logger:       logger,
	}
}

// GetApiV1DoctorsIdSlots lists the day's slots for a doctor
func (h *SlotHandler) GetApiV1DoctorsIdSlots(c *gin.Context, id string, params api.GetApiV1DoctorsIdSlotsParams) {
	duration := h.availability.SlotMinutes()
	if params.Duration != nil {
		if *params.Duration <= 0 {
			respondError(c, h.logger, "Invalid slot duration",
				&model.ValidationError{Fields: []string{"duration must be positive"}})
			return
		}
		duration = *params.Duration
	}

	if h.doctors != nil {
		if _, err := service.ResolveBookableDoctor(c.Request.Context(), h.doctors, id); err != nil {
			respondError(c, h.logger, "Doctor not available", err)
			return
		}
	}

	slots, err := h.availability.GetSlots(c.Request.Context(), id, params.Date.Time, duration)
	if err != nil {
		respondError(c, h.logger, "Failed to load availability", err)
		return
	}

	c.JSON(http.StatusOK, api.SlotsResponse{
		DoctorId:        id,
		Date:            params.Date,
		DurationMinutes: duration,
		Slots:           slots,
	})
}
