package handler

import (
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/api"
)

// Server implements api.ServerInterface by delegating to the individual handlers
type Server struct {
	*RecommendationHandler
	*SlotHandler
	*AppointmentHandler
	*HealthHandler
}

var _ api.ServerInterface = (*Server)(nil)

// NewServer combines the handlers into one api.ServerInterface
func NewServer(
	recommendations *RecommendationHandler,
	slots *SlotHandler,
	appointments *AppointmentHandler,
	health *HealthHandler,
) *Server {
	return &Server{
		RecommendationHandler: recommendations,
		SlotHandler:           slots,
		AppointmentHandler:    appointments,
		HealthHandler:         health,
	}
}
