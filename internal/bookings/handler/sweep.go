package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"marea/internal/bookings/service"
	httputil "marea/pkg/http"
	"marea/pkg/logger"
)

// SweepHandler exposes the expiry sweep to the external scheduler. The route
// sits behind the shared-secret middleware on the internal mux.
type SweepHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewSweepHandler(service service.BookingService, log *logger.Logger) *SweepHandler {
	return &SweepHandler{
		service: service,
		log:     log,
	}
}

func (h *SweepHandler) Sweep(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	result, err := h.service.SweepExpired(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Sweep", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Sweep", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SweepHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/internal/sweep", h.Sweep)
}
