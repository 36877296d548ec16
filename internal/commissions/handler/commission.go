package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"marea/internal/commissions/service"
	httputil "marea/pkg/http"
	"marea/pkg/logger"
	"marea/pkg/model"
)

type CommissionHandler struct {
	service service.CommissionService
	log     *logger.Logger
}

func NewCommissionHandler(service service.CommissionService, log *logger.Logger) *CommissionHandler {
	return &CommissionHandler{
		service: service,
		log:     log,
	}
}

func staffActor(r *http.Request) string {
	if actor := strings.TrimSpace(r.Header.Get("X-Staff-User")); actor != "" {
		return actor
	}
	return "staff"
}

func (h *CommissionHandler) RecordPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CommissionPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "RecordPayment", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), &req, staffActor(r))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RecordPayment", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, payment); err != nil {
		h.log.Error("failed to write created response", "handler", "RecordPayment", "operation", "WriteCreated", "error", err)
	}
}

func (h *CommissionHandler) GetByPartner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByPartner", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	payments, total, err := h.service.GetByPartner(r.Context(), ps.ByName("partnerId"), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByPartner", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, payments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetByPartner", "operation", "WritePaginated", "error", err)
	}
}

func (h *CommissionHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/commissions/payments", h.RecordPayment)
	router.GET("/api/v1/commissions/payments/partner/:partnerId", h.GetByPartner)
}
