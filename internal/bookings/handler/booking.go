package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"marea/internal/bookings/service"
	httputil "marea/pkg/http"
	"marea/pkg/logger"
	"marea/pkg/model"
)

// BookingHandler serves the staff panel: booking intake and lifecycle
// actions. The public-link and contract-page flows live in PublicHandler.
type BookingHandler struct {
	service service.BookingService
	links   service.LinkService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, links service.LinkService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		links:   links,
		log:     log,
	}
}

// staffActor identifies who made a staff-panel change for audit fields. There
// is no auth layer in front of this service; the panel forwards its user name.
func staffActor(r *http.Request) string {
	if actor := strings.TrimSpace(r.Header.Get("X-Staff-User")); actor != "" {
		return actor
	}
	return "staff"
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	req.Channel = model.ChannelStaff
	req.CreatedBy = staffActor(r)

	booking, err := h.service.Reserve(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) GetByPartner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByPartner", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	bookings, total, err := h.service.GetByPartner(r.Context(), ps.ByName("partnerId"), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByPartner", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetByPartner", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "ConfirmPayment", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.ConfirmPayment(r.Context(), ps.ByName("id"), &req, staffActor(r)); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ConfirmPayment", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Cancel", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Cancel(r.Context(), ps.ByName("id"), req.Reason, staffActor(r)); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Cancel", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) Refund(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Refund", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Refund(r.Context(), ps.ByName("id"), &req, staffActor(r)); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Refund", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) Release(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Release(r.Context(), ps.ByName("id"), staffActor(r)); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Release", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id"), staffActor(r)); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) CreateLink(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateLink", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	link, err := h.links.Create(r.Context(), &req, staffActor(r))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateLink", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, link); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateLink", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetLinks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetLinks", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	links, total, err := h.links.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetLinks", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, links, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetLinks", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) DeactivateLink(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.links.Deactivate(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DeactivateLink", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.GET("/api/v1/bookings/partner/:partnerId", h.GetByPartner)
	router.POST("/api/v1/bookings/id/:id/payment", h.ConfirmPayment)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/id/:id/refund", h.Refund)
	router.POST("/api/v1/bookings/id/:id/release", h.Release)
	router.DELETE("/api/v1/bookings/id/:id", h.Delete)

	router.POST("/api/v1/links", h.CreateLink)
	router.GET("/api/v1/links", h.GetLinks)
	router.DELETE("/api/v1/links/id/:id", h.DeactivateLink)
}
