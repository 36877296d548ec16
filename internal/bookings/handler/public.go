package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"marea/internal/bookings/service"
	httputil "marea/pkg/http"
	"marea/pkg/logger"
	"marea/pkg/model"
)

// PublicHandler serves the unauthenticated surface: shareable booking links
// and the contract-signing page. Everything here is token-guarded.
type PublicHandler struct {
	service service.BookingService
	links   service.LinkService
	log     *logger.Logger
}

func NewPublicHandler(service service.BookingService, links service.LinkService, log *logger.Logger) *PublicHandler {
	return &PublicHandler{
		service: service,
		links:   links,
		log:     log,
	}
}

// publicLinkView hides staff-side fields from the public page.
type publicLinkView struct {
	Token     string `json:"token"`
	SingleUse bool   `json:"single_use"`
}

func (h *PublicHandler) VisitLink(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	link, err := h.links.Visit(r.Context(), ps.ByName("token"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "VisitLink", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, publicLinkView{
		Token:     link.Token,
		SingleUse: link.SingleUse,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "VisitLink", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PublicHandler) CreateBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateBooking", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	req.Channel = model.ChannelPublicLink
	req.CreatedBy = "public"
	req.LinkToken = ps.ByName("token")
	// The payment bypass is a staff-only switch.
	req.BypassPayment = false

	booking, err := h.service.Reserve(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateBooking", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateBooking", "operation", "WriteCreated", "error", err)
	}
}

// publicBookingView is the contract-page projection of a booking: enough to
// review and sign, nothing operational.
type publicBookingView struct {
	ClientName    string              `json:"client_name"`
	StartDate     time.Time           `json:"start_date"`
	EndDate       time.Time           `json:"end_date"`
	Items         []model.BookingItem `json:"items"`
	TotalPrice    float64             `json:"total_price"`
	Status        string              `json:"status"`
	Signed        bool                `json:"signed"`
	Paid          bool                `json:"paid"`
	HoldExpiresAt *time.Time          `json:"hold_expires_at,omitempty"`
}

func (h *PublicHandler) GetContract(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByAccessToken(r.Context(), ps.ByName("token"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetContract", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, publicBookingView{
		ClientName:    booking.ClientName,
		StartDate:     booking.StartDate,
		EndDate:       booking.EndDate,
		Items:         booking.Items,
		TotalPrice:    booking.TotalPrice,
		Status:        booking.Status,
		Signed:        booking.Signed,
		Paid:          booking.Paid,
		HoldExpiresAt: booking.HoldExpiresAt,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "GetContract", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PublicHandler) SubmitSignature(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.SignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SubmitSignature", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.SubmitSignature(r.Context(), ps.ByName("token"), &req); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SubmitSignature", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *PublicHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/public/links/:token", h.VisitLink)
	router.POST("/api/v1/public/links/:token/bookings", h.CreateBooking)
	router.GET("/api/v1/public/contracts/:token", h.GetContract)
	router.POST("/api/v1/public/contracts/:token/signature", h.SubmitSignature)
}
