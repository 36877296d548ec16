package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"marea/internal/stock/service"
	apperrors "marea/pkg/errors"
	httputil "marea/pkg/http"
	"marea/pkg/logger"
	"marea/pkg/model"
)

type StockHandler struct {
	service service.StockService
	log     *logger.Logger
}

func NewStockHandler(service service.StockService, log *logger.Logger) *StockHandler {
	return &StockHandler{
		service: service,
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

func (h *StockHandler) GetCalendar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	from, err := time.Parse(model.DayFormat, query.Get("from"))
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid or missing 'from' parameter, expected YYYY-MM-DD")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetCalendar", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	to, err := time.Parse(model.DayFormat, query.Get("to"))
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid or missing 'to' parameter, expected YYYY-MM-DD")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetCalendar", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var productIDs []string
	if raw := query.Get("product_ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				productIDs = append(productIDs, id)
			}
		}
	}

	cells, err := h.service.GetCalendar(r.Context(), from, to, productIDs)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetCalendar", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, cells); err != nil {
		h.log.Error("failed to write success response", "handler", "GetCalendar", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StockHandler) SetCell(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.StockUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SetCell", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	cell, err := h.service.SetAvailable(r.Context(), &req, staffActor(r))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetCell", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, cell); err != nil {
		h.log.Error("failed to write success response", "handler", "SetCell", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StockHandler) Provision(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ProvisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Provision", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	result, err := h.service.Provision(r.Context(), &req, staffActor(r))
	if err != nil {
		// A partial run still reports how far it got.
		if result != nil && result.Succeeded > 0 {
			if writeErr := httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{
				"error":     "Provisioning incomplete",
				"attempted": result.Attempted,
				"succeeded": result.Succeeded,
			}); writeErr != nil {
				h.log.Error("failed to write JSON response", "handler", "Provision", "operation", "WriteJSON", "error", writeErr)
			}
			return
		}
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Provision", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Provision", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StockHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/stock", h.GetCalendar)
	router.PUT("/api/v1/stock/cells", h.SetCell)
	router.POST("/api/v1/stock/provision", h.Provision)
}
