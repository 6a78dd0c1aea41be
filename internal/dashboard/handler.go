package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/structura-erp/structura-erp/internal/platform/httpx"
)

// Handler exposes the dashboard summary.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.summary)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		h.logger.Error("dashboard summary", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
