package logs

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"analysis-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the logs service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches log routes to the router group. The group is
// expected to require an authenticated admin.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/logs", h.listLogs)
	rg.DELETE("/logs", h.clearLogs)
}

func (h *Handler) clearLogs(c *gin.Context) {
	if err := h.Svc.Clear(c.Request.Context()); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to clear logs", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listLogs(c *gin.Context) {
	f := Filter{
		Level:  c.Query("level"),
		Source: c.Query("source"),
		Limit:  intQuery(c, "limit", 100),
		Offset: intQuery(c, "offset", 0),
	}
	if f.Level != "" && !KnownLevel(f.Level) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown log level", nil)
		return
	}

	entries, total, err := h.Svc.List(c.Request.Context(), f)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list logs", nil)
		return
	}
	respond.OK(c, gin.H{"logs": entries, "total": total})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
