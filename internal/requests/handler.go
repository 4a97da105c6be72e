package requests

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"analysis-backend/internal/diffview"
	"analysis-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the requests service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches request routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/requests", h.createRequest)
	rg.GET("/requests", h.listRequests)
	rg.GET("/requests/:id", h.getRequest)
	rg.GET("/requests/:id/view", h.getRequestView)
	rg.POST("/requests/:id/regenerate", h.regenerateRequest)
}

// RegisterAdminRoutes attaches routes that require an authenticated admin.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/requests/:id", h.deleteRequest)
	rg.POST("/requests/batch", h.batchRequests)
}

type batchPayload struct {
	Action     string  `json:"action"`
	RequestIDs []int64 `json:"request_ids"`
}

func (h *Handler) batchRequests(c *gin.Context) {
	var payload batchPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if len(payload.RequestIDs) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "request_ids must not be empty", nil)
		return
	}

	results, err := h.Svc.BatchAction(c.Request.Context(), payload.Action, payload.RequestIDs)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownBatchAction):
			respond.Error(c, http.StatusBadRequest, "validation_error", "action must be delete or retry", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to apply batch action", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"message": fmt.Sprintf("Batch %s processed", payload.Action),
		"results": results,
	})
}

func (h *Handler) createRequest(c *gin.Context) {
	var sub Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	req, err := h.Svc.Create(c.Request.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptySubmission):
			respond.Error(c, http.StatusBadRequest, "validation_error", "submission must include a prompt or at least one image", nil)
		case errors.Is(err, ErrTooManyImages):
			respond.Error(c, http.StatusBadRequest, "validation_error", "a submission can include at most 5 images", nil)
		case errors.Is(err, ErrImageTooLarge):
			respond.Error(c, http.StatusBadRequest, "validation_error", "each image must be 2 MiB or smaller", nil)
		case errors.Is(err, ErrUnsupportedImage):
			respond.Error(c, http.StatusBadRequest, "validation_error", "only image attachments are supported", nil)
		case errors.Is(err, ErrBadImageEncoding):
			respond.Error(c, http.StatusBadRequest, "validation_error", "images must be base64 data URLs", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create request", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toSummary(req))
}

func (h *Handler) listRequests(c *gin.Context) {
	statusFilter := c.Query("status")
	if statusFilter != "" && !KnownStatus(statusFilter) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown status filter", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	page, err := h.Svc.List(c.Request.Context(), statusFilter, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list requests", nil)
		return
	}
	respond.OK(c, page)
}

func (h *Handler) getRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	detail, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "request not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch request", nil)
		}
		return
	}
	respond.OK(c, detail)
}

func (h *Handler) getRequestView(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	req, err := h.Svc.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "request not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch request", nil)
		}
		return
	}

	opts := diffview.Options{IgnoreWhitespace: c.Query("ignore_whitespace") == "true"}
	respond.OK(c, BuildView(req, opts))
}

func (h *Handler) regenerateRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	req, err := h.Svc.Regenerate(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "request not found", nil)
		case errors.Is(err, ErrRegenerateUnstable):
			respond.Error(c, http.StatusConflict, "conflict", "request is still processing", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to regenerate request", nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, toSummary(req))
}

func (h *Handler) deleteRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "request not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete request", nil)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "request id must be a positive integer", nil)
		return 0, false
	}
	return id, true
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
