package setup

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"analysis-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the setup service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the wizard routes. They are public: before the
// first admin exists there is nobody to authenticate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/initialize/status", h.status)
	rg.POST("/initialize", h.initialize)
}

func (h *Handler) status(c *gin.Context) {
	done, err := h.Svc.Initialized(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to check initialization", nil)
		return
	}
	respond.OK(c, gin.H{"initialized": done})
}

func (h *Handler) initialize(c *gin.Context) {
	var payload Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	if err := h.Svc.Initialize(c.Request.Context(), payload); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyInitialized):
			respond.Error(c, http.StatusBadRequest, "validation_error", "application is already initialized", nil)
		default:
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		}
		return
	}
	c.Status(http.StatusCreated)
}
