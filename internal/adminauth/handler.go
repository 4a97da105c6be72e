package adminauth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"analysis-backend/internal/shared/server/middleware"
	"analysis-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the auth service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the login routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login/access-token", h.accessToken)
}

// RegisterAdminRoutes attaches routes that require an authenticated admin.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/login/test-token", h.testToken)
	rg.PUT("/me", h.updateProfile)
}

func (h *Handler) accessToken(c *gin.Context) {
	// OAuth2 password flow shape: the dashboard posts form fields.
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "username and password are required", nil)
		return
	}

	token, err := h.Svc.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "incorrect username or password", nil)
		case errors.Is(err, ErrInactiveUser):
			respond.Error(c, http.StatusForbidden, "forbidden", "inactive user", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to log in", nil)
		}
		return
	}
	respond.OK(c, token)
}

type profileUpdate struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	var body profileUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	username := middleware.AdminFromContext(c)
	user, err := h.Svc.UpdateProfile(c.Request.Context(), username, body.Username, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			respond.Error(c, http.StatusConflict, "conflict", "Username already exists. Please choose a different one.", nil)
		case errors.Is(err, ErrWeakPassword):
			respond.Error(c, http.StatusBadRequest, "validation_error", ErrWeakPassword.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "could not validate credentials", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update profile", nil)
		}
		return
	}
	respond.OK(c, user)
}

func (h *Handler) testToken(c *gin.Context) {
	username := middleware.AdminFromContext(c)
	user, err := h.Svc.Repo.GetByUsername(c.Request.Context(), username)
	if err != nil {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "could not validate credentials", nil)
		return
	}
	respond.OK(c, user)
}
