package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/salon/salon/internal/platform/auth"
	"github.com/salon/salon/pkg/apierror"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts login on the public group and the profile
// endpoint on the authenticated one.
func (h *Handler) RegisterRoutes(api, admin *echo.Group) {
	api.POST("/auth/login", h.Login)
	admin.GET("/auth/me", h.Me)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apierror.BadRequest("invalid request body", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apierror.BadRequest("email and password are required", nil)
	}

	token, user, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return apierror.Unauthorized("invalid email or password")
		}
		return err
	}

	h.logger.Info().Str("email", user.Email).Msg("user logged in")
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

func (h *Handler) Me(c echo.Context) error {
	sess := auth.FromContext(c.Request().Context())
	if sess == nil {
		return apierror.Unauthorized("authentication required")
	}
	u, err := h.svc.CurrentUser(c.Request().Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apierror.NotFound("user not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, u)
}
