package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusubmit-api/internal/dto"
	"github.com/noah-isme/edusubmit-api/internal/middleware"
	"github.com/noah-isme/edusubmit-api/internal/service"
	"github.com/noah-isme/edusubmit-api/internal/utils"
)

// SessionHandler exposes the page session state machine.
type SessionHandler struct {
	service   service.SessionService
	validator *service.Validator
	logger    zerolog.Logger
}

// NewSessionHandler builds a session handler instance.
func NewSessionHandler(service service.SessionService, validator *service.Validator, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. The login
// limiter guards only the login route.
func (h *SessionHandler) Register(router fiber.Router, loginLimiter fiber.Handler) {
	if loginLimiter == nil {
		loginLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Get("", h.current)
	router.Post("/login", loginLimiter, h.login)
	router.Post("/logout", h.logout)
	router.Post("/overlay/ack", h.acknowledge)
}

func (h *SessionHandler) current(c *fiber.Ctx) error {
	session, err := h.service.Open(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "session retrieved", dto.NewSessionResponse(session))
}

func (h *SessionHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if err := h.validator.Struct(payload); err != nil {
		return respondError(c, h.logger, err)
	}

	role, err := service.ParseRole(payload.Role)
	if err != nil {
		return respondError(c, h.logger, service.NewValidationError("role", err.Error()))
	}

	session, err := h.service.Login(c.UserContext(), middleware.SessionID(c), role, payload.Password)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "logged in", dto.NewSessionResponse(session))
}

func (h *SessionHandler) logout(c *fiber.Ctx) error {
	session, err := h.service.Logout(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "logged out", dto.NewSessionResponse(session))
}

func (h *SessionHandler) acknowledge(c *fiber.Ctx) error {
	session, err := h.service.Acknowledge(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "overlay acknowledged", dto.NewSessionResponse(session))
}
