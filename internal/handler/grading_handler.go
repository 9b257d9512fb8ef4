package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusubmit-api/internal/dto"
	"github.com/noah-isme/edusubmit-api/internal/middleware"
	"github.com/noah-isme/edusubmit-api/internal/service"
	"github.com/noah-isme/edusubmit-api/internal/utils"
)

// GradingHandler manages the teacher's grading view.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler builds a grading handler instance.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Get("", h.view)
	router.Post("/refresh", h.refresh)
	router.Patch("/:rowId", h.edit)
	router.Post("/:rowId/save", h.save)
}

func (h *GradingHandler) view(c *fiber.Ctx) error {
	result, err := h.service.View(c.UserContext(), middleware.SessionID(c), gradingFilter(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submissions retrieved", result)
}

func (h *GradingHandler) refresh(c *fiber.Ctx) error {
	result, err := h.service.Refresh(c.UserContext(), middleware.SessionID(c), gradingFilter(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submissions refreshed", result)
}

func (h *GradingHandler) edit(c *fiber.Ctx) error {
	rowID, err := c.ParamsInt("rowId")
	if err != nil || rowID <= 0 {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidRowID)
	}

	var payload dto.GradeEditRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	edit, err := h.service.Edit(c.UserContext(), middleware.SessionID(c), rowID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grade buffered", edit)
}

func (h *GradingHandler) save(c *fiber.Ctx) error {
	rowID, err := c.ParamsInt("rowId")
	if err != nil || rowID <= 0 {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidRowID)
	}

	result, err := h.service.Save(c.UserContext(), middleware.SessionID(c), rowID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, result.Message, result)
}

func gradingFilter(c *fiber.Ctx) dto.GradingFilter {
	var filter dto.GradingFilter
	if err := c.QueryParser(&filter); err != nil {
		return dto.GradingFilter{}
	}
	filter.Group = strings.TrimSpace(filter.Group)
	filter.Subject = strings.TrimSpace(filter.Subject)
	return filter
}
