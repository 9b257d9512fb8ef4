package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusubmit-api/internal/dto"
	"github.com/noah-isme/edusubmit-api/internal/middleware"
	"github.com/noah-isme/edusubmit-api/internal/models"
	"github.com/noah-isme/edusubmit-api/internal/service"
	"github.com/noah-isme/edusubmit-api/internal/utils"
)

// TeacherFormHandler manages the assignment form endpoints.
type TeacherFormHandler struct {
	forms      service.TeacherFormService
	submission service.SubmissionService
	logger     zerolog.Logger
}

// NewTeacherFormHandler builds a teacher form handler instance.
func NewTeacherFormHandler(forms service.TeacherFormService, submission service.SubmissionService, logger zerolog.Logger) *TeacherFormHandler {
	return &TeacherFormHandler{
		forms:      forms,
		submission: submission,
		logger:     logger.With().Str("component", "teacher_form_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *TeacherFormHandler) Register(router fiber.Router) {
	router.Get("/form", h.get)
	router.Put("/form", h.update)
	router.Post("/form/file", h.attachFile)
	router.Delete("/form/file", h.clearFile)
	router.Post("/submit", h.submit)
}

func (h *TeacherFormHandler) get(c *fiber.Ctx) error {
	form, err := h.forms.Get(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "form retrieved", form)
}

func (h *TeacherFormHandler) update(c *fiber.Ctx) error {
	var payload dto.TeacherFormUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	form, err := h.forms.Update(c.UserContext(), middleware.SessionID(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "form updated", form)
}

func (h *TeacherFormHandler) attachFile(c *fiber.Ctx) error {
	file, _ := c.FormFile("file")

	form, err := h.forms.AttachFile(c.UserContext(), middleware.SessionID(c), file)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "file attached", form)
}

func (h *TeacherFormHandler) clearFile(c *fiber.Ctx) error {
	form, err := h.forms.ClearFile(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "file cleared", form)
}

func (h *TeacherFormHandler) submit(c *fiber.Ctx) error {
	result, err := h.submission.Submit(c.UserContext(), middleware.SessionID(c), models.RoleTeacher)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, result.Overlay.Message, result)
}
