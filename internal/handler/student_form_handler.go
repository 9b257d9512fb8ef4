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

// StudentFormHandler manages the student submission form endpoints.
type StudentFormHandler struct {
	forms      service.StudentFormService
	submission service.SubmissionService
	validator  *service.Validator
	logger     zerolog.Logger
}

// NewStudentFormHandler builds a student form handler instance.
func NewStudentFormHandler(forms service.StudentFormService, submission service.SubmissionService, validator *service.Validator, logger zerolog.Logger) *StudentFormHandler {
	return &StudentFormHandler{
		forms:      forms,
		submission: submission,
		validator:  validator,
		logger:     logger.With().Str("component", "student_form_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *StudentFormHandler) Register(router fiber.Router) {
	router.Get("/form", h.get)
	router.Put("/form", h.update)
	router.Post("/form/members", h.addMember)
	router.Delete("/form/members/:index", h.removeMember)
	router.Post("/form/file", h.attachFile)
	router.Delete("/form/file", h.clearFile)
	router.Post("/submit", h.submit)
}

func (h *StudentFormHandler) get(c *fiber.Ctx) error {
	form, err := h.forms.Get(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "form retrieved", form)
}

func (h *StudentFormHandler) update(c *fiber.Ctx) error {
	var payload dto.StudentFormUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	form, err := h.forms.Update(c.UserContext(), middleware.SessionID(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "form updated", form)
}

func (h *StudentFormHandler) addMember(c *fiber.Ctx) error {
	var payload dto.AddMemberRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if err := h.validator.Struct(payload); err != nil {
		return respondError(c, h.logger, err)
	}

	form, err := h.forms.AddMember(c.UserContext(), middleware.SessionID(c), payload.ID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "member added", form)
}

func (h *StudentFormHandler) removeMember(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidMemberIndex)
	}

	form, err := h.forms.RemoveMember(c.UserContext(), middleware.SessionID(c), index)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "member removed", form)
}

func (h *StudentFormHandler) attachFile(c *fiber.Ctx) error {
	// a missing part reaches the encoder as nil and is reported as required
	file, _ := c.FormFile("file")

	form, err := h.forms.AttachFile(c.UserContext(), middleware.SessionID(c), file)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "file attached", form)
}

func (h *StudentFormHandler) clearFile(c *fiber.Ctx) error {
	form, err := h.forms.ClearFile(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "file cleared", form)
}

func (h *StudentFormHandler) submit(c *fiber.Ctx) error {
	result, err := h.submission.Submit(c.UserContext(), middleware.SessionID(c), models.RoleStudent)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, result.Overlay.Message, result)
}
