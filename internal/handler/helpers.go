package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusubmit-api/internal/middleware"
	"github.com/noah-isme/edusubmit-api/internal/models"
	"github.com/noah-isme/edusubmit-api/internal/service"
	"github.com/noah-isme/edusubmit-api/internal/utils"
)

// Messages for outcomes the page does not render from a service message.
const (
	msgInvalidBody        = "invalid request body"
	msgInternal           = "internal server error"
	msgAlreadyLoggedIn    = "session already logged in"
	msgRoleMismatch       = "insufficient permissions"
	msgSubmissionBusy     = "กำลังส่งข้อมูล กรุณารอสักครู่"
	msgOverlayPending     = "กรุณารับทราบผลการส่งครั้งก่อน"
	msgStaleResult        = "ผลลัพธ์นี้เป็นของการเข้าสู่ระบบครั้งก่อน"
	msgGradeRowNotFound   = "ไม่พบรายการที่ต้องการ"
	msgGradeSaveInFlight  = "กำลังบันทึกรายการนี้อยู่"
	msgInvalidMemberIndex = "invalid member index"
	msgInvalidRowID       = "invalid row id"
)

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError maps service errors onto the envelope and status codes.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, validationErr.Message, validationErr.Fields)
	case errors.Is(err, service.ErrWrongPassword):
		return utils.SendError(c, fiber.StatusUnauthorized, service.MsgWrongPassword)
	case errors.Is(err, service.ErrRoleMismatch):
		return utils.SendError(c, fiber.StatusForbidden, msgRoleMismatch)
	case errors.Is(err, models.ErrAlreadyLoggedIn):
		return utils.SendError(c, fiber.StatusConflict, msgAlreadyLoggedIn)
	case errors.Is(err, models.ErrSubmissionInProgress):
		return utils.SendError(c, fiber.StatusConflict, msgSubmissionBusy)
	case errors.Is(err, models.ErrOverlayPending):
		return utils.SendError(c, fiber.StatusConflict, msgOverlayPending)
	case errors.Is(err, service.ErrStaleResult):
		return utils.SendError(c, fiber.StatusConflict, msgStaleResult)
	case errors.Is(err, service.ErrGradeSaveInFlight):
		return utils.SendError(c, fiber.StatusConflict, msgGradeSaveInFlight)
	case errors.Is(err, service.ErrGradeRowNotFound):
		return utils.SendError(c, fiber.StatusNotFound, msgGradeRowNotFound)
	default:
		requestLogger(logger, c).Error().Err(err).Str("route", c.Path()).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, msgInternal)
	}
}
