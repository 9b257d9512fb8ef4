package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/edusubmit-api/internal/dto"
	"github.com/noah-isme/edusubmit-api/internal/repository"
	"github.com/noah-isme/edusubmit-api/internal/utils"
)

// ReferenceHandler serves the roster reference data.
type ReferenceHandler struct {
	roster repository.RosterRepository
}

// NewReferenceHandler builds a reference handler instance.
func NewReferenceHandler(roster repository.RosterRepository) *ReferenceHandler {
	return &ReferenceHandler{roster: roster}
}

// Register attaches the routes to the provided router group.
func (h *ReferenceHandler) Register(router fiber.Router) {
	router.Get("/subjects", h.subjects)
	router.Get("/groups", h.groups)
	router.Get("/students", h.students)
}

func (h *ReferenceHandler) subjects(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "subjects retrieved", h.roster.Subjects())
}

func (h *ReferenceHandler) groups(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "groups retrieved", h.roster.Groups())
}

func (h *ReferenceHandler) students(c *fiber.Ctx) error {
	group := strings.TrimSpace(c.Query("group"))
	return utils.SendSuccess(c, "students retrieved", dto.ReferenceStudentsResponse{
		Group:    group,
		Students: h.roster.Roster().StudentsInGroup(group),
	})
}
