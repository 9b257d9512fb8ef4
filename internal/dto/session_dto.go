package dto

import "github.com/noah-isme/edusubmit-api/internal/models"

// LoginRequest selects the role of the page session.
type LoginRequest struct {
	Role     string `json:"role" validate:"required,oneof=STUDENT TEACHER student teacher"`
	Password string `json:"password"`
}

// SessionResponse describes who is logged in and the result overlay.
type SessionResponse struct {
	Role    models.Role    `json:"role"`
	Overlay models.Overlay `json:"overlay"`
}

// NewSessionResponse projects a session for the page.
func NewSessionResponse(s models.Session) SessionResponse {
	return SessionResponse{Role: s.Role, Overlay: s.Overlay}
}

// ReferenceStudentsResponse lists the roster options of one group.
type ReferenceStudentsResponse struct {
	Group    string          `json:"group"`
	Students []models.Option `json:"students"`
}
