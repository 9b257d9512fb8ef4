package models

import (
	"errors"
	"time"
)

// OverlayState is the blocking result overlay shown around a submission.
type OverlayState string

const (
	OverlayIdle       OverlayState = "idle"
	OverlaySubmitting OverlayState = "submitting"
	OverlaySuccess    OverlayState = "success"
	OverlayError      OverlayState = "error"
)

var (
	// ErrAlreadyLoggedIn indicates a login attempt from a non-guest session.
	ErrAlreadyLoggedIn = errors.New("session already logged in")
	// ErrInvalidRole indicates a login for a role that cannot be logged into.
	ErrInvalidRole = errors.New("invalid role")
	// ErrSubmissionInProgress indicates a submission is in flight.
	ErrSubmissionInProgress = errors.New("submission in progress")
	// ErrOverlayPending indicates a result has not been acknowledged yet.
	ErrOverlayPending = errors.New("previous result not acknowledged")
)

// Overlay holds the state and message of the result overlay.
type Overlay struct {
	State   OverlayState `json:"state"`
	Message string       `json:"message,omitempty"`
}

// Session is the state of one page session.
type Session struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Epoch     int           `json:"epoch"`
	Overlay   Overlay       `json:"overlay"`
	Student   *StudentDraft `json:"student,omitempty"`
	Teacher   *TeacherDraft `json:"teacher,omitempty"`
	Grading   *GradingBook  `json:"grading,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NewSession returns a guest session.
func NewSession(id string, now time.Time) Session {
	return Session{
		ID:        id,
		Role:      RoleGuest,
		Overlay:   Overlay{State: OverlayIdle},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Login moves a guest session into role and prepares the role's forms.
func (s *Session) Login(role Role) error {
	if s.Role != RoleGuest && s.Role != "" {
		return ErrAlreadyLoggedIn
	}
	switch role {
	case RoleStudent:
		s.Student = NewStudentDraft()
	case RoleTeacher:
		s.Teacher = NewTeacherDraft()
		s.Grading = NewGradingBook()
	default:
		return ErrInvalidRole
	}
	s.Role = role
	s.Epoch++
	s.Overlay = Overlay{State: OverlayIdle}
	return nil
}

// Logout returns to guest and forgets everything the role accumulated,
// including any pending overlay.
func (s *Session) Logout() {
	s.Role = RoleGuest
	s.Epoch++
	s.Overlay = Overlay{State: OverlayIdle}
	s.Student = nil
	s.Teacher = nil
	s.Grading = nil
}

// RequireIdle reports whether the overlay currently blocks interaction.
func (s *Session) RequireIdle() error {
	switch s.Overlay.State {
	case OverlaySubmitting:
		return ErrSubmissionInProgress
	case OverlaySuccess, OverlayError:
		return ErrOverlayPending
	}
	return nil
}

// BeginSubmit closes the gate for a new submission attempt.
func (s *Session) BeginSubmit() error {
	if err := s.RequireIdle(); err != nil {
		return err
	}
	s.Overlay = Overlay{State: OverlaySubmitting}
	return nil
}

// CompleteSubmit records the outcome. On success the role's draft starts over.
func (s *Session) CompleteSubmit(ok bool, message string) {
	if ok {
		s.Overlay = Overlay{State: OverlaySuccess, Message: message}
		switch s.Role {
		case RoleStudent:
			s.Student = NewStudentDraft()
		case RoleTeacher:
			s.Teacher = NewTeacherDraft()
		}
		return
	}
	s.Overlay = Overlay{State: OverlayError, Message: message}
}

// Acknowledge dismisses a shown result.
func (s *Session) Acknowledge() error {
	if s.Overlay.State == OverlaySubmitting {
		return ErrSubmissionInProgress
	}
	s.Overlay = Overlay{State: OverlayIdle}
	return nil
}
