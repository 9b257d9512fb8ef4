package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusubmit-api/internal/models"
	"github.com/noah-isme/edusubmit-api/internal/repository"
)

var (
	// ErrWrongPassword indicates a teacher login with the wrong password.
	ErrWrongPassword = errors.New("wrong teacher password")
	// ErrRoleMismatch indicates the session role does not permit the action.
	ErrRoleMismatch = errors.New("session role does not permit this action")
	// ErrStaleResult indicates a remote result arrived after a role change.
	ErrStaleResult = errors.New("result belongs to a previous login")
)

// SessionService owns the page session state machine.
type SessionService interface {
	Open(ctx context.Context, id string) (models.Session, error)
	Update(ctx context.Context, id string, fn func(*models.Session) error) (models.Session, error)
	Login(ctx context.Context, id string, role models.Role, password string) (models.Session, error)
	Logout(ctx context.Context, id string) (models.Session, error)
	Acknowledge(ctx context.Context, id string) (models.Session, error)
}

type sessionService struct {
	repo            repository.SessionRepository
	locks           *keyedMutex
	teacherPassword string
	logger          zerolog.Logger
	now             func() time.Time
}

// NewSessionService constructs the session service.
func NewSessionService(repo repository.SessionRepository, teacherPassword string, logger zerolog.Logger) SessionService {
	return &sessionService{
		repo:            repo,
		locks:           newKeyedMutex(),
		teacherPassword: teacherPassword,
		logger:          logger.With().Str("component", "session_service").Logger(),
		now:             time.Now,
	}
}

// ParseRole accepts role names in any case.
func ParseRole(value string) (models.Role, error) {
	switch models.Role(strings.ToUpper(strings.TrimSpace(value))) {
	case models.RoleStudent:
		return models.RoleStudent, nil
	case models.RoleTeacher:
		return models.RoleTeacher, nil
	default:
		return "", models.ErrInvalidRole
	}
}

// Open returns the session for id, starting a guest session when id is
// empty or unknown.
func (s *sessionService) Open(ctx context.Context, id string) (models.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	session, found, err := s.load(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	if !found {
		if err := s.repo.Save(ctx, session); err != nil {
			return models.Session{}, fmt.Errorf("save session: %w", err)
		}
	}
	return session, nil
}

// Update runs fn against the stored session while holding its lock. The
// session is saved only when fn succeeds.
func (s *sessionService) Update(ctx context.Context, id string, fn func(*models.Session) error) (models.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, _, err := s.load(ctx, id)
	if err != nil {
		return models.Session{}, err
	}

	if err := fn(&session); err != nil {
		return session, err
	}

	session.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, session); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// an expired or unknown id becomes a fresh guest session
func (s *sessionService) load(ctx context.Context, id string) (models.Session, bool, error) {
	session, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return models.NewSession(id, s.now().UTC()), false, nil
	}
	if err != nil {
		return models.Session{}, false, fmt.Errorf("load session: %w", err)
	}
	return session, true, nil
}

func (s *sessionService) Login(ctx context.Context, id string, role models.Role, password string) (models.Session, error) {
	if role == models.RoleTeacher && !s.passwordMatches(password) {
		s.logger.Info().Str("session_id", id).Msg("teacher login rejected")
		return models.Session{}, ErrWrongPassword
	}

	session, err := s.Update(ctx, id, func(session *models.Session) error {
		return session.Login(role)
	})
	if err != nil {
		return session, err
	}

	s.logger.Info().Str("session_id", id).Str("role", string(role)).Msg("session logged in")
	return session, nil
}

func (s *sessionService) passwordMatches(password string) bool {
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.teacherPassword)) == 1
}

func (s *sessionService) Logout(ctx context.Context, id string) (models.Session, error) {
	session, err := s.Update(ctx, id, func(session *models.Session) error {
		session.Logout()
		return nil
	})
	if err != nil {
		return session, err
	}

	s.logger.Info().Str("session_id", id).Msg("session logged out")
	return session, nil
}

func (s *sessionService) Acknowledge(ctx context.Context, id string) (models.Session, error) {
	return s.Update(ctx, id, func(session *models.Session) error {
		return session.Acknowledge()
	})
}

func requireRole(session *models.Session, role models.Role) error {
	if session.Role != role {
		return ErrRoleMismatch
	}
	return nil
}
