package service

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/rs/zerolog"

	"github.com/noah-isme/edusubmit-api/internal/dto"
	"github.com/noah-isme/edusubmit-api/internal/models"
	"github.com/noah-isme/edusubmit-api/internal/repository"
)

// StudentFormService edits the student submission draft of a session.
type StudentFormService interface {
	Get(ctx context.Context, sessionID string) (dto.StudentFormResponse, error)
	Update(ctx context.Context, sessionID string, req dto.StudentFormUpdateRequest) (dto.StudentFormResponse, error)
	AddMember(ctx context.Context, sessionID, studentID string) (dto.StudentFormResponse, error)
	RemoveMember(ctx context.Context, sessionID string, index int) (dto.StudentFormResponse, error)
	AttachFile(ctx context.Context, sessionID string, file *multipart.FileHeader) (dto.StudentFormResponse, error)
	ClearFile(ctx context.Context, sessionID string) (dto.StudentFormResponse, error)
}

type studentFormService struct {
	sessions  SessionService
	roster    repository.RosterRepository
	encoder   FileEncoder
	sanitizer *TextSanitizer
	logger    zerolog.Logger
}

// NewStudentFormService constructs the student form service.
func NewStudentFormService(sessions SessionService, roster repository.RosterRepository, encoder FileEncoder, sanitizer *TextSanitizer, logger zerolog.Logger) StudentFormService {
	return &studentFormService{
		sessions:  sessions,
		roster:    roster,
		encoder:   encoder,
		sanitizer: sanitizer,
		logger:    logger.With().Str("component", "student_form_service").Logger(),
	}
}

func (s *studentFormService) Get(ctx context.Context, sessionID string) (dto.StudentFormResponse, error) {
	return s.edit(ctx, sessionID, nil)
}

func (s *studentFormService) Update(ctx context.Context, sessionID string, req dto.StudentFormUpdateRequest) (dto.StudentFormResponse, error) {
	return s.edit(ctx, sessionID, func(draft *models.StudentDraft) error {
		if req.Subject != nil {
			draft.Subject = s.sanitizer.Clean(*req.Subject)
		}
		if req.AssignmentTitle != nil {
			draft.AssignmentTitle = s.sanitizer.Clean(*req.AssignmentTitle)
		}
		if req.Link != nil {
			draft.Link = s.sanitizer.Clean(*req.Link)
		}
		if req.FilterGroup != nil {
			draft.FilterGroup = s.sanitizer.Clean(*req.FilterGroup)
		}
		return nil
	})
}

func (s *studentFormService) AddMember(ctx context.Context, sessionID, studentID string) (dto.StudentFormResponse, error) {
	return s.edit(ctx, sessionID, func(draft *models.StudentDraft) error {
		member, ok := s.roster.Roster().Lookup(studentID)
		if !ok {
			return NewValidationError("members", MsgStudentNotFound)
		}
		err := draft.AddMember(member)
		switch {
		case errors.Is(err, models.ErrMemberLimit):
			return &ValidationError{Message: MsgMemberLimit, Fields: map[string]string{"members": MsgMemberLimit}, Err: err}
		case errors.Is(err, models.ErrDuplicateMember):
			return &ValidationError{Message: MsgDuplicateMember, Fields: map[string]string{"members": MsgDuplicateMember}, Err: err}
		}
		return err
	})
}

func (s *studentFormService) RemoveMember(ctx context.Context, sessionID string, index int) (dto.StudentFormResponse, error) {
	return s.edit(ctx, sessionID, func(draft *models.StudentDraft) error {
		if err := draft.RemoveMember(index); err != nil {
			return &ValidationError{Message: MsgMemberIndex, Fields: map[string]string{"members": MsgMemberIndex}, Err: err}
		}
		return nil
	})
}

// AttachFile reads the file before taking the session lock. A rejected file
// leaves the current attachment in place.
func (s *studentFormService) AttachFile(ctx context.Context, sessionID string, file *multipart.FileHeader) (dto.StudentFormResponse, error) {
	encoded, err := s.encoder.Encode(ctx, file)
	if err != nil {
		return dto.StudentFormResponse{}, err
	}
	s.logger.Debug().
		Str("file", encoded.Payload.Name).
		Str("mime", encoded.Payload.Type).
		Int64("size", encoded.Payload.Size).
		Msg("attachment encoded")
	return s.edit(ctx, sessionID, func(draft *models.StudentDraft) error {
		payload := encoded.Payload
		draft.File = &payload
		return nil
	})
}

func (s *studentFormService) ClearFile(ctx context.Context, sessionID string) (dto.StudentFormResponse, error) {
	return s.edit(ctx, sessionID, func(draft *models.StudentDraft) error {
		draft.File = nil
		return nil
	})
}

// edit applies fn to the draft. A nil fn only reads it; mutations are
// refused while the overlay is up.
func (s *studentFormService) edit(ctx context.Context, sessionID string, fn func(*models.StudentDraft) error) (dto.StudentFormResponse, error) {
	session, err := s.sessions.Update(ctx, sessionID, func(session *models.Session) error {
		if err := requireRole(session, models.RoleStudent); err != nil {
			return err
		}
		if session.Student == nil {
			session.Student = models.NewStudentDraft()
		}
		if fn == nil {
			return nil
		}
		if err := session.RequireIdle(); err != nil {
			return err
		}
		return fn(session.Student)
	})
	if err != nil {
		return dto.StudentFormResponse{}, err
	}
	return s.view(session.Student), nil
}

func (s *studentFormService) view(draft *models.StudentDraft) dto.StudentFormResponse {
	roster := s.roster.Roster()
	members := append([]models.Member{}, draft.Members...)
	return dto.StudentFormResponse{
		Subject:         draft.Subject,
		AssignmentTitle: draft.AssignmentTitle,
		Link:            draft.Link,
		FilterGroup:     draft.FilterGroup,
		Group:           draft.PrimaryGroup(),
		Members:         members,
		MemberLimit:     models.MaxMembers,
		File:            dto.NewFileResponse(draft.File),
		Subjects:        s.roster.Subjects(),
		Groups:          s.roster.Groups(),
		Students:        roster.StudentsInGroup(draft.FilterGroup),
	}
}
