package service

import (
	"context"
	"mime/multipart"

	"github.com/rs/zerolog"

	"github.com/noah-isme/edusubmit-api/internal/dto"
	"github.com/noah-isme/edusubmit-api/internal/models"
	"github.com/noah-isme/edusubmit-api/internal/repository"
)

// TeacherFormService edits the assignment draft of a teacher session.
type TeacherFormService interface {
	Get(ctx context.Context, sessionID string) (dto.TeacherFormResponse, error)
	Update(ctx context.Context, sessionID string, req dto.TeacherFormUpdateRequest) (dto.TeacherFormResponse, error)
	AttachFile(ctx context.Context, sessionID string, file *multipart.FileHeader) (dto.TeacherFormResponse, error)
	ClearFile(ctx context.Context, sessionID string) (dto.TeacherFormResponse, error)
}

type teacherFormService struct {
	sessions  SessionService
	roster    repository.RosterRepository
	encoder   FileEncoder
	sanitizer *TextSanitizer
	logger    zerolog.Logger
}

// NewTeacherFormService constructs the teacher form service.
func NewTeacherFormService(sessions SessionService, roster repository.RosterRepository, encoder FileEncoder, sanitizer *TextSanitizer, logger zerolog.Logger) TeacherFormService {
	return &teacherFormService{
		sessions:  sessions,
		roster:    roster,
		encoder:   encoder,
		sanitizer: sanitizer,
		logger:    logger.With().Str("component", "teacher_form_service").Logger(),
	}
}

func (s *teacherFormService) Get(ctx context.Context, sessionID string) (dto.TeacherFormResponse, error) {
	return s.edit(ctx, sessionID, nil)
}

// Update applies level before year, so a level switch clamps the year
// before a requested year is checked against the new level.
func (s *teacherFormService) Update(ctx context.Context, sessionID string, req dto.TeacherFormUpdateRequest) (dto.TeacherFormResponse, error) {
	return s.edit(ctx, sessionID, func(draft *models.TeacherDraft) error {
		if req.Level != nil {
			if err := draft.SetLevel(*req.Level); err != nil {
				return &ValidationError{Message: MsgInvalidLevel, Fields: map[string]string{"level": MsgInvalidLevel}, Err: err}
			}
		}
		if req.Year != nil {
			if err := draft.SetYear(*req.Year); err != nil {
				return &ValidationError{Message: MsgInvalidYear, Fields: map[string]string{"year": MsgInvalidYear}, Err: err}
			}
		}
		if req.Room != nil {
			if err := draft.SetRoom(*req.Room); err != nil {
				return &ValidationError{Message: MsgInvalidRoom, Fields: map[string]string{"room": MsgInvalidRoom}, Err: err}
			}
		}
		if req.Subject != nil {
			draft.Subject = s.sanitizer.Clean(*req.Subject)
		}
		if req.Topic != nil {
			draft.Topic = s.sanitizer.Clean(*req.Topic)
		}
		if req.DueDate != nil {
			draft.DueDate = s.sanitizer.Clean(*req.DueDate)
		}
		return nil
	})
}

// AttachFile mirrors the student form: the file is read outside the lock
// and a rejection keeps the current attachment.
func (s *teacherFormService) AttachFile(ctx context.Context, sessionID string, file *multipart.FileHeader) (dto.TeacherFormResponse, error) {
	encoded, err := s.encoder.Encode(ctx, file)
	if err != nil {
		return dto.TeacherFormResponse{}, err
	}
	s.logger.Debug().
		Str("file", encoded.Payload.Name).
		Str("mime", encoded.Payload.Type).
		Int64("size", encoded.Payload.Size).
		Msg("attachment encoded")
	return s.edit(ctx, sessionID, func(draft *models.TeacherDraft) error {
		payload := encoded.Payload
		draft.File = &payload
		return nil
	})
}

func (s *teacherFormService) ClearFile(ctx context.Context, sessionID string) (dto.TeacherFormResponse, error) {
	return s.edit(ctx, sessionID, func(draft *models.TeacherDraft) error {
		draft.File = nil
		return nil
	})
}

func (s *teacherFormService) edit(ctx context.Context, sessionID string, fn func(*models.TeacherDraft) error) (dto.TeacherFormResponse, error) {
	session, err := s.sessions.Update(ctx, sessionID, func(session *models.Session) error {
		if err := requireRole(session, models.RoleTeacher); err != nil {
			return err
		}
		if session.Teacher == nil {
			session.Teacher = models.NewTeacherDraft()
		}
		if fn == nil {
			return nil
		}
		if err := session.RequireIdle(); err != nil {
			return err
		}
		return fn(session.Teacher)
	})
	if err != nil {
		return dto.TeacherFormResponse{}, err
	}
	return s.view(session.Teacher), nil
}

func (s *teacherFormService) view(draft *models.TeacherDraft) dto.TeacherFormResponse {
	return dto.TeacherFormResponse{
		Level:       draft.Level,
		Year:        draft.Year,
		Room:        draft.Room,
		TargetGroup: draft.TargetGroup(),
		Subject:     draft.Subject,
		Topic:       draft.Topic,
		DueDate:     draft.DueDate,
		File:        dto.NewFileResponse(draft.File),
		Levels:      models.Levels(),
		Years:       models.YearOptions(draft.Level),
		Rooms:       models.Rooms(),
		Subjects:    s.roster.Subjects(),
	}
}
