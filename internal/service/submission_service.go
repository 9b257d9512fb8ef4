package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/edusubmit-api/internal/dto"
	"github.com/noah-isme/edusubmit-api/internal/models"
	"github.com/noah-isme/edusubmit-api/internal/observability"
)

// SheetsClient is the remote spreadsheet endpoint.
type SheetsClient interface {
	Submit(ctx context.Context, record models.SubmissionRecord) models.APIResponse
	FetchSubmissions(ctx context.Context) models.APIResponse
	UpdateGrade(ctx context.Context, rowID int, score, feedback string) models.APIResponse
}

// SubmissionService sends a session's draft through the overlay gate.
type SubmissionService interface {
	Submit(ctx context.Context, sessionID string, role models.Role) (dto.SubmitResponse, error)
}

type submissionService struct {
	sessions  SessionService
	client    SheetsClient
	validator *Validator
	sanitizer *TextSanitizer
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewSubmissionService constructs the submission orchestrator.
func NewSubmissionService(sessions SessionService, client SheetsClient, validator *Validator, sanitizer *TextSanitizer, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		sessions:  sessions,
		client:    client,
		validator: validator,
		sanitizer: sanitizer,
		logger:    logger.With().Str("component", "submission_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/edusubmit-api/internal/service/submission"),
		now:       time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, sessionID string, role models.Role) (dto.SubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.send")
	defer span.End()
	span.SetAttributes(attribute.String("submission.role", string(role)))

	var (
		record models.SubmissionRecord
		epoch  int
	)
	_, err := s.sessions.Update(ctx, sessionID, func(session *models.Session) error {
		if err := requireRole(session, role); err != nil {
			return err
		}
		if session.Overlay.State != models.OverlayIdle {
			return session.BeginSubmit()
		}

		built, err := s.build(session)
		if err != nil {
			return err
		}
		if err := session.BeginSubmit(); err != nil {
			return err
		}
		record = built
		epoch = session.Epoch
		return nil
	})
	if err != nil {
		if IsValidationError(err) {
			observability.Submissions().WithLabelValues(string(role), "invalid").Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission rejected")
		return dto.SubmitResponse{}, err
	}

	// outlives the request: the overlay must always reach a result
	detached := context.WithoutCancel(ctx)
	resp := s.client.Submit(detached, record)
	ok := resp.OK()
	message := strings.TrimSpace(resp.Message)
	if message == "" {
		message = MsgSubmitFailure
		if ok {
			message = MsgSubmitSuccess
		}
	}

	session, err := s.sessions.Update(detached, sessionID, func(session *models.Session) error {
		if session.Epoch != epoch || session.Overlay.State != models.OverlaySubmitting {
			return ErrStaleResult
		}
		session.CompleteSubmit(ok, message)
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrStaleResult) {
			s.release(detached, sessionID, epoch)
		}
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("submission result discarded")
		span.RecordError(err)
		span.SetStatus(codes.Error, "result discarded")
		return dto.SubmitResponse{}, err
	}

	outcome := "error"
	if ok {
		outcome = "success"
		span.SetStatus(codes.Ok, "submitted")
	} else {
		span.SetStatus(codes.Error, message)
	}
	observability.Submissions().WithLabelValues(string(role), outcome).Inc()

	s.logger.Info().
		Str("session_id", sessionID).
		Str("role", string(role)).
		Str("outcome", outcome).
		Msg("submission completed")

	return dto.SubmitResponse{Overlay: session.Overlay, FileURL: resp.FileURL}, nil
}

// release moves a gate that could not record its result to the error
// state, so the session can acknowledge it and try again.
func (s *submissionService) release(ctx context.Context, sessionID string, epoch int) {
	_, err := s.sessions.Update(ctx, sessionID, func(session *models.Session) error {
		if session.Epoch != epoch || session.Overlay.State != models.OverlaySubmitting {
			return ErrStaleResult
		}
		session.CompleteSubmit(false, MsgSubmitFailure)
		return nil
	})
	if err != nil && !errors.Is(err, ErrStaleResult) {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to release submission gate")
	}
}

// build validates the role's draft and assembles the record to send.
func (s *submissionService) build(session *models.Session) (models.SubmissionRecord, error) {
	now := s.now()
	switch session.Role {
	case models.RoleStudent:
		if session.Student == nil {
			session.Student = models.NewStudentDraft()
		}
		draft := *session.Student
		draft.AssignmentTitle = s.sanitizer.Clean(draft.AssignmentTitle)
		draft.Subject = s.sanitizer.Clean(draft.Subject)
		draft.Link = strings.TrimSpace(draft.Link)
		if err := s.validator.Struct(draft); err != nil {
			return models.SubmissionRecord{}, err
		}
		return draft.Record(now), nil
	case models.RoleTeacher:
		if session.Teacher == nil {
			session.Teacher = models.NewTeacherDraft()
		}
		draft := *session.Teacher
		draft.Topic = s.sanitizer.Clean(draft.Topic)
		draft.Subject = s.sanitizer.Clean(draft.Subject)
		if err := s.validator.Struct(draft); err != nil {
			return models.SubmissionRecord{}, err
		}
		return draft.Record(now), nil
	default:
		return models.SubmissionRecord{}, ErrRoleMismatch
	}
}
