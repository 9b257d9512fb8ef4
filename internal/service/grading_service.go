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
	"github.com/noah-isme/edusubmit-api/internal/repository"
)

var (
	// ErrGradeRowNotFound indicates the row is not in the fetched list.
	ErrGradeRowNotFound = errors.New("grading row not found")
	// ErrGradeSaveInFlight indicates the row already has a save running.
	ErrGradeSaveInFlight = errors.New("grade save already in progress")
)

// GradingService backs the teacher's grading view.
type GradingService interface {
	View(ctx context.Context, sessionID string, filter dto.GradingFilter) (dto.GradingViewResponse, error)
	Refresh(ctx context.Context, sessionID string, filter dto.GradingFilter) (dto.GradingViewResponse, error)
	Edit(ctx context.Context, sessionID string, rowID int, req dto.GradeEditRequest) (models.GradeEdit, error)
	Save(ctx context.Context, sessionID string, rowID int) (dto.GradeSaveResponse, error)
}

type gradingService struct {
	sessions  SessionService
	client    SheetsClient
	roster    repository.RosterRepository
	sanitizer *TextSanitizer
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(sessions SessionService, client SheetsClient, roster repository.RosterRepository, sanitizer *TextSanitizer, logger zerolog.Logger) GradingService {
	return &gradingService{
		sessions:  sessions,
		client:    client,
		roster:    roster,
		sanitizer: sanitizer,
		logger:    logger.With().Str("component", "grading_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/edusubmit-api/internal/service/grading"),
		now:       time.Now,
	}
}

// View fetches the list on first use and serves the stored snapshot after.
func (s *gradingService) View(ctx context.Context, sessionID string, filter dto.GradingFilter) (dto.GradingViewResponse, error) {
	session, err := s.teacherSession(ctx, sessionID)
	if err != nil {
		return dto.GradingViewResponse{}, err
	}
	if !session.Grading.Loaded {
		return s.fetch(ctx, sessionID, session.Epoch, filter)
	}
	return s.view(session.Grading, filter), nil
}

// Refresh refetches the list. Buffers of rows being saved survive.
func (s *gradingService) Refresh(ctx context.Context, sessionID string, filter dto.GradingFilter) (dto.GradingViewResponse, error) {
	session, err := s.teacherSession(ctx, sessionID)
	if err != nil {
		return dto.GradingViewResponse{}, err
	}
	return s.fetch(ctx, sessionID, session.Epoch, filter)
}

func (s *gradingService) fetch(ctx context.Context, sessionID string, epoch int, filter dto.GradingFilter) (dto.GradingViewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.fetch")
	defer span.End()

	resp := s.client.FetchSubmissions(ctx)

	session, err := s.sessions.Update(ctx, sessionID, func(session *models.Session) error {
		if session.Epoch != epoch || session.Grading == nil {
			return ErrStaleResult
		}
		if resp.OK() {
			session.Grading.Replace(resp.Data, s.now().UTC())
			return nil
		}
		message := strings.TrimSpace(resp.Message)
		if message == "" {
			message = MsgSubmitFailure
		}
		session.Grading.Fail(message)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result discarded")
		return dto.GradingViewResponse{}, err
	}

	if resp.OK() {
		span.SetAttributes(attribute.Int("grading.rows", len(resp.Data)))
		span.SetStatus(codes.Ok, "fetched")
	} else {
		s.logger.Warn().Str("session_id", sessionID).Str("message", resp.Message).Msg("failed to fetch submissions")
		span.SetStatus(codes.Error, resp.Message)
	}
	return s.view(session.Grading, filter), nil
}

func (s *gradingService) Edit(ctx context.Context, sessionID string, rowID int, req dto.GradeEditRequest) (models.GradeEdit, error) {
	var edit models.GradeEdit
	_, err := s.sessions.Update(ctx, sessionID, func(session *models.Session) error {
		book, err := gradingBook(session)
		if err != nil {
			return err
		}
		score := req.Score
		if score != nil {
			trimmed := strings.TrimSpace(*score)
			score = &trimmed
		}
		feedback := req.Feedback
		if feedback != nil {
			cleaned := s.sanitizer.Clean(*feedback)
			feedback = &cleaned
		}
		edit, err = book.Edit(rowID, score, feedback)
		return mapGradingError(err)
	})
	return edit, err
}

// Save sends one row's buffer. Only that row is reconciled afterwards.
func (s *gradingService) Save(ctx context.Context, sessionID string, rowID int) (dto.GradeSaveResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.save")
	defer span.End()
	span.SetAttributes(attribute.Int("grading.row_id", rowID))

	var (
		values models.GradeEdit
		epoch  int
	)
	_, err := s.sessions.Update(ctx, sessionID, func(session *models.Session) error {
		book, err := gradingBook(session)
		if err != nil {
			return err
		}
		values, err = book.BeginSave(rowID)
		if err != nil {
			return mapGradingError(err)
		}
		epoch = session.Epoch
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save rejected")
		return dto.GradeSaveResponse{}, err
	}

	detached := context.WithoutCancel(ctx)
	resp := s.client.UpdateGrade(detached, rowID, values.Score, values.Feedback)
	ok := resp.OK()

	_, err = s.sessions.Update(detached, sessionID, func(session *models.Session) error {
		if session.Epoch != epoch || session.Grading == nil {
			return ErrStaleResult
		}
		session.Grading.FinishSave(rowID, values, ok)
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrStaleResult) {
			s.release(detached, sessionID, epoch, rowID, values)
		}
		s.logger.Warn().Err(err).Int("row_id", rowID).Msg("grade save result discarded")
		span.RecordError(err)
		span.SetStatus(codes.Error, "result discarded")
		return dto.GradeSaveResponse{}, err
	}

	result := dto.GradeSaveResponse{RowID: rowID, Saved: ok, Edit: values}
	switch {
	case ok:
		result.Message = MsgGradeSaved
		span.SetStatus(codes.Ok, "saved")
	case strings.TrimSpace(resp.Message) != "":
		result.Message = MsgGradeErrorPrefix + resp.Message
		span.SetStatus(codes.Error, resp.Message)
	default:
		result.Message = MsgGradeSaveFailed
		span.SetStatus(codes.Error, "save failed")
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int("row_id", rowID).
		Bool("saved", ok).
		Msg("grade save completed")

	return result, nil
}

// release clears the in-flight mark of a save whose outcome could not be
// recorded. The buffer is kept as for a failed save.
func (s *gradingService) release(ctx context.Context, sessionID string, epoch, rowID int, values models.GradeEdit) {
	_, err := s.sessions.Update(ctx, sessionID, func(session *models.Session) error {
		if session.Epoch != epoch || session.Grading == nil {
			return ErrStaleResult
		}
		session.Grading.FinishSave(rowID, values, false)
		return nil
	})
	if err != nil && !errors.Is(err, ErrStaleResult) {
		s.logger.Error().Err(err).Int("row_id", rowID).Msg("failed to release grade save")
	}
}

func (s *gradingService) teacherSession(ctx context.Context, sessionID string) (models.Session, error) {
	return s.sessions.Update(ctx, sessionID, func(session *models.Session) error {
		_, err := gradingBook(session)
		return err
	})
}

func (s *gradingService) view(book *models.GradingBook, filter dto.GradingFilter) dto.GradingViewResponse {
	rows := book.Filter(filter.Group, filter.Subject)
	out := make([]dto.GradingRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.GradingRowResponse{
			StoredSubmission: row,
			Edit:             book.Edits[row.RowID],
			Saving:           book.Saving[row.RowID],
		})
	}

	response := dto.GradingViewResponse{
		Rows:      out,
		Saving:    book.SavingIDs(),
		Groups:    book.GroupOptions(s.roster.Groups()),
		Subjects:  book.SubjectOptions(s.roster.Subjects()),
		Filter:    filter,
		Loaded:    book.Loaded,
		LoadError: book.LoadError,
	}
	if !book.FetchedAt.IsZero() {
		fetchedAt := book.FetchedAt
		response.FetchedAt = &fetchedAt
	}
	return response
}

func gradingBook(session *models.Session) (*models.GradingBook, error) {
	if err := requireRole(session, models.RoleTeacher); err != nil {
		return nil, err
	}
	if session.Grading == nil {
		session.Grading = models.NewGradingBook()
	}
	return session.Grading, nil
}

func mapGradingError(err error) error {
	switch {
	case errors.Is(err, models.ErrRowNotFound):
		return ErrGradeRowNotFound
	case errors.Is(err, models.ErrSaveInFlight):
		return ErrGradeSaveInFlight
	}
	return err
}
