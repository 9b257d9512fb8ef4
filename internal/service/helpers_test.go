package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusubmit-api/internal/models"
	"github.com/noah-isme/edusubmit-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type gradeCall struct {
	RowID    int
	Score    string
	Feedback string
}

// fakeSheets records calls. A row with a gate blocks UpdateGrade until the
// test closes the gate.
type fakeSheets struct {
	mu         sync.Mutex
	submitted  []models.SubmissionRecord
	submitResp models.APIResponse
	fetchResp  models.APIResponse
	fetchCalls int
	updates    []gradeCall
	updateResp map[int]models.APIResponse

	submitGate    chan struct{}
	submitStarted chan struct{}
	gradeGates    map[int]chan struct{}
	gradeStarted  chan int
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{
		submitResp:   models.APIResponse{Status: models.StatusSuccess, Message: "บันทึกแล้ว"},
		fetchResp:    models.APIResponse{Status: models.StatusSuccess},
		updateResp:   map[int]models.APIResponse{},
		gradeGates:   map[int]chan struct{}{},
		gradeStarted: make(chan int, 8),
	}
}

func (f *fakeSheets) Submit(_ context.Context, record models.SubmissionRecord) models.APIResponse {
	f.mu.Lock()
	f.submitted = append(f.submitted, record)
	gate, started, resp := f.submitGate, f.submitStarted, f.submitResp
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return resp
}

func (f *fakeSheets) FetchSubmissions(context.Context) models.APIResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	resp := f.fetchResp
	resp.Data = append([]models.StoredSubmission(nil), f.fetchResp.Data...)
	return resp
}

func (f *fakeSheets) UpdateGrade(_ context.Context, rowID int, score, feedback string) models.APIResponse {
	f.mu.Lock()
	f.updates = append(f.updates, gradeCall{RowID: rowID, Score: score, Feedback: feedback})
	gate := f.gradeGates[rowID]
	resp, ok := f.updateResp[rowID]
	f.mu.Unlock()

	f.gradeStarted <- rowID
	if gate != nil {
		<-gate
	}
	if !ok {
		resp = models.APIResponse{Status: models.StatusSuccess, Message: "graded"}
	}
	return resp
}

func (f *fakeSheets) submissions() []models.SubmissionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SubmissionRecord(nil), f.submitted...)
}

func (f *fakeSheets) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

type fixture struct {
	sessions   SessionService
	roster     repository.RosterRepository
	sheets     *fakeSheets
	students   StudentFormService
	teachers   TeacherFormService
	submission SubmissionService
	grading    GradingService
}

// flakyRepo counts saves and fails the next failSaves of them.
type flakyRepo struct {
	repository.SessionRepository
	mu        sync.Mutex
	saves     int
	failSaves int
}

func (r *flakyRepo) Save(ctx context.Context, session models.Session) error {
	r.mu.Lock()
	r.saves++
	fail := r.failSaves > 0
	if fail {
		r.failSaves--
	}
	r.mu.Unlock()
	if fail {
		return errors.New("redis: connection reset")
	}
	return r.SessionRepository.Save(ctx, session)
}

func (r *flakyRepo) failNext(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSaves = n
}

func (r *flakyRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, repository.NewMemorySessionRepository(time.Hour))
}

func newFixtureWithRepo(t *testing.T, repo repository.SessionRepository) *fixture {
	t.Helper()

	roster, err := repository.NewRosterRepository("")
	require.NoError(t, err)

	logger := testLogger()
	sessions := NewSessionService(repo, "kru1234", logger)
	sheets := newFakeSheets()
	sanitizer := NewTextSanitizer()
	encoder := NewFileEncoder(1, []string{".pdf", ".png", ".jpg", ".docx"}, logger)
	validate := NewValidator(validator.New(validator.WithRequiredStructEnabled()))

	return &fixture{
		sessions:   sessions,
		roster:     roster,
		sheets:     sheets,
		students:   NewStudentFormService(sessions, roster, encoder, sanitizer, logger),
		teachers:   NewTeacherFormService(sessions, roster, encoder, sanitizer, logger),
		submission: NewSubmissionService(sessions, sheets, validate, sanitizer, logger),
		grading:    NewGradingService(sessions, sheets, roster, sanitizer, logger),
	}
}

func (f *fixture) login(t *testing.T, role models.Role) string {
	t.Helper()
	session, err := f.sessions.Open(context.Background(), "")
	require.NoError(t, err)
	password := ""
	if role == models.RoleTeacher {
		password = "kru1234"
	}
	_, err = f.sessions.Login(context.Background(), session.ID, role, password)
	require.NoError(t, err)
	return session.ID
}

// fileHeader builds a parsed multipart file part. An empty contentType
// leaves the writer's application/octet-stream default in place.
func fileHeader(t *testing.T, name, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
