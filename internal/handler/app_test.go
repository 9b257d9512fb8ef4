package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusubmit-api/internal/config"
	"github.com/noah-isme/edusubmit-api/internal/handler"
	"github.com/noah-isme/edusubmit-api/internal/middleware"
	"github.com/noah-isme/edusubmit-api/internal/models"
	"github.com/noah-isme/edusubmit-api/internal/repository"
	"github.com/noah-isme/edusubmit-api/internal/router"
	"github.com/noah-isme/edusubmit-api/internal/service"
	"github.com/noah-isme/edusubmit-api/pkg/sheets"
)

const teacherPassword = "kru1234"

// scriptServer stands in for the spreadsheet endpoint.
type scriptServer struct {
	mu       sync.Mutex
	requests []map[string]interface{}
	rows     []models.StoredSubmission
	submit   models.APIResponse
}

func (s *scriptServer) handle(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	s.requests = append(s.requests, body)
	var resp models.APIResponse
	switch body["action"] {
	case string(models.ActionSubmit):
		resp = s.submit
	case string(models.ActionGetSubmissions):
		resp = models.APIResponse{Status: models.StatusSuccess, Data: s.rows}
	case string(models.ActionUpdateGrade):
		resp = models.APIResponse{Status: models.StatusSuccess, Message: "updated"}
	default:
		resp = models.APIResponse{Status: models.StatusError, Message: "unknown action"}
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *scriptServer) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.requests))
	for _, req := range s.requests {
		action, _ := req["action"].(string)
		out = append(out, action)
	}
	return out
}

func (s *scriptServer) last() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

type testEnv struct {
	app    *fiber.App
	script *scriptServer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	script := &scriptServer{
		submit: models.APIResponse{Status: models.StatusSuccess, Message: "บันทึกข้อมูลแล้ว"},
		rows: []models.StoredSubmission{
			{RowID: 2, Group: "ปวช. 1/1", Subject: "Cloud Computing", AssignmentTitle: "Lab 1", Members: []models.Member{{ID: "66201010001", Name: "นายกิตติพงษ์ ใจดี"}}, Score: "8"},
			{RowID: 3, Group: "ปวส. 1/1", Subject: "Web Programming", AssignmentTitle: "Portfolio"},
		},
	}
	server := httptest.NewServer(http.HandlerFunc(script.handle))
	t.Cleanup(server.Close)

	cfg := config.Config{
		AppName:         "EduSubmit",
		AppEnv:          "test",
		ScriptURL:       server.URL,
		ScriptTimeout:   5 * time.Second,
		UploadMaxMB:     1,
		TeacherPassword: teacherPassword,
		SessionSecret:   "test-secret",
		SessionTTL:      time.Hour,
		SessionCookie:   "edusubmit_session",
		LoginRateLimit:  5,
		LoginRateWindow: time.Minute,
	}

	logger := zerolog.New(io.Discard)
	roster, err := repository.NewRosterRepository("")
	require.NoError(t, err)
	client, err := sheets.New(sheets.Config{URL: cfg.ScriptURL, Timeout: cfg.ScriptTimeout}, logger)
	require.NoError(t, err)

	validate := service.NewValidator(validator.New(validator.WithRequiredStructEnabled()))
	sanitizer := service.NewTextSanitizer()
	encoder := service.NewFileEncoder(cfg.UploadMaxMB, []string{".pdf", ".png"}, logger)
	sessions := service.NewSessionService(repository.NewMemorySessionRepository(cfg.SessionTTL), cfg.TeacherPassword, logger)
	submission := service.NewSubmissionService(sessions, client, validate, sanitizer, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SessionHandler:     handler.NewSessionHandler(sessions, validate, logger),
		ReferenceHandler:   handler.NewReferenceHandler(roster),
		StudentFormHandler: handler.NewStudentFormHandler(service.NewStudentFormService(sessions, roster, encoder, sanitizer, logger), submission, validate, logger),
		TeacherFormHandler: handler.NewTeacherFormHandler(service.NewTeacherFormService(sessions, roster, encoder, sanitizer, logger), submission, logger),
		GradingHandler:     handler.NewGradingHandler(service.NewGradingService(sessions, client, roster, sanitizer, logger), logger),
		SessionMiddleware: middleware.Session(middleware.SessionConfig{
			Secret: cfg.SessionSecret,
			Cookie: cfg.SessionCookie,
			TTL:    cfg.SessionTTL,
		}, sessions, logger),
		LoginLimiter: middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateWindow),
	})

	return &testEnv{app: app, script: script}
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

// browser keeps the session cookie between requests.
type browser struct {
	t      *testing.T
	env    *testEnv
	cookie string
}

func (e *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, env: e}
}

func (b *browser) do(method, path string, body interface{}) (int, envelope) {
	b.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return b.send(req)
}

func (b *browser) upload(path, filename string, content []byte) (int, envelope) {
	b.t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(b.t, err)
	_, err = part.Write(content)
	require.NoError(b.t, err)
	require.NoError(b.t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return b.send(req)
}

func (b *browser) send(req *http.Request) (int, envelope) {
	b.t.Helper()
	status, raw := b.sendRaw(req)
	var payload envelope
	require.NoError(b.t, json.Unmarshal(raw, &payload), string(raw))
	return status, payload
}

func (b *browser) sendRaw(req *http.Request) (int, []byte) {
	b.t.Helper()
	if b.cookie != "" {
		req.AddCookie(&http.Cookie{Name: "edusubmit_session", Value: b.cookie})
	}

	resp, err := b.env.app.Test(req, -1)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.Name == "edusubmit_session" {
			b.cookie = c.Value
		}
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp.StatusCode, raw
}

func (b *browser) login(role models.Role, password string) {
	b.t.Helper()
	status, payload := b.do(http.MethodPost, "/api/v1/session/login", map[string]string{"role": string(role), "password": password})
	require.Equal(b.t, fiber.StatusOK, status, payload.Message)
}

func decodeData(t *testing.T, payload envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(payload.Data, target))
}
