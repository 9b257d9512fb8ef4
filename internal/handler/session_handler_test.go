package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusubmit-api/internal/dto"
	"github.com/noah-isme/edusubmit-api/internal/middleware"
	"github.com/noah-isme/edusubmit-api/internal/models"
	"github.com/noah-isme/edusubmit-api/internal/service"
)

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	status, payload := env.browser(t).do(http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.True(t, payload.Success)

	var health map[string]interface{}
	decodeData(t, payload, &health)
	require.Equal(t, "ok", health["status"])
	require.Equal(t, "memory", health["sessionStore"])
	require.Empty(t, env.script.actions(), "health never calls the spreadsheet")
}

func TestMetricsScrapeAfterMixedTraffic(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	b.do(http.MethodGet, "/api/v1/health", nil)
	b.login(models.RoleStudent, "")
	b.do(http.MethodPut, "/api/v1/student/form", map[string]string{"subject": "Cloud Computing"})
	b.do(http.MethodDelete, "/api/v1/student/form/file", nil)
	b.do(http.MethodGet, "/api/v1/student/form", nil)
	b.do(http.MethodPost, "/api/v1/session/logout", nil)
	b.do(http.MethodGet, "/api/v1/session", nil)

	for i := 0; i < 2; i++ {
		status, raw := b.sendRaw(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, fiber.StatusOK, status, string(raw))
		body := string(raw)
		require.Contains(t, body, "edusubmit_http_requests_total")
		require.Contains(t, body, `method="GET"`)
		require.Contains(t, body, `method="POST"`)
		require.Contains(t, body, `method="PUT"`)
		require.Contains(t, body, `method="DELETE"`)
	}
}

func TestSessionLoginLogout(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	status, payload := b.do(http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, fiber.StatusOK, status)
	var session dto.SessionResponse
	decodeData(t, payload, &session)
	require.Equal(t, models.RoleGuest, session.Role)
	require.NotEmpty(t, b.cookie)

	b.login(models.RoleStudent, "")
	_, payload = b.do(http.MethodGet, "/api/v1/session", nil)
	decodeData(t, payload, &session)
	require.Equal(t, models.RoleStudent, session.Role)

	status, _ = b.do(http.MethodPost, "/api/v1/session/login", map[string]string{"role": "TEACHER", "password": teacherPassword})
	require.Equal(t, fiber.StatusConflict, status)

	status, payload = b.do(http.MethodPost, "/api/v1/session/logout", nil)
	require.Equal(t, fiber.StatusOK, status)
	decodeData(t, payload, &session)
	require.Equal(t, models.RoleGuest, session.Role)
}

func TestTeacherLoginRequiresPassword(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	status, payload := b.do(http.MethodPost, "/api/v1/session/login", map[string]string{"role": "TEACHER", "password": "nope"})
	require.Equal(t, fiber.StatusUnauthorized, status)
	require.Equal(t, service.MsgWrongPassword, payload.Message)

	status, payload = b.do(http.MethodPost, "/api/v1/session/login", map[string]string{"role": "ADMIN"})
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.Contains(t, payload.Details, "role")

	b.login(models.RoleTeacher, teacherPassword)
}

func TestLoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	var status int
	var payload envelope
	for i := 0; i < 6; i++ {
		status, payload = b.do(http.MethodPost, "/api/v1/session/login", map[string]string{"role": "TEACHER", "password": "guess"})
	}
	require.Equal(t, fiber.StatusTooManyRequests, status)
	require.Equal(t, middleware.MsgTooManyAttempts, payload.Message)
}

func TestRoleGuardsRoutes(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	status, _ := b.do(http.MethodGet, "/api/v1/student/form", nil)
	require.Equal(t, fiber.StatusForbidden, status)

	b.login(models.RoleStudent, "")
	status, _ = b.do(http.MethodGet, "/api/v1/teacher/grading", nil)
	require.Equal(t, fiber.StatusForbidden, status)
	status, _ = b.do(http.MethodGet, "/api/v1/student/form", nil)
	require.Equal(t, fiber.StatusOK, status)
}

func TestReferenceData(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	_, payload := b.do(http.MethodGet, "/api/v1/reference/subjects", nil)
	var subjects []string
	decodeData(t, payload, &subjects)
	require.Contains(t, subjects, "Cloud Computing")

	_, payload = b.do(http.MethodGet, "/api/v1/reference/students?group="+urlQuery("ปวช. 1/1"), nil)
	var students dto.ReferenceStudentsResponse
	decodeData(t, payload, &students)
	require.Equal(t, "ปวช. 1/1", students.Group)
	require.Len(t, students.Students, 3)
	require.Equal(t, "66201010001 - นายกิตติพงษ์ ใจดี", students.Students[0].Label)

	_, payload = b.do(http.MethodGet, "/api/v1/reference/students", nil)
	decodeData(t, payload, &students)
	require.Empty(t, students.Students)
}
