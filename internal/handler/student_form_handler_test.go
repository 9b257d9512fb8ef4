package handler_test

import (
	"bytes"
	"net/http"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusubmit-api/internal/dto"
	"github.com/noah-isme/edusubmit-api/internal/models"
)

func urlQuery(value string) string {
	return url.QueryEscape(value)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func TestStudentSubmitFlow(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.login(models.RoleStudent, "")

	status, payload := b.do(http.MethodPost, "/api/v1/student/submit", nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.Equal(t, "กรุณาเลือกวิชา", payload.Message)
	require.Contains(t, payload.Details, "members")
	require.Empty(t, env.script.actions())

	status, payload = b.do(http.MethodPut, "/api/v1/student/form", map[string]string{
		"subject":         "Cloud Computing",
		"assignmentTitle": "Lab <b>1</b>",
		"filterGroup":     "ปวช. 1/1",
	})
	require.Equal(t, fiber.StatusOK, status)
	var form dto.StudentFormResponse
	decodeData(t, payload, &form)
	require.Len(t, form.Students, 3)

	status, _ = b.do(http.MethodPost, "/api/v1/student/form/members", map[string]string{"id": "66201010001"})
	require.Equal(t, fiber.StatusOK, status)
	status, payload = b.do(http.MethodPost, "/api/v1/student/form/members", map[string]string{"id": "66201010001"})
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.Equal(t, "รายชื่อนี้ถูกเพิ่มไปแล้ว", payload.Message)

	status, payload = b.upload("/api/v1/student/form/file", "shot.png", pngBytes)
	require.Equal(t, fiber.StatusOK, status)
	decodeData(t, payload, &form)
	require.NotNil(t, form.File)
	require.Equal(t, "image/png", form.File.Type)
	require.Contains(t, form.File.Preview, "data:image/png;base64,")

	status, payload = b.do(http.MethodPost, "/api/v1/student/submit", nil)
	require.Equal(t, fiber.StatusOK, status)
	var result dto.SubmitResponse
	decodeData(t, payload, &result)
	require.Equal(t, models.OverlaySuccess, result.Overlay.State)
	require.Equal(t, "บันทึกข้อมูลแล้ว", result.Overlay.Message)

	sent := env.script.last()
	require.Equal(t, "SUBMIT", sent["action"])
	require.Equal(t, "STUDENT", sent["role"])
	require.Equal(t, "ปวช. 1/1", sent["group"])
	require.Equal(t, "Lab 1", sent["assignmentTitle"])
	fileData, ok := sent["fileData"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "shot.png", fileData["name"])

	status, _ = b.do(http.MethodPost, "/api/v1/student/submit", nil)
	require.Equal(t, fiber.StatusConflict, status, "result must be acknowledged first")
	status, _ = b.do(http.MethodPut, "/api/v1/student/form", map[string]string{"assignmentTitle": "Lab 2"})
	require.Equal(t, fiber.StatusConflict, status, "draft is locked behind the overlay")

	status, _ = b.do(http.MethodPost, "/api/v1/session/overlay/ack", nil)
	require.Equal(t, fiber.StatusOK, status)

	_, payload = b.do(http.MethodGet, "/api/v1/student/form", nil)
	decodeData(t, payload, &form)
	require.Empty(t, form.Members)
	require.Nil(t, form.File)
}

func TestStudentFileRules(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.login(models.RoleStudent, "")

	status, payload := b.upload("/api/v1/student/form/file", "notes.pdf", []byte("%PDF-1.4 tiny"))
	require.Equal(t, fiber.StatusOK, status)

	status, payload = b.upload("/api/v1/student/form/file", "huge.pdf", bytes.Repeat([]byte("a"), 1024*1024+1))
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.Equal(t, "ขนาดไฟล์ต้องไม่เกิน 1MB", payload.Message)

	status, payload = b.upload("/api/v1/student/form/file", "run.exe", []byte("MZ"))
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.Contains(t, payload.Details, "file")

	_, payload = b.do(http.MethodGet, "/api/v1/student/form", nil)
	var form dto.StudentFormResponse
	decodeData(t, payload, &form)
	require.NotNil(t, form.File)
	require.Equal(t, "notes.pdf", form.File.Name, "rejected files keep the previous attachment")

	status, payload = b.do(http.MethodDelete, "/api/v1/student/form/file", nil)
	require.Equal(t, fiber.StatusOK, status)
	decodeData(t, payload, &form)
	require.Nil(t, form.File)
}

func TestStudentMemberRemoval(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.login(models.RoleStudent, "")

	b.do(http.MethodPost, "/api/v1/student/form/members", map[string]string{"id": "66201010001"})
	b.do(http.MethodPost, "/api/v1/student/form/members", map[string]string{"id": "66201010002"})

	status, _ := b.do(http.MethodDelete, "/api/v1/student/form/members/abc", nil)
	require.Equal(t, fiber.StatusBadRequest, status)
	status, _ = b.do(http.MethodDelete, "/api/v1/student/form/members/7", nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, payload := b.do(http.MethodDelete, "/api/v1/student/form/members/0", nil)
	require.Equal(t, fiber.StatusOK, status)
	var form dto.StudentFormResponse
	decodeData(t, payload, &form)
	require.Len(t, form.Members, 1)
	require.Equal(t, "66201010002", form.Members[0].ID)
}
