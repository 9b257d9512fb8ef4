package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Role identifies who is operating the current page session.
type Role string

const (
	// RoleGuest is the initial role before anyone logs in.
	RoleGuest Role = "GUEST"
	// RoleStudent submits coursework.
	RoleStudent Role = "STUDENT"
	// RoleTeacher assigns and grades work.
	RoleTeacher Role = "TEACHER"
)

// Action selects the remote operation multiplexed over the single endpoint.
type Action string

const (
	ActionSubmit         Action = "SUBMIT"
	ActionGetSubmissions Action = "GET_SUBMISSIONS"
	ActionUpdateGrade    Action = "UPDATE_GRADE"
)

// Response statuses reported by the remote endpoint.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TimestampLayout renders timestamps the way the spreadsheet expects them.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Member is a student listed on a submission.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
}

// FilePayload carries an attached file as base64 content.
type FilePayload struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Base64 string `json:"base64"`
	Size   int64  `json:"size"`
}

// PreviewURL is the data URL of an image payload, empty for other types.
func PreviewURL(p FilePayload) string {
	if p.Base64 == "" || !strings.HasPrefix(p.Type, "image/") {
		return ""
	}
	return "data:" + p.Type + ";base64," + p.Base64
}

// SubmissionRecord is the request body posted to the remote endpoint.
// Fields that do not apply to the role or action stay empty and are omitted.
type SubmissionRecord struct {
	Role      Role         `json:"role,omitempty"`
	Action    Action       `json:"action"`
	Timestamp string       `json:"timestamp,omitempty"`
	FileData  *FilePayload `json:"fileData,omitempty"`

	Group           string   `json:"group,omitempty"`
	Subject         string   `json:"subject,omitempty"`
	Members         []Member `json:"members,omitempty"`
	AssignmentTitle string   `json:"assignmentTitle,omitempty"`
	Link            string   `json:"link,omitempty"`

	Level       string `json:"level,omitempty"`
	Year        string `json:"year,omitempty"`
	Room        string `json:"room,omitempty"`
	TargetGroup string `json:"targetGroup,omitempty"`
	Topic       string `json:"topic,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
}

// GradeUpdate is the UPDATE_GRADE request body. Score and feedback are
// always sent so a grade can be cleared.
type GradeUpdate struct {
	Action   Action `json:"action"`
	RowID    int    `json:"rowId"`
	Score    string `json:"score"`
	Feedback string `json:"feedback"`
}

// Text is a string that also accepts JSON numbers and null.
// Spreadsheet cells holding scores come back as numbers.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

// String returns the plain string value.
func (t Text) String() string {
	return string(t)
}

// StoredSubmission is one spreadsheet row as returned by GET_SUBMISSIONS.
type StoredSubmission struct {
	RowID           int      `json:"rowId"`
	Timestamp       string   `json:"timestamp"`
	Group           string   `json:"group"`
	Subject         string   `json:"subject"`
	AssignmentTitle string   `json:"assignmentTitle"`
	Members         []Member `json:"members"`
	Link            string   `json:"link,omitempty"`
	FileURL         string   `json:"fileUrl,omitempty"`
	FileName        string   `json:"fileName,omitempty"`
	Score           Text     `json:"score,omitempty"`
	Feedback        Text     `json:"feedback,omitempty"`
}

// APIResponse is the uniform response of the remote endpoint.
type APIResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	FileURL string             `json:"fileUrl,omitempty"`
	Data    []StoredSubmission `json:"data,omitempty"`
}

// OK reports whether the endpoint reported success.
func (r APIResponse) OK() bool {
	return r.Status == StatusSuccess
}
