package dto

import "github.com/noah-isme/edusubmit-api/internal/models"

// FileResponse describes the attachment of a draft without its content.
type FileResponse struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Size    int64  `json:"size"`
	Preview string `json:"preview,omitempty"`
}

// NewFileResponse returns nil when no file is attached.
func NewFileResponse(payload *models.FilePayload) *FileResponse {
	if payload == nil {
		return nil
	}
	return &FileResponse{
		Name:    payload.Name,
		Type:    payload.Type,
		Size:    payload.Size,
		Preview: models.PreviewURL(*payload),
	}
}

// StudentFormUpdateRequest changes the text fields of the student draft.
// Nil fields are left unchanged.
type StudentFormUpdateRequest struct {
	Subject         *string `json:"subject"`
	AssignmentTitle *string `json:"assignmentTitle"`
	Link            *string `json:"link"`
	FilterGroup     *string `json:"filterGroup"`
}

// AddMemberRequest names the roster student to add.
type AddMemberRequest struct {
	ID string `json:"id" validate:"required"`
}

// StudentFormResponse is the student draft plus the options to render it.
type StudentFormResponse struct {
	Subject         string          `json:"subject"`
	AssignmentTitle string          `json:"assignmentTitle"`
	Link            string          `json:"link"`
	FilterGroup     string          `json:"filterGroup"`
	Group           string          `json:"group"`
	Members         []models.Member `json:"members"`
	MemberLimit     int             `json:"memberLimit"`
	File            *FileResponse   `json:"file"`
	Subjects        []string        `json:"subjects"`
	Groups          []string        `json:"groups"`
	Students        []models.Option `json:"students"`
}

// TeacherFormUpdateRequest changes the assignment draft. Nil fields are left
// unchanged. Level is applied before year.
type TeacherFormUpdateRequest struct {
	Level   *string `json:"level"`
	Year    *string `json:"year"`
	Room    *string `json:"room"`
	Subject *string `json:"subject"`
	Topic   *string `json:"topic"`
	DueDate *string `json:"dueDate"`
}

// TeacherFormResponse is the assignment draft plus its selector options.
type TeacherFormResponse struct {
	Level       string        `json:"level"`
	Year        string        `json:"year"`
	Room        string        `json:"room"`
	TargetGroup string        `json:"targetGroup"`
	Subject     string        `json:"subject"`
	Topic       string        `json:"topic"`
	DueDate     string        `json:"dueDate"`
	File        *FileResponse `json:"file"`
	Levels      []string      `json:"levels"`
	Years       []string      `json:"years"`
	Rooms       []string      `json:"rooms"`
	Subjects    []string      `json:"subjects"`
}

// SubmitResponse reports the overlay after a submission attempt.
type SubmitResponse struct {
	Overlay models.Overlay `json:"overlay"`
	FileURL string         `json:"fileUrl,omitempty"`
}
