package dto

import (
	"time"

	"github.com/noah-isme/edusubmit-api/internal/models"
)

// GradingFilter narrows the grading list. Empty values match all rows.
type GradingFilter struct {
	Group   string `query:"group"`
	Subject string `query:"subject"`
}

// GradeEditRequest updates one row's edit buffer.
type GradeEditRequest struct {
	Score    *string `json:"score"`
	Feedback *string `json:"feedback"`
}

// GradingRowResponse is a fetched submission with its local edit state.
type GradingRowResponse struct {
	models.StoredSubmission
	Edit   models.GradeEdit `json:"edit"`
	Saving bool             `json:"saving"`
}

// GradingViewResponse is the filtered grading list.
type GradingViewResponse struct {
	Rows      []GradingRowResponse `json:"rows"`
	Saving    []int                `json:"saving"`
	Groups    []string             `json:"groups"`
	Subjects  []string             `json:"subjects"`
	Filter    GradingFilter        `json:"filter"`
	Loaded    bool                 `json:"loaded"`
	LoadError string               `json:"loadError,omitempty"`
	FetchedAt *time.Time           `json:"fetchedAt,omitempty"`
}

// GradeSaveResponse is the outcome of saving one row.
type GradeSaveResponse struct {
	RowID   int              `json:"rowId"`
	Saved   bool             `json:"saved"`
	Message string           `json:"message"`
	Edit    models.GradeEdit `json:"edit"`
}
