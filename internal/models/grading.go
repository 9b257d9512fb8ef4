package models

import (
	"errors"
	"time"
)

var (
	// ErrRowNotFound indicates the row id is not in the fetched snapshot.
	ErrRowNotFound = errors.New("submission row not found")
	// ErrSaveInFlight indicates the row already has a save pending.
	ErrSaveInFlight = errors.New("grade save already in progress")
)

// GradeEdit is the local edit buffer of one row.
type GradeEdit struct {
	Score    string `json:"score"`
	Feedback string `json:"feedback"`
}

// GradingBook is the teacher's snapshot of submissions plus per-row
// edit buffers and the set of rows with a save in flight.
type GradingBook struct {
	Rows      []StoredSubmission `json:"rows"`
	Edits     map[int]GradeEdit  `json:"edits"`
	Saving    map[int]bool       `json:"saving"`
	Loaded    bool               `json:"loaded"`
	LoadError string             `json:"loadError,omitempty"`
	FetchedAt time.Time          `json:"fetchedAt"`
}

// NewGradingBook returns an unloaded book.
func NewGradingBook() *GradingBook {
	return &GradingBook{
		Rows:   []StoredSubmission{},
		Edits:  map[int]GradeEdit{},
		Saving: map[int]bool{},
	}
}

// Replace installs a fresh snapshot and reseeds edit buffers from it.
// Rows with a save in flight keep their buffer.
func (b *GradingBook) Replace(rows []StoredSubmission, now time.Time) {
	b.ensure()
	if rows == nil {
		rows = []StoredSubmission{}
	}
	edits := make(map[int]GradeEdit, len(rows))
	for _, row := range rows {
		if b.Saving[row.RowID] {
			if current, ok := b.Edits[row.RowID]; ok {
				edits[row.RowID] = current
				continue
			}
		}
		edits[row.RowID] = GradeEdit{Score: row.Score.String(), Feedback: row.Feedback.String()}
	}
	b.Rows = rows
	b.Edits = edits
	b.Loaded = true
	b.LoadError = ""
	b.FetchedAt = now
}

// Fail records a fetch failure while keeping the previous snapshot.
func (b *GradingBook) Fail(message string) {
	b.ensure()
	b.Loaded = true
	b.LoadError = message
}

// Row returns the stored row with the given id.
func (b *GradingBook) Row(rowID int) (StoredSubmission, bool) {
	for _, row := range b.Rows {
		if row.RowID == rowID {
			return row, true
		}
	}
	return StoredSubmission{}, false
}

// Edit updates one row's buffer. Nil values are left unchanged.
func (b *GradingBook) Edit(rowID int, score, feedback *string) (GradeEdit, error) {
	b.ensure()
	if _, ok := b.Row(rowID); !ok {
		return GradeEdit{}, ErrRowNotFound
	}
	edit := b.Edits[rowID]
	if score != nil {
		edit.Score = *score
	}
	if feedback != nil {
		edit.Feedback = *feedback
	}
	b.Edits[rowID] = edit
	return edit, nil
}

// BeginSave marks the row in flight and returns the values to send.
func (b *GradingBook) BeginSave(rowID int) (GradeEdit, error) {
	b.ensure()
	if _, ok := b.Row(rowID); !ok {
		return GradeEdit{}, ErrRowNotFound
	}
	if b.Saving[rowID] {
		return GradeEdit{}, ErrSaveInFlight
	}
	b.Saving[rowID] = true
	return b.Edits[rowID], nil
}

// FinishSave clears the in-flight mark. On success the stored row adopts
// the saved values so the view matches without a refetch.
func (b *GradingBook) FinishSave(rowID int, saved GradeEdit, ok bool) {
	b.ensure()
	delete(b.Saving, rowID)
	if !ok {
		return
	}
	for i := range b.Rows {
		if b.Rows[i].RowID == rowID {
			b.Rows[i].Score = Text(saved.Score)
			b.Rows[i].Feedback = Text(saved.Feedback)
		}
	}
}

// SavingIDs lists rows with a save in flight.
func (b *GradingBook) SavingIDs() []int {
	ids := make([]int, 0, len(b.Saving))
	for _, row := range b.Rows {
		if b.Saving[row.RowID] {
			ids = append(ids, row.RowID)
		}
	}
	return ids
}

// Filter returns rows matching group and subject. Empty values match all.
func (b *GradingBook) Filter(group, subject string) []StoredSubmission {
	result := make([]StoredSubmission, 0, len(b.Rows))
	for _, row := range b.Rows {
		if group != "" && row.Group != group {
			continue
		}
		if subject != "" && row.Subject != subject {
			continue
		}
		result = append(result, row)
	}
	return result
}

// GroupOptions is the sorted union of reference groups and observed ones.
func (b *GradingBook) GroupOptions(reference []string) []string {
	set := make(map[string]struct{}, len(reference))
	for _, g := range reference {
		set[g] = struct{}{}
	}
	for _, row := range b.Rows {
		if row.Group != "" {
			set[row.Group] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// SubjectOptions is the sorted union of reference subjects and observed ones.
func (b *GradingBook) SubjectOptions(reference []string) []string {
	set := make(map[string]struct{}, len(reference))
	for _, s := range reference {
		set[s] = struct{}{}
	}
	for _, row := range b.Rows {
		if row.Subject != "" {
			set[row.Subject] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// maps decoded from JSON null come back nil
func (b *GradingBook) ensure() {
	if b.Edits == nil {
		b.Edits = map[int]GradeEdit{}
	}
	if b.Saving == nil {
		b.Saving = map[int]bool{}
	}
}
