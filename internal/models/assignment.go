package models

import (
	"errors"
	"fmt"
	"time"
)

// Education levels offered by the college.
const (
	LevelVocational     = "ปวช."
	LevelHighVocational = "ปวส."
)

var (
	// ErrInvalidLevel indicates an unknown education level.
	ErrInvalidLevel = errors.New("invalid level")
	// ErrInvalidYear indicates a year outside the level's valid set.
	ErrInvalidYear = errors.New("invalid year")
	// ErrInvalidRoom indicates an unknown room number.
	ErrInvalidRoom = errors.New("invalid room")
)

var (
	levels     = []string{LevelVocational, LevelHighVocational}
	rooms      = []string{"1", "2", "3"}
	levelYears = map[string][]string{
		LevelVocational:     {"1", "2", "3"},
		LevelHighVocational: {"1", "2"},
	}
)

// Levels returns the selectable education levels.
func Levels() []string {
	return append([]string(nil), levels...)
}

// Rooms returns the selectable room numbers.
func Rooms() []string {
	return append([]string(nil), rooms...)
}

// YearOptions returns the valid years for a level.
func YearOptions(level string) []string {
	return append([]string(nil), levelYears[level]...)
}

// TeacherDraft accumulates the assignment form.
type TeacherDraft struct {
	Level   string       `json:"level" validate:"required,oneof=ปวช. ปวส."`
	Year    string       `json:"year" validate:"required"`
	Room    string       `json:"room" validate:"required"`
	Subject string       `json:"subject" validate:"required"`
	Topic   string       `json:"topic" validate:"required"`
	DueDate string       `json:"dueDate" validate:"required,datetime=2006-01-02"`
	File    *FilePayload `json:"file,omitempty"`
}

// NewTeacherDraft returns a draft preset to the first class of the first level.
func NewTeacherDraft() *TeacherDraft {
	return &TeacherDraft{Level: LevelVocational, Year: "1", Room: "1"}
}

// SetLevel switches level and resets the year when it falls outside the
// level's valid set.
func (d *TeacherDraft) SetLevel(level string) error {
	years, ok := levelYears[level]
	if !ok {
		return ErrInvalidLevel
	}
	d.Level = level
	if !contains(years, d.Year) {
		d.Year = years[0]
	}
	return nil
}

// SetYear selects a year valid for the current level.
func (d *TeacherDraft) SetYear(year string) error {
	if !contains(levelYears[d.Level], year) {
		return ErrInvalidYear
	}
	d.Year = year
	return nil
}

// SetRoom selects a room.
func (d *TeacherDraft) SetRoom(room string) error {
	if !contains(rooms, room) {
		return ErrInvalidRoom
	}
	d.Room = room
	return nil
}

// TargetGroup is the classroom label the assignment is addressed to.
func (d *TeacherDraft) TargetGroup() string {
	return fmt.Sprintf("%s %s/%s", d.Level, d.Year, d.Room)
}

// Record assembles the SUBMIT request. It does not validate.
func (d *TeacherDraft) Record(now time.Time) SubmissionRecord {
	return SubmissionRecord{
		Role:        RoleTeacher,
		Action:      ActionSubmit,
		Timestamp:   FormatTimestamp(now),
		FileData:    d.File,
		Level:       d.Level,
		Year:        d.Year,
		Room:        d.Room,
		TargetGroup: d.TargetGroup(),
		Subject:     d.Subject,
		Topic:       d.Topic,
		DueDate:     d.DueDate,
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
