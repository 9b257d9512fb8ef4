package models

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// MaxMembers caps the group size of a student submission.
const MaxMembers = 5

// UnassignedGroup labels submissions whose first member has no group.
const UnassignedGroup = "ไม่ระบุ"

var (
	// ErrMemberLimit indicates the draft already holds MaxMembers members.
	ErrMemberLimit = errors.New("member limit reached")
	// ErrDuplicateMember indicates the student is already on the draft.
	ErrDuplicateMember = errors.New("member already added")
	// ErrMemberIndex indicates a member index outside the current list.
	ErrMemberIndex = errors.New("member index out of range")
)

// RosterStudent is one entry of the student catalogue.
type RosterStudent struct {
	Name  string `json:"name"`
	Group string `json:"group"`
}

// Option is a value/label pair rendered as a select option.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Roster holds the reference data shipped with the front end.
type Roster struct {
	Subjects []string                 `json:"subjects"`
	Students map[string]RosterStudent `json:"students"`
}

// Groups returns the sorted set of classroom groups in the catalogue.
func (r Roster) Groups() []string {
	seen := make(map[string]struct{}, len(r.Students))
	for _, s := range r.Students {
		if s.Group != "" {
			seen[s.Group] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Lookup resolves a student id into a member.
func (r Roster) Lookup(id string) (Member, bool) {
	id = strings.TrimSpace(id)
	s, ok := r.Students[id]
	if !ok {
		return Member{}, false
	}
	return Member{ID: id, Name: s.Name, Group: s.Group}, true
}

// StudentsInGroup lists "<id> - <name>" options for a group, sorted by id.
// An empty group yields no options.
func (r Roster) StudentsInGroup(group string) []Option {
	options := make([]Option, 0)
	if group == "" {
		return options
	}
	for id, s := range r.Students {
		if s.Group == group {
			options = append(options, Option{Value: id, Label: id + " - " + s.Name})
		}
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Value < options[j].Value })
	return options
}

// StudentDraft accumulates the student submission form. Field order is the
// order in which validation reports problems.
type StudentDraft struct {
	Subject         string       `json:"subject" validate:"required"`
	FilterGroup     string       `json:"filterGroup"`
	Members         []Member     `json:"members" validate:"min=1,max=5,unique=ID"`
	AssignmentTitle string       `json:"assignmentTitle" validate:"required"`
	Link            string       `json:"link" validate:"omitempty,url"`
	File            *FilePayload `json:"file,omitempty"`
}

// NewStudentDraft returns an empty draft.
func NewStudentDraft() *StudentDraft {
	return &StudentDraft{Members: []Member{}}
}

// AddMember appends a member, refusing duplicates and overflow.
func (d *StudentDraft) AddMember(m Member) error {
	if len(d.Members) >= MaxMembers {
		return ErrMemberLimit
	}
	for _, existing := range d.Members {
		if existing.ID == m.ID {
			return ErrDuplicateMember
		}
	}
	d.Members = append(d.Members, m)
	return nil
}

// RemoveMember drops the member at index.
func (d *StudentDraft) RemoveMember(index int) error {
	if index < 0 || index >= len(d.Members) {
		return ErrMemberIndex
	}
	d.Members = append(d.Members[:index:index], d.Members[index+1:]...)
	return nil
}

// PrimaryGroup is the group of the first member.
func (d *StudentDraft) PrimaryGroup() string {
	if len(d.Members) == 0 || d.Members[0].Group == "" {
		return UnassignedGroup
	}
	return d.Members[0].Group
}

// Record assembles the SUBMIT request. It does not validate.
func (d *StudentDraft) Record(now time.Time) SubmissionRecord {
	members := make([]Member, len(d.Members))
	copy(members, d.Members)
	return SubmissionRecord{
		Role:            RoleStudent,
		Action:          ActionSubmit,
		Timestamp:       FormatTimestamp(now),
		FileData:        d.File,
		Group:           d.PrimaryGroup(),
		Subject:         d.Subject,
		Members:         members,
		AssignmentTitle: d.AssignmentTitle,
		Link:            d.Link,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
