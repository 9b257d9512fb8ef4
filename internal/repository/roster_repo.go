package repository

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/edusubmit-api/internal/models"
)

//go:embed data/roster.default.json data/roster.schema.json
var rosterFS embed.FS

const rosterSchemaURL = "mem://edusubmit/roster.schema.json"

// RosterRepository serves the subject list and the student catalogue.
type RosterRepository interface {
	Roster() models.Roster
	Subjects() []string
	Groups() []string
}

type rosterRepository struct {
	roster models.Roster
	groups []string
}

// NewRosterRepository loads the roster from path, or the bundled default
// when path is empty. The document must satisfy the roster schema.
func NewRosterRepository(path string) (RosterRepository, error) {
	var (
		raw []byte
		err error
	)
	if path == "" {
		raw, err = rosterFS.ReadFile("data/roster.default.json")
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	roster, err := ParseRoster(raw)
	if err != nil {
		return nil, err
	}

	return &rosterRepository{roster: roster, groups: roster.Groups()}, nil
}

// ParseRoster validates raw against the roster schema and decodes it.
func ParseRoster(raw []byte) (models.Roster, error) {
	schema, err := compileRosterSchema()
	if err != nil {
		return models.Roster{}, err
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return models.Roster{}, fmt.Errorf("decode roster: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return models.Roster{}, fmt.Errorf("invalid roster: %w", err)
	}

	var roster models.Roster
	if err := json.Unmarshal(raw, &roster); err != nil {
		return models.Roster{}, fmt.Errorf("decode roster: %w", err)
	}
	if roster.Students == nil {
		roster.Students = map[string]models.RosterStudent{}
	}
	sort.Strings(roster.Subjects)
	return roster, nil
}

func compileRosterSchema() (*jsonschema.Schema, error) {
	source, err := rosterFS.ReadFile("data/roster.schema.json")
	if err != nil {
		return nil, fmt.Errorf("read roster schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(rosterSchemaURL, bytes.NewReader(source)); err != nil {
		return nil, fmt.Errorf("load roster schema: %w", err)
	}
	schema, err := compiler.Compile(rosterSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile roster schema: %w", err)
	}
	return schema, nil
}

func (r *rosterRepository) Roster() models.Roster {
	return r.roster
}

func (r *rosterRepository) Subjects() []string {
	out := make([]string, len(r.roster.Subjects))
	copy(out, r.roster.Subjects)
	return out
}

func (r *rosterRepository) Groups() []string {
	out := make([]string, len(r.groups))
	copy(out, r.groups)
	return out
}
