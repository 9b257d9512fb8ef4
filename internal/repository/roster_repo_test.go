package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRosterLoads(t *testing.T) {
	repo, err := NewRosterRepository("")
	require.NoError(t, err)

	require.Contains(t, repo.Subjects(), "Cloud Computing")
	require.Contains(t, repo.Groups(), "ปวช. 1/1")
	require.IsIncreasing(t, repo.Groups())

	member, ok := repo.Roster().Lookup("66201010001")
	require.True(t, ok)
	require.Equal(t, "ปวช. 1/1", member.Group)
}

func TestRosterFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"subjects": ["Web Programming", "Algorithms"],
		"students": {"1": {"name": "Solo"}, "2": {"name": "Duo", "group": "ปวส. 2/1"}}
	}`), 0o600))

	repo, err := NewRosterRepository(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Algorithms", "Web Programming"}, repo.Subjects())
	require.Equal(t, []string{"ปวส. 2/1"}, repo.Groups())
}

func TestRosterSchemaViolationsRejected(t *testing.T) {
	cases := map[string]string{
		"missing subjects": `{"students": {}}`,
		"empty subjects":   `{"subjects": [], "students": {}}`,
		"nameless student": `{"subjects": ["A"], "students": {"1": {"group": "g"}}}`,
		"unknown field":    `{"subjects": ["A"], "students": {}, "teachers": []}`,
		"numeric subject":  `{"subjects": [42], "students": {}}`,
		"numeric name":     `{"subjects": ["A"], "students": {"1": {"name": 7}}}`,
		"not json":         `subjects: [A]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRoster([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestRosterMissingFile(t *testing.T) {
	_, err := NewRosterRepository(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
