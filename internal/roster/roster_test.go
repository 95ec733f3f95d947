package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/rosterpulse/internal/errors"
	"github.com/rohankatakam/rosterpulse/internal/models"
)

func TestParse_YAML(t *testing.T) {
	data := []byte(`
default_repo: lab-work
entries:
  - identity: alice
    name: Alice Smith
    roll_no: "21CS001"
    branch: CSE
    section: A
    repo: portfolio
  - identity: bob
    name: Bob Jones
    roll_no: "21CS002"
    branch: CSE
    section: B
`)

	entries, err := Parse(data, DefaultRepo)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, models.RosterEntry{
		Identity: "alice", Name: "Alice Smith", RollNo: "21CS001",
		Branch: "CSE", Section: "A", Repo: "portfolio",
	}, entries[0])
	assert.Equal(t, "lab-work", entries[1].Repo, "file default_repo wins over the configured one")
}

func TestParse_JSONStudentSheet(t *testing.T) {
	data := []byte(`[
  {"GitName": "carol", "Name": "Carol", "RollNo": "7", "Branch": "ECE", "Section": "C", "Repo": ""},
  {"GitName": "dave", "Name": "Dave", "RollNo": "8", "Branch": "ECE", "Section": "C", "Repo": "site"}
]`)

	entries, err := Parse(data, "default-repo")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "carol", entries[0].Identity)
	assert.Equal(t, "default-repo", entries[0].Repo)
	assert.Equal(t, "ECE", entries[0].Branch)
	assert.Equal(t, "site", entries[1].Repo)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		contains string
	}{
		{"empty", "   ", "roster is empty"},
		{"no entries", "default_repo: x\n", "no entries"},
		{"missing identity", "- name: Nobody\n", "missing identity"},
		{"duplicate", "- identity: alice\n- identity: Alice\n", "duplicate identity"},
		{"bad repo", "- identity: alice\n  repo: a/b\n", "invalid repository"},
		{"bad yaml", "entries: [\n", "parse roster"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), DefaultRepo)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Equal(t, errors.ErrorTypeValidation, errors.GetType(err))
		})
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := []models.RosterEntry{{Identity: "alice"}}

	out, err := Normalize(in, "fallback")
	require.NoError(t, err)

	assert.Equal(t, "fallback", out[0].Repo)
	assert.Empty(t, in[0].Repo)
}

func TestNormalize_EmptyDefaultRepo(t *testing.T) {
	_, err := Normalize([]models.RosterEntry{{Identity: "alice"}}, " ")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfig, errors.GetType(err))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- identity: erin\n  branch: ME\n  section: A\n"), 0o644))

	entries, err := Load(path, "repo")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "erin", entries[0].Identity)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), "repo")
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	entries := []models.RosterEntry{
		{Identity: "a", Branch: "CSE", Section: "A"},
		{Identity: "b", Branch: "CSE", Section: "B"},
		{Identity: "c", Branch: "ECE", Section: "A"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero", Filter{}, []string{"a", "b", "c"}},
		{"branch", Filter{Branch: "cse"}, []string{"a", "b"}},
		{"section", Filter{Section: "A"}, []string{"a", "c"}},
		{"both", Filter{Branch: "CSE", Section: "b"}, []string{"b"}},
		{"none", Filter{Branch: "ME"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, e := range tt.filter.Apply(entries) {
				got = append(got, e.Identity)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	invalid := []models.InvalidEntry{{Identity: "x", Branch: "ECE", Section: "A"}}
	assert.Len(t, Filter{Branch: "ECE"}.ApplyInvalid(invalid), 1)
	assert.Empty(t, Filter{Branch: "CSE"}.ApplyInvalid(invalid))
}

func TestFind(t *testing.T) {
	entries := []models.RosterEntry{
		{Identity: "Alice", Repo: "lab"},
		{Identity: "bob", Repo: "lab"},
	}

	got, ok := Find(entries, "alice")
	require.True(t, ok)
	assert.Equal(t, "Alice", got.Identity)

	_, ok = Find(entries, "carol")
	assert.False(t, ok)
}
