package roster

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/rosterpulse/internal/errors"
	"github.com/rohankatakam/rosterpulse/internal/models"
)

// DefaultRepo is used for entries without a repository when no other default
// is configured
const DefaultRepo = "default-repo"

// File is the on-disk roster layout. A bare list of entries is accepted too.
type File struct {
	DefaultRepo string     `yaml:"default_repo"`
	Entries     []rawEntry `yaml:"entries"`
}

// rawEntry accepts both the native field names and the GitName/RollNo style
// used by exported student sheets
type rawEntry struct {
	Identity string `yaml:"identity"`
	GitName  string `yaml:"GitName"`
	Name     string `yaml:"name"`
	NameAlt  string `yaml:"Name"`
	RollNo   string `yaml:"roll_no"`
	RollAlt  string `yaml:"RollNo"`
	Branch   string `yaml:"branch"`
	BranchA  string `yaml:"Branch"`
	Section  string `yaml:"section"`
	SectionA string `yaml:"Section"`
	Repo     string `yaml:"repo"`
	RepoAlt  string `yaml:"Repo"`
}

func (r rawEntry) toEntry() models.RosterEntry {
	return models.RosterEntry{
		Identity: strings.TrimSpace(first(r.Identity, r.GitName)),
		Name:     strings.TrimSpace(first(r.Name, r.NameAlt)),
		RollNo:   strings.TrimSpace(first(r.RollNo, r.RollAlt)),
		Branch:   strings.TrimSpace(first(r.Branch, r.BranchA)),
		Section:  strings.TrimSpace(first(r.Section, r.SectionA)),
		Repo:     strings.TrimSpace(first(r.Repo, r.RepoAlt)),
	}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Load reads and validates a roster file (YAML or JSON).
// defaultRepo fills entries without a repository; a default_repo inside the
// file takes precedence over it.
func Load(path, defaultRepo string) ([]models.RosterEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", filepath.Base(path), err)
	}
	return Parse(data, defaultRepo)
}

// Parse decodes roster data and applies defaults and validation
func Parse(data []byte, defaultRepo string) ([]models.RosterEntry, error) {
	var file File

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.ValidationError("roster is empty")
	}

	if trimmed[0] == '[' || trimmed[0] == '-' {
		if err := yaml.Unmarshal(data, &file.Entries); err != nil {
			return nil, errors.ValidationErrorf("parse roster: %v", err)
		}
	} else if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.ValidationErrorf("parse roster: %v", err)
	}

	if file.DefaultRepo != "" {
		defaultRepo = file.DefaultRepo
	}

	entries := make([]models.RosterEntry, 0, len(file.Entries))
	for _, raw := range file.Entries {
		entries = append(entries, raw.toEntry())
	}

	return Normalize(entries, defaultRepo)
}

// Normalize applies the default repository and validates the roster.
// The returned slice is a copy; the input is not modified.
func Normalize(entries []models.RosterEntry, defaultRepo string) ([]models.RosterEntry, error) {
	defaultRepo = strings.TrimSpace(defaultRepo)
	if defaultRepo == "" {
		return nil, errors.ConfigError("default repository must not be empty")
	}

	out := make([]models.RosterEntry, len(entries))
	copy(out, entries)
	for i := range out {
		if out[i].Repo == "" {
			out[i].Repo = defaultRepo
		}
	}

	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks identities are present and unique and repositories are
// plain names
func Validate(entries []models.RosterEntry) error {
	if len(entries) == 0 {
		return errors.ValidationError("roster has no entries")
	}

	var problems []string
	seen := make(map[string]int, len(entries))

	for i, e := range entries {
		row := i + 1
		switch {
		case e.Identity == "":
			problems = append(problems, fmt.Sprintf("entry %d: missing identity", row))
		case strings.ContainsAny(e.Identity, "/ "):
			problems = append(problems, fmt.Sprintf("entry %d: invalid identity %q", row, e.Identity))
		}

		if e.Identity != "" {
			key := strings.ToLower(e.Identity)
			if prev, dup := seen[key]; dup {
				problems = append(problems, fmt.Sprintf("entry %d: duplicate identity %q (first seen at entry %d)", row, e.Identity, prev))
			} else {
				seen[key] = row
			}
		}

		if e.Repo == "" {
			problems = append(problems, fmt.Sprintf("entry %d: missing repository", row))
		} else if strings.ContainsAny(e.Repo, "/ ") {
			problems = append(problems, fmt.Sprintf("entry %d: invalid repository %q", row, e.Repo))
		}
	}

	if len(problems) > 0 {
		return errors.ValidationErrorf("invalid roster:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}
