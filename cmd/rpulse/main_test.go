package main

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/rosterpulse/internal/errors"
	"github.com/rohankatakam/rosterpulse/internal/roster"
)

const testRoster = `default_repo: lab
entries:
  - identity: alice
    name: Alice
    branch: CSE
    section: A
  - identity: bob
    name: Bob
    branch: CSE
    section: B
`

// execute runs the root command against a fake GitHub where alice has one
// commit today and bob's repository is missing
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	today := time.Now().UTC().Format(time.RFC3339)
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/alice/lab/commits":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `[{"sha": "abc1234def", "commit": {"message": "init", "committer": {"name": "Alice", "date": %q}}}]`, today)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(gh.Close)

	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(rosterPath, []byte(testRoster), 0644))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
github:
  base_url: %s
ingest:
  inter_batch_delay: 0s
roster:
  path: %s
log:
  level: error
`, gh.URL, rosterPath)), 0644))

	t.Setenv("HOME", dir)
	t.Setenv("GITHUB_TOKEN", "ghp_cmdtesttoken0000")
	t.Setenv("RPULSE_MODE", "ci")
	t.Setenv("RPULSE_OUTPUT", "")

	outputFormat, runExportPath, runRosterPath = "", "", ""
	runFilter = roster.Filter{}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunCommand_Quiet(t *testing.T) {
	out, err := execute(t, "run", "-o", "quiet")
	require.NoError(t, err)

	assert.Equal(t, "⚠️  1/2 users active over 5 days, 1 invalid entries\nRun 'rpulse run' for details\n", out)
}

func TestRunCommand_FilterAndExport(t *testing.T) {
	export := filepath.Join(t.TempDir(), "report.csv")

	out, err := execute(t, "run", "-o", "quiet", "--section", "A", "--export", export)
	require.NoError(t, err)
	assert.Equal(t, "✅ 1/1 users active over 5 days\n", out)

	data, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Contains(t, string(data), "User Commits")
	assert.Contains(t, string(data), "alice")
	assert.NotContains(t, string(data), "bob")
}

func TestRunCommand_BadOutput(t *testing.T) {
	_, err := execute(t, "run", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestExitCode(t *testing.T) {
	t.Setenv("RPULSE_WINDOW_SIZE", "0")
	_, err := execute(t, "run", "-o", "quiet")
	require.Error(t, err)
	assert.Equal(t, exitFatal, exitCode(err), "invalid configuration")

	_, err = execute(t, "run", "-o", "xml")
	require.Error(t, err)
	assert.Equal(t, exitFailure, exitCode(err), "bad flag value")

	assert.Equal(t, exitFatal, exitCode(fmt.Errorf("startup: %w", errors.InternalErrorf("no client"))))
	assert.Equal(t, exitFailure, exitCode(errors.ValidationError("roster has no entries")))
	assert.Equal(t, exitFailure, exitCode(stderrors.New("plain")))
}

func TestRosterValidateCommand(t *testing.T) {
	out, err := execute(t, "roster", "validate")
	require.NoError(t, err)

	assert.Contains(t, out, "2 entries in 2 groups")
	assert.Contains(t, out, "CSE/A")
}

func TestBrowseHost(t *testing.T) {
	assert.Equal(t, "localhost:8080", browseHost(":8080"))
	assert.Equal(t, "localhost:9000", browseHost("0.0.0.0:9000"))
	assert.Equal(t, "127.0.0.1:8080", browseHost("127.0.0.1:8080"))
	assert.Equal(t, "example", browseHost("example"))
}

func TestLogFilePath(t *testing.T) {
	assert.Equal(t, "/var/log/rpulse.log", logFilePath("/var/log/rpulse.log"))
	assert.Equal(t, "", logFilePath(""))

	t.Setenv("HOME", t.TempDir())
	auto := logFilePath("auto")
	assert.Contains(t, auto, filepath.Join(".rosterpulse", "logs", "rpulse_"))
}
