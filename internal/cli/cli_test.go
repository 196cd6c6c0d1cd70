package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arnavshah/team-allocator-go/pkg/allocator"
	"github.com/arnavshah/team-allocator-go/pkg/models"
	"github.com/stretchr/testify/require"
)

const rosterCSV = "name,join_date,current_team,age,gender\n" +
	"Kim,2023-01-01,Team 1,31,F\n" +
	"Lee,2023-06-01,Team 2,27,M\n" +
	"Kim,2023-12-01,Team 1,45,M\n" +
	"Park,2024-03-01,,22,F\n" +
	"Choi,2024-05-01,,,\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAllocateCommand(t *testing.T) {
	path := writeFile(t, "roster.csv", rosterCSV)

	stdout, stderr, err := run(t, "allocate", path, "--cutoff", "2023-12-31", "--teams", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 6)
	require.Equal(t, "\ufeffname,current_team,new_team,join_date,age,gender", lines[0])
	require.Contains(t, stderr, "Members: 5 (existing 3, new 2), cutoff 2023-12-31, teams 2")
	require.Contains(t, stderr, "Team 1 (")
	require.Contains(t, stderr, "Team 2 (")

	again, _, err := run(t, "allocate", path, "--cutoff", "2023-12-31", "--teams", "2")
	require.NoError(t, err)
	require.Equal(t, stdout, again)
}

func TestAllocateCommand_JSONSummaryAndOutFile(t *testing.T) {
	path := writeFile(t, "roster.csv", rosterCSV)
	out := filepath.Join(t.TempDir(), "result.csv")

	stdout, stderr, err := run(t, "allocate", path, "--cutoff", "2023-12-31", "-n", "3", "-o", out, "--json")
	require.NoError(t, err)
	require.Empty(t, stdout)

	var summary []models.TeamSummary
	require.NoError(t, json.Unmarshal([]byte(stderr), &summary))
	require.Len(t, summary, 3)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(data), "Team 3")
}

func TestAllocateCommand_InvalidTeams(t *testing.T) {
	path := writeFile(t, "roster.csv", rosterCSV)

	_, _, err := run(t, "allocate", path, "--teams", "0")
	require.ErrorIs(t, err, allocator.ErrInvalidTeamCount)
}

func TestAllocateCommand_ColumnMapping(t *testing.T) {
	path := writeFile(t, "roster.csv", "이름,가입일,현재조\n홍길동,2020-01-01,1조\n김영희,2024-01-01,\n")
	cfg := writeFile(t, "teamctl.yaml", `columns:
  join_date: 가입일
  prior_team: 현재조
  team: 새로운 조
  name: 이름
team_prefix: 새로운 조
`)

	stdout, _, err := run(t, "allocate", path, "--config", cfg, "--cutoff", "2023-12-31", "--teams", "2")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stdout, "\ufeff이름,현재조,새로운 조,가입일\n"), stdout)
	require.Contains(t, stdout, "새로운 조 1")
	require.Contains(t, stdout, "새로운 조 2")
}

func TestAllocateCommand_OutFileErrors(t *testing.T) {
	path := writeFile(t, "roster.csv", rosterCSV)

	_, _, err := run(t, "allocate", path, "--teams", "2", "-o", filepath.Join(t.TempDir(), "missing", "out.csv"))
	require.Error(t, err)

	if _, statErr := os.Stat("/dev/full"); statErr != nil {
		t.Skip("/dev/full not available")
	}
	_, _, err = run(t, "allocate", path, "--teams", "2", "-o", "/dev/full")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to write /dev/full")
}

func TestAllocateCommand_MissingConfigFile(t *testing.T) {
	path := writeFile(t, "roster.csv", rosterCSV)

	_, _, err := run(t, "allocate", path, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestInspectCommand(t *testing.T) {
	path := writeFile(t, "roster.csv", rosterCSV+"Jung,someday,,,\n")

	stdout, _, err := run(t, "inspect", path, "--cutoff", "2023-12-31")
	require.NoError(t, err)
	require.Contains(t, stdout, "Members: 6")
	require.Contains(t, stdout, "Existing: 4")
	require.Contains(t, stdout, "New: 2")
	require.Contains(t, stdout, "Suggested teams: 2")
	require.Contains(t, stdout, "Unusable join dates: 1")
}

func TestInspectCommand_MissingColumn(t *testing.T) {
	path := writeFile(t, "roster.csv", "name\nKim\n")

	_, _, err := run(t, "inspect", path)
	require.ErrorIs(t, err, allocator.ErrMissingJoinDateField)
}
