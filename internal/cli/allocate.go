package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/arnavshah/team-allocator-go/pkg/allocator"
	"github.com/arnavshah/team-allocator-go/pkg/models"
	"github.com/arnavshah/team-allocator-go/pkg/roster"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type allocateOptions struct {
	cutoff  string
	teams   int
	out     string
	charset string
	json    bool
}

func newAllocateCommand(v *viper.Viper) *cobra.Command {
	opts := &allocateOptions{}

	cmd := &cobra.Command{
		Use:   "allocate <roster.csv>",
		Short: "Assign every member of a roster CSV to a team",
		Long: `Allocate reads a roster CSV and writes it back with a team column added.
Without --cutoff the 75th percentile of join dates is used; without --teams
the number of distinct prior teams (or 3) is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllocate(cmd, v, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.cutoff, "cutoff", "", "members joining after this date are new (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&opts.teams, "teams", "n", 0, "number of teams")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the result CSV here instead of stdout")
	cmd.Flags().StringVar(&opts.charset, "charset", "utf-8", "input charset: utf-8 or euc-kr")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the summary as JSON")
	return cmd
}

func readRoster(path, charset string) (*models.Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	ros, err := roster.ReadCSV(f, charset)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster %s: %w", path, err)
	}
	return ros, nil
}

func writeRosterFile(path string, ros *models.Roster, first ...string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := roster.WriteCSV(f, ros, first...); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func resolveCutoff(raw string, ros *models.Roster, col string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return allocator.DefaultCutoff(ros, col, time.Now()), nil
	}
	return allocator.ParseCutoff(raw)
}

func runAllocate(cmd *cobra.Command, v *viper.Viper, opts *allocateOptions, path string) error {
	cols := loadColumns(v)

	ros, err := readRoster(path, opts.charset)
	if err != nil {
		return err
	}

	cutoff, err := resolveCutoff(opts.cutoff, ros, cols.JoinDate)
	if err != nil {
		return err
	}

	teamCount := opts.teams
	if !cmd.Flags().Changed("teams") {
		teamCount = allocator.DefaultTeamCount(ros, cols.PriorTeam)
	}

	a := allocator.NewAllocator(
		allocator.WithJoinDateColumn(cols.JoinDate),
		allocator.WithTeamColumn(cols.Team),
		allocator.WithTeamPrefix(cols.TeamPrefix),
	)
	alloc, err := a.Allocate(ros, cutoff, teamCount)
	if err != nil {
		return err
	}

	first := []string{cols.Name, cols.PriorTeam, cols.Team, cols.JoinDate}
	if opts.out != "" {
		if err := writeRosterFile(opts.out, alloc.Roster, first...); err != nil {
			return err
		}
	} else if err := roster.WriteCSV(cmd.OutOrStdout(), alloc.Roster, first...); err != nil {
		return err
	}

	summary := allocator.Summarize(alloc, allocator.SummaryOptions{
		PriorTeamColumn:    cols.PriorTeam,
		NumericColumns:     cols.Numeric,
		CategoricalColumns: cols.Categorical,
	})
	report := cmd.ErrOrStderr()

	for _, w := range alloc.Warnings {
		fmt.Fprintf(report, "warning: row %d: %s %q, counted as existing\n", w.Row+1, w.Kind, w.Value)
	}

	if opts.json {
		enc := json.NewEncoder(report)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Fprintf(report, "Members: %d (existing %d, new %d), cutoff %s, teams %d\n",
		ros.Len(), len(alloc.Existing), len(alloc.New), cutoff.Format("2006-01-02"), teamCount)
	for _, s := range summary {
		printTeamSummary(report, s)
	}
	if moved := allocator.Moved(alloc, cols.PriorTeam); len(moved) > 0 {
		fmt.Fprintf(report, "%d members change team\n", len(moved))
	}
	return nil
}

func printTeamSummary(w io.Writer, s models.TeamSummary) {
	fmt.Fprintf(w, "\n%s (%d members: %d existing, %d new)\n", s.Team, s.MemberCount, s.ExistingCount, s.NewCount)
	if len(s.PriorTeams) > 0 {
		fmt.Fprintf(w, "  prior teams: %s\n", formatCounts(s.PriorTeams))
	}
	for _, col := range sortedKeys(s.Averages) {
		avg := "N/A"
		if p := s.Averages[col]; p != nil {
			avg = fmt.Sprintf("%.2f", *p)
		}
		fmt.Fprintf(w, "  average %s: %s\n", col, avg)
	}
	for _, col := range sortedKeys(s.Distributions) {
		dist := formatCounts(s.Distributions[col])
		if dist == "" {
			dist = "no data"
		}
		fmt.Fprintf(w, "  %s: %s\n", col, dist)
	}
}

func formatCounts(counts []models.ValueCount) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s(%d)", c.Value, c.Count)
	}
	return strings.Join(parts, ", ")
}
