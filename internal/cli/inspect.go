package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/arnavshah/team-allocator-go/pkg/allocator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newInspectCommand(v *viper.Viper) *cobra.Command {
	var cutoff, charset string

	cmd := &cobra.Command{
		Use:   "inspect <roster.csv>",
		Short: "Show how a roster would be split without allocating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols := loadColumns(v)

			ros, err := readRoster(args[0], charset)
			if err != nil {
				return err
			}
			if !ros.HasColumn(cols.JoinDate) {
				return fmt.Errorf("%w: %q", allocator.ErrMissingJoinDateField, cols.JoinDate)
			}

			at, err := resolveCutoff(cutoff, ros, cols.JoinDate)
			if err != nil {
				return err
			}

			a := allocator.NewAllocator(allocator.WithJoinDateColumn(cols.JoinDate))
			existing, newcomers, warnings := a.Classify(ros, at)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Columns: %v\n", ros.Columns)
			fmt.Fprintf(out, "Members: %d\n", ros.Len())
			fmt.Fprintf(out, "Cutoff: %s\n", at.Format("2006-01-02"))
			fmt.Fprintf(out, "Existing: %d\n", len(existing))
			fmt.Fprintf(out, "New: %d\n", len(newcomers))
			fmt.Fprintf(out, "Suggested teams: %d\n", allocator.DefaultTeamCount(ros, cols.PriorTeam))
			fmt.Fprintf(out, "Suggested cutoff: %s\n", allocator.DefaultCutoff(ros, cols.JoinDate, time.Now()).Format("2006-01-02"))
			if len(warnings) > 0 {
				fmt.Fprintf(out, "Unusable join dates: %d (counted as existing)\n", len(warnings))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cutoff, "cutoff", "", "members joining after this date are new (YYYY-MM-DD)")
	cmd.Flags().StringVar(&charset, "charset", "utf-8", "input charset: utf-8 or euc-kr")
	return cmd
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
