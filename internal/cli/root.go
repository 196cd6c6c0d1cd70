package cli

import (
	"strings"

	"github.com/arnavshah/team-allocator-go/pkg/allocator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Column mapping keys in the config file
const (
	keyJoinDate    = "columns.join_date"
	keyPriorTeam   = "columns.prior_team"
	keyTeam        = "columns.team"
	keyName        = "columns.name"
	keyNumeric     = "columns.numeric"
	keyCategorical = "columns.categorical"
	keyTeamPrefix  = "team_prefix"
)

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the teamctl command tree with its own viper instance
func NewRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "teamctl",
		Short: "Assign roster members to balanced teams",
		Long: `teamctl reads a roster CSV, splits members into existing and new by join date,
and deals them into teams: existing members round-robin, new members to the
smallest team. The same input always produces the same teams.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cmd)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "column mapping file (default ./teamctl.yaml)")

	root.AddCommand(newAllocateCommand(v))
	root.AddCommand(newInspectCommand(v))
	return root
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyJoinDate, allocator.DefaultJoinDateColumn)
	v.SetDefault(keyPriorTeam, "current_team")
	v.SetDefault(keyTeam, allocator.DefaultTeamColumn)
	v.SetDefault(keyName, "name")
	v.SetDefault(keyNumeric, []string{"age", "participation"})
	v.SetDefault(keyCategorical, []string{"gender", "region"})
	v.SetDefault(keyTeamPrefix, allocator.DefaultTeamPrefix)
}

func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	setDefaults(v)

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("teamctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/teamctl")
	}

	v.SetEnvPrefix("TEAMCTL")
	// TEAMCTL_COLUMNS_JOIN_DATE for columns.join_date
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return err
		}
	}
	return nil
}

// columns is the resolved column mapping
type columns struct {
	JoinDate    string
	PriorTeam   string
	Team        string
	Name        string
	Numeric     []string
	Categorical []string
	TeamPrefix  string
}

func loadColumns(v *viper.Viper) columns {
	return columns{
		JoinDate:    v.GetString(keyJoinDate),
		PriorTeam:   v.GetString(keyPriorTeam),
		Team:        v.GetString(keyTeam),
		Name:        v.GetString(keyName),
		Numeric:     v.GetStringSlice(keyNumeric),
		Categorical: v.GetStringSlice(keyCategorical),
		TeamPrefix:  v.GetString(keyTeamPrefix),
	}
}
