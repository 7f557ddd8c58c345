package commands

import (
	"github.com/spf13/cobra"

	"github.com/crk-toppings/optimizer/internal/config"
	"github.com/crk-toppings/optimizer/internal/obslog"
)

var (
	cfgFile       string
	logLevelFlag  string
	logFormatFlag string
	cfg           *config.Config
	logger        *obslog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "toppingopt",
	Short: "Branch-and-bound topping loadout optimizer for Cookie Run: Kingdom",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Logging.Level = logLevelFlag
		}
		if cmd.Flags().Changed("log-format") {
			loaded.Logging.Format = logFormatFlag
		}
		cfg = loaded
		logger = obslog.New(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "log format override (console, json)")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(validateCmd)
}
