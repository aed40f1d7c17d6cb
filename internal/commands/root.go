package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"school-finance-backend/internal/config"
	"school-finance-backend/internal/logger"
)

// app carries what every subcommand needs once the root command has loaded configuration.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "school-finance",
		Short: "Multi-tenant school fee invoicing and bank statement reconciliation",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Env, cfg.LogLevel)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	rootCmd.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
		newImportCommand(a),
		newMatchCommand(a),
		newSchoolCommand(a),
		newTokenCommand(a),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}
