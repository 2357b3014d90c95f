// Command coachctl is the developer tool for the coaching engine: inspect,
// export, import and reset the persisted value table, replay fixtures, and run
// the engine on a schedule against a snapshot file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-coach/internal/config"
	"github.com/danielpatrickdp/adaptive-coach/internal/logging"
	"github.com/danielpatrickdp/adaptive-coach/internal/state"
)

// #region main

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region root

// app carries what PersistentPreRunE resolves for every subcommand.
type app struct {
	configPath string
	dbPath     string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "coachctl",
		Short:         "Inspect and drive the adaptive coaching engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.dbPath != "" {
				cfg.DBPath = a.dbPath
			}
			logger, err := logging.NewLogger(cfg.LogLevel, cfg.Production)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to coach.yaml")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides config)")

	root.AddCommand(
		newInspectCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newResetCmd(a),
		newSimulateCmd(a),
		newRunCmd(a),
	)
	return root
}

// openStore opens the configured database and loads the value store from it.
func (a *app) openStore() (*state.Store, *state.QStore, error) {
	store, err := state.NewStore(a.cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	q := state.Open(store, a.cfg.RecordKey, a.cfg.Hyperparameters, a.logger)
	return store, q, nil
}

// #endregion root
