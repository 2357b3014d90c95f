package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/adaptive-coach/internal/state"
)

// #region export

func newExportCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write {valueTable, config} as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, q, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			data, err := json.MarshalIndent(q.Export(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal bundle: %w", err)
			}
			data = append(data, '\n')
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(outPath, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")
	return cmd
}

// #endregion export

// #region import

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <bundle.json>",
		Short: "Replace the persisted table and config with an exported bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read bundle: %w", err)
			}
			var b state.Bundle
			if err := json.Unmarshal(data, &b); err != nil {
				return fmt.Errorf("parse bundle %s: %w", args[0], err)
			}

			store, q, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := q.Restore(b); err != nil {
				return err
			}
			if err := q.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries into %s\n", q.Table().Entries(), q.Key())
			return nil
		},
	}
}

// #endregion import

// #region reset

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the persisted value table (hyperparameters are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset discards every learned value; pass --yes to confirm")
			}
			store, q, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			n := q.Table().Entries()
			q.Reset()
			if err := q.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d entries from %s\n", n, q.Key())
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

// #endregion reset
