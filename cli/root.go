// Package cli implements the causalprob command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/jimimvp/CausalProb/config"
	"github.com/jimimvp/CausalProb/params"
	"github.com/jimimvp/CausalProb/paramstore"
	"github.com/jimimvp/CausalProb/scm"
)

const defaultDB = "causalprob.db"

// NewRootCmd builds the causalprob command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "causalprob",
		Short: "Flow-parameterized structural causal models",
		Long: "causalprob builds a structural causal model whose equations are invertible\n" +
			"flows, stores parameter snapshots and runs sampling, abduction and checks.",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "Model configuration YAML (default: built-in reference model)")
	root.PersistentFlags().String("db", defaultDB, "SQLite database for parameter snapshots")
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	root.PersistentFlags().Bool("no-color", false, "Disable colored log output")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("causalprob version %s\n", version))

	root.AddCommand(NewInitCmd())
	root.AddCommand(NewSampleCmd())
	root.AddCommand(NewAbductCmd())
	root.AddCommand(NewCounterfactualCmd())
	root.AddCommand(NewCheckCmd())
	root.AddCommand(NewSnapshotsCmd())

	return root
}

// newLogger returns a tint logger on the command's stderr.
func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
	}))
}

func loadModel(cmd *cobra.Command) (config.Model, error) {
	path, _ := cmd.Flags().GetString("config")
	m, err := config.Load(path)
	if err != nil {
		return config.Model{}, exitError(exitInvalidInput, "%v", err)
	}

	return m, nil
}

func openStore(cmd *cobra.Command) (*paramstore.SQLiteStore, error) {
	dsn, _ := cmd.Flags().GetString("db")
	store, err := paramstore.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dsn, err)
	}

	return store, nil
}

// loadSnapshot rebuilds the registry a snapshot was created with and
// returns it together with the stored θ.
func loadSnapshot(ctx context.Context, cmd *cobra.Command, logger *slog.Logger, id string) (*scm.Registry, params.Set, error) {
	store, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	snap, err := store.Load(ctx, id)
	switch {
	case errors.Is(err, paramstore.ErrNotFound), errors.Is(err, paramstore.ErrInvalidID):
		return nil, nil, exitError(exitNotFound, "%v", err)
	case err != nil:
		return nil, nil, err
	}
	m, err := config.Parse(snap.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	reg, err := m.Build(logger)
	if err != nil {
		return nil, nil, err
	}
	if err := reg.Validate(snap.Theta); err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	logger.Debug("snapshot loaded", "id", id, "seed", snap.Seed, "groups", len(snap.Theta))

	return reg, snap.Theta, nil
}
