package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jimimvp/CausalProb/paramstore"
)

// NewInitCmd creates the "init" subcommand.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialise every parameter group and store a snapshot",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}

	cmd.Flags().Int64("seed", 0, "Seed passed to every parameter initialiser")
	cmd.Flags().String("label", "", "Free-form snapshot label")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	seed, _ := cmd.Flags().GetInt64("seed")
	label, _ := cmd.Flags().GetString("label")
	logger := newLogger(cmd)
	ctx := cmd.Context()

	m, err := loadModel(cmd)
	if err != nil {
		return err
	}
	reg, err := m.Build(logger)
	if err != nil {
		return exitError(exitInvalidInput, "%v", err)
	}
	theta, err := reg.InitAll(seed)
	if err != nil {
		return err
	}
	cfg, err := m.Encode()
	if err != nil {
		return fmt.Errorf("encoding model config: %w", err)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Save(ctx, paramstore.Snapshot{Label: label, Seed: seed, Config: cfg, Theta: theta})
	if err != nil {
		return err
	}
	logger.Info("snapshot stored", "id", id, "groups", len(theta), "seed", seed)
	fmt.Fprintln(cmd.OutOrStdout(), id)

	return nil
}
