package cli

import (
	"github.com/spf13/cobra"

	"github.com/jimimvp/CausalProb/inference"
)

// NewAbductCmd creates the "abduct" subcommand.
func NewAbductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abduct",
		Short: "Recover exogenous noise and log-likelihood of observed values",
		Args:  cobra.NoArgs,
		RunE:  runAbduct,
	}

	cmd.Flags().String("snapshot", "", "Snapshot id (required)")
	cmd.Flags().String("values", "-", "JSON file of observed values (node → rows), - for stdin")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

type abductOutput struct {
	U             rowsJSON  `json:"u"`
	LogLikelihood []float64 `json:"log_likelihood"`
}

func runAbduct(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetString("snapshot")
	path, _ := cmd.Flags().GetString("values")
	logger := newLogger(cmd)

	reg, theta, err := loadSnapshot(cmd.Context(), cmd, logger, id)
	if err != nil {
		return err
	}
	values, err := readValues(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	us, err := inference.Abduct(reg, theta, values)
	if err != nil {
		return exitError(exitInvalidInput, "%v", err)
	}
	ll, err := inference.LogLikelihood(reg, theta, values)
	if err != nil {
		return exitError(exitInvalidInput, "%v", err)
	}

	return writeJSON(cmd.OutOrStdout(), abductOutput{U: toRows(us), LogLikelihood: ll})
}

// NewCounterfactualCmd creates the "counterfactual" subcommand.
func NewCounterfactualCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counterfactual",
		Short: "Answer a counterfactual query: abduct, intervene, predict",
		Args:  cobra.NoArgs,
		RunE:  runCounterfactual,
	}

	cmd.Flags().String("snapshot", "", "Snapshot id (required)")
	cmd.Flags().String("values", "-", "JSON file of factual values (node → rows), - for stdin")
	cmd.Flags().String("do", "", "JSON file of intervened values (required)")
	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("do")

	return cmd
}

func runCounterfactual(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetString("snapshot")
	path, _ := cmd.Flags().GetString("values")
	doPath, _ := cmd.Flags().GetString("do")
	logger := newLogger(cmd)

	reg, theta, err := loadSnapshot(cmd.Context(), cmd, logger, id)
	if err != nil {
		return err
	}
	factual, err := readValues(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	do, err := readValues(doPath, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cf, err := inference.Counterfactual(reg, theta, factual, do)
	if err != nil {
		return exitError(exitInvalidInput, "%v", err)
	}

	return writeJSON(cmd.OutOrStdout(), toRows(cf))
}
