package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jimimvp/CausalProb/paramstore"
)

// NewSnapshotsCmd creates the "snapshots" subcommand and its children.
func NewSnapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List stored parameter snapshots",
		Args:  cobra.NoArgs,
		RunE:  runSnapshotsList,
	}
	cmd.Flags().String("format", "text", "Output format: text | json")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshotsRemove,
	}
	cmd.AddCommand(rm)

	return cmd
}

func runSnapshotsList(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		if list == nil {
			list = []paramstore.Summary{}
		}
		return writeJSON(out, list)
	case "text":
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tLABEL\tSEED\tGROUPS\tCREATED")
		for _, s := range list {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.ID, s.Label, s.Seed, s.Groups, s.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	default:
		return exitError(exitInvalidInput, "unknown --format %q", format)
	}
}

func runSnapshotsRemove(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, paramstore.ErrNotFound) {
			return exitError(exitNotFound, "%v", err)
		}
		return err
	}
	newLogger(cmd).Info("snapshot deleted", "id", args[0])

	return nil
}
