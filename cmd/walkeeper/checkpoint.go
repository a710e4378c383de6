package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/walkeeper/pkg/checkpoint"
	"mercator-hq/walkeeper/pkg/cli"
	"mercator-hq/walkeeper/pkg/wal"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Show or record the checkpoint marker",
	Long: `The checkpoint marker records the log version crash recovery starts from.
No segment at or above it is ever deleted.`,
}

var checkpointSetFlags struct {
	txID int64
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the checkpoint marker",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointShow,
}

var checkpointSetCmd = &cobra.Command{
	Use:   "set <log-version>",
	Short: "Record a checkpoint at log-version",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointSet,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointShowCmd, checkpointSetCmd)

	checkpointSetCmd.Flags().Int64Var(&checkpointSetFlags.txID, "tx", 0, "last transaction covered by the checkpoint")
}

type markerView struct {
	*checkpoint.Marker `yaml:",inline"`
}

func (v markerView) String() string {
	return fmt.Sprintf("log version %d, transaction %d, written %s",
		v.LogVersion, v.TransactionID, v.WrittenAt.Format("2006-01-02T15:04:05Z07:00"))
}

func runCheckpointShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	m, err := checkpoint.Read(cfg.Checkpoint.Path)
	if err != nil {
		return cli.NewCommandError("checkpoint show", err)
	}
	return printResult(cmd, markerView{m})
}

func runCheckpointSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	v, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || v < 0 {
		return cli.NewConfigError("log-version", fmt.Sprintf("%q is not a valid version", args[0]))
	}

	m := checkpoint.Marker{LogVersion: wal.Version(v), TransactionID: checkpointSetFlags.txID}
	if err := checkpoint.Write(cfg.Checkpoint.Path, m); err != nil {
		return cli.NewCommandError("checkpoint set", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "checkpoint recorded at log version %d\n", v)
	return nil
}
