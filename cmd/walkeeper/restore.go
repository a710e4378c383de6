package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/walkeeper/pkg/cli"
	"mercator-hq/walkeeper/pkg/retention"
)

var restoreFlags struct {
	to string
}

var restoreCmd = &cobra.Command{
	Use:   "restore <archive>...",
	Short: "Decompress archived segments",
	Long: `Decompress segments archived before deletion. The codec is taken from the
file extension (.gz, .zst, .sz, .lz4). Existing files are never overwritten.

Example:
  walkeeper restore data/archive/neostore.transaction.db.4*.zst --to /tmp/wal`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVar(&restoreFlags.to, "to", ".", "directory to restore into")
}

func runRestore(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(restoreFlags.to, 0o750); err != nil {
		return cli.NewCommandError("restore", err)
	}

	progress := cli.NewProgressReporter(cmd.ErrOrStderr(), "restore")
	progress.Start(len(args))

	for _, src := range args {
		ext, _ := retention.Extension(retention.CodecFor(src))
		dst := filepath.Join(restoreFlags.to, strings.TrimSuffix(filepath.Base(src), ext))
		if err := retention.Restore(src, dst); err != nil {
			progress.Error(err)
			return cli.NewCommandError("restore", fmt.Errorf("%s: %w", src, err))
		}
		var size int64
		if fi, err := os.Stat(dst); err == nil {
			size = fi.Size()
		}
		progress.Advance(filepath.Base(dst), size)
	}
	progress.Finish()

	fmt.Fprintf(cmd.OutOrStdout(), "restored %d segments into %s\n", len(args), restoreFlags.to)
	return nil
}
