package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mercator-hq/walkeeper/pkg/cli"
	"mercator-hq/walkeeper/pkg/wal"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Manage the segment catalog",
	Long: `Inspect and maintain the SQLite catalog of log segments.

The catalog is the segment directory the retention engine prunes from.
Segments are registered as the database seals them, or in bulk with scan.`,
}

var segmentsRegisterFlags struct {
	version int64
	path    string
	size    int64
	txs     int64
	newest  string
}

var segmentsScanFlags struct {
	dir    string
	prefix string
}

var segmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered segments",
	Args:  cobra.NoArgs,
	RunE:  runSegmentsList,
}

var segmentsRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register or update one segment",
	Long: `Register a segment in the catalog. The version must directly follow the
highest registered version; registering a known version updates it.

Example:
  walkeeper segments register --version 42 \
    --path data/wal/neostore.transaction.db.42 --size 262144000 --txs 18000`,
	Args: cobra.NoArgs,
	RunE: runSegmentsRegister,
}

var segmentsScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Register segment files found on disk",
	Args:  cobra.NoArgs,
	RunE:  runSegmentsScan,
}

var segmentsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show segment count and total size",
	Args:  cobra.NoArgs,
	RunE:  runSegmentsStats,
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
	segmentsCmd.AddCommand(segmentsListCmd, segmentsRegisterCmd, segmentsScanCmd, segmentsStatsCmd)

	f := segmentsRegisterCmd.Flags()
	f.Int64Var(&segmentsRegisterFlags.version, "version", -1, "segment version (required)")
	f.StringVar(&segmentsRegisterFlags.path, "path", "", "segment file path (required)")
	f.Int64Var(&segmentsRegisterFlags.size, "size", -1, "size in bytes (default: file size)")
	f.Int64Var(&segmentsRegisterFlags.txs, "txs", 0, "number of transactions in the segment")
	f.StringVar(&segmentsRegisterFlags.newest, "newest", "", "RFC 3339 commit time of the newest transaction (default: file modification time)")
	_ = segmentsRegisterCmd.MarkFlagRequired("version")
	_ = segmentsRegisterCmd.MarkFlagRequired("path")

	segmentsScanCmd.Flags().StringVar(&segmentsScanFlags.dir, "dir", "", "directory to scan (default: segments.directory)")
	segmentsScanCmd.Flags().StringVar(&segmentsScanFlags.prefix, "prefix", "", "segment file prefix (default: segments.file_prefix)")
}

// segmentTable renders catalog rows.
type segmentTable []wal.SegmentInfo

func (segmentTable) Header() []string {
	return []string{"VERSION", "SIZE", "TXS", "NEWEST_TX", "PATH"}
}

func (t segmentTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, s := range t {
		newest := "-"
		if !s.NewestTxTime.IsZero() {
			newest = s.NewestTxTime.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			s.Version.String(),
			strconv.FormatInt(s.SizeBytes, 10),
			strconv.FormatInt(s.TxCount, 10),
			newest,
			s.Path,
		})
	}
	return rows
}

func runSegmentsList(cmd *cobra.Command, args []string) error {
	_, c, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	segments, err := c.List(context.Background())
	if err != nil {
		return cli.NewCommandError("segments list", err)
	}
	return printResult(cmd, segmentTable(segments))
}

func runSegmentsRegister(cmd *cobra.Command, args []string) error {
	_, c, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	info := wal.SegmentInfo{
		Version:   wal.Version(segmentsRegisterFlags.version),
		Path:      segmentsRegisterFlags.path,
		SizeBytes: segmentsRegisterFlags.size,
		TxCount:   segmentsRegisterFlags.txs,
	}

	if fi, statErr := os.Stat(info.Path); statErr == nil {
		if info.SizeBytes < 0 {
			info.SizeBytes = fi.Size()
		}
		info.NewestTxTime = fi.ModTime()
	}
	if info.SizeBytes < 0 {
		info.SizeBytes = 0
	}
	if segmentsRegisterFlags.newest != "" {
		t, err := time.Parse(time.RFC3339, segmentsRegisterFlags.newest)
		if err != nil {
			return cli.NewConfigError("--newest", err.Error())
		}
		info.NewestTxTime = t
	}

	if err := c.Register(context.Background(), info); err != nil {
		return cli.NewCommandError("segments register", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "registered segment %d\n", info.Version)
	return nil
}

func runSegmentsScan(cmd *cobra.Command, args []string) error {
	cfg, c, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	dir := segmentsScanFlags.dir
	if dir == "" {
		dir = cfg.Segments.Directory
	}
	prefix := segmentsScanFlags.prefix
	if prefix == "" {
		prefix = cfg.Segments.FilePrefix
	}

	n, err := c.Scan(context.Background(), dir, prefix)
	if err != nil {
		return cli.NewCommandError("segments scan", fmt.Errorf("registered %d segments before failing: %w", n, err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "registered %d segments from %s\n", n, dir)
	return nil
}

type statsView struct {
	Segments  int64  `json:"segments" yaml:"segments"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
	Range     string `json:"range" yaml:"range"`
}

func (v statsView) String() string {
	return fmt.Sprintf("%d segments, %s, versions %s", v.Segments, humanize.IBytes(uint64(v.SizeBytes)), v.Range)
}

func runSegmentsStats(cmd *cobra.Command, args []string) error {
	_, c, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	count, size, err := c.Stats(context.Background())
	if err != nil {
		return cli.NewCommandError("segments stats", err)
	}
	lo, _ := c.LowestVersion()
	hi, _ := c.HighestVersion()

	view := statsView{Segments: count, SizeBytes: size, Range: "none"}
	if hi != wal.NoVersion {
		view.Range = fmt.Sprintf("%d-%d", lo, hi)
	}
	return printResult(cmd, view)
}
