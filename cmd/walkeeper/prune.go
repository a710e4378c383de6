package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/walkeeper/pkg/cli"
	"mercator-hq/walkeeper/pkg/retention"
	"mercator-hq/walkeeper/pkg/wal"
)

var pruneFlags struct {
	boundary int64
	policy   string
	dryRun   bool
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Run one prune pass",
	Long: `Run one prune pass and exit.

The boundary is exclusive; it defaults to the highest registered version, so
the segment currently being written is never deleted. Segments at or above
the recovery floor recorded in the checkpoint marker are always kept.

Examples:
  # Prune with the configured policy
  walkeeper prune

  # Preview what would be deleted
  walkeeper prune --dry-run

  # Prune with a one-off policy below version 120
  walkeeper prune --policy "2 days" --boundary 120`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().Int64Var(&pruneFlags.boundary, "boundary", -1, "exclusive upper version bound (default: highest version)")
	pruneCmd.Flags().StringVar(&pruneFlags.policy, "policy", "", "override the configured policy for this pass")
	pruneCmd.Flags().BoolVar(&pruneFlags.dryRun, "dry-run", false, "show what would be deleted without deleting")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, pruneFlags.policy)
	if err != nil {
		return err
	}
	defer a.Close()

	boundary := wal.Version(pruneFlags.boundary)
	if boundary < 0 {
		boundary, err = a.catalog.HighestVersion()
		if err != nil {
			return cli.NewCommandError("prune", err)
		}
		if boundary == wal.NoVersion {
			fmt.Fprintln(cmd.OutOrStdout(), "no segments registered")
			return nil
		}
	}

	if pruneFlags.dryRun {
		plan, err := a.engine.Plan(boundary)
		if err != nil {
			return cli.NewCommandError("prune", err)
		}
		return printResult(cmd, planView{plan})
	}

	result, err := a.engine.PruneLogs(context.Background(), boundary)
	if result != nil {
		if perr := printResult(cmd, resultView{result}); perr != nil && err == nil {
			err = perr
		}
	}
	if err != nil {
		return cli.NewCommandError("prune", err)
	}
	return nil
}

// resultView renders a pass result. It marshals as the result itself.
type resultView struct {
	*retention.Result `yaml:",inline"`
}

func (v resultView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "pass %s\n", v.PassID)
	fmt.Fprintf(&sb, "policy:    %s\n", v.Strategy)
	fmt.Fprintf(&sb, "boundary:  %d (effective %d, floor %d)\n", v.Boundary, v.EffectiveBoundary, v.Floor)
	fmt.Fprintf(&sb, "deleted:   %s\n", versionList(v.Deleted))
	if len(v.Clamped) > 0 {
		fmt.Fprintf(&sb, "kept for recovery: %s\n", versionList(v.Clamped))
	}
	fmt.Fprintf(&sb, "duration:  %s", v.Duration)
	return sb.String()
}

func (v resultView) Header() []string { return []string{"VERSION", "ACTION"} }

func (v resultView) Rows() [][]string {
	return actionRows(v.Deleted, "deleted", v.Clamped)
}

// planView renders a dry-run plan.
type planView struct {
	*retention.Plan `yaml:",inline"`
}

func (v planView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "policy:    %s\n", v.Strategy)
	fmt.Fprintf(&sb, "boundary:  %d (effective %d, floor %d)\n", v.Boundary, v.EffectiveBoundary, v.Floor)
	fmt.Fprintf(&sb, "would delete: %s\n", versionList(v.Selected))
	if len(v.Clamped) > 0 {
		fmt.Fprintf(&sb, "kept for recovery: %s", versionList(v.Clamped))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (v planView) Header() []string { return []string{"VERSION", "ACTION"} }

func (v planView) Rows() [][]string {
	return actionRows(v.Selected, "delete", v.Clamped)
}

func actionRows(deleted []wal.Version, action string, clamped []wal.Version) [][]string {
	rows := make([][]string, 0, len(deleted)+len(clamped))
	for _, v := range deleted {
		rows = append(rows, []string{v.String(), action})
	}
	for _, v := range clamped {
		rows = append(rows, []string{v.String(), "keep (recovery)"})
	}
	return rows
}

// versionList compresses ascending versions into ranges: "0-4, 7".
func versionList(vs []wal.Version) string {
	if len(vs) == 0 {
		return "none"
	}
	var parts []string
	start, prev := vs[0], vs[0]
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.FormatInt(int64(start), 10))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, v := range vs[1:] {
		if v == prev+1 {
			prev = v
			continue
		}
		flush()
		start, prev = v, v
	}
	flush()
	return strings.Join(parts, ", ")
}
