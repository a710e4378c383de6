package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/walkeeper/pkg/cli"
	"mercator-hq/walkeeper/pkg/retention/strategy"
	"mercator-hq/walkeeper/pkg/wal"
)

var describeFlags struct {
	policy string
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Describe the active retention policy",
	Long: `Print the canonical description of the retention policy and what it
would delete right now.

Examples:
  walkeeper describe
  walkeeper describe --policy "7 days + 10 files" -o json`,
	RunE: runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)

	describeCmd.Flags().StringVar(&describeFlags.policy, "policy", "", "describe this policy instead of the configured one")
}

// describeView is the output of describe.
type describeView struct {
	Policy         string        `json:"policy" yaml:"policy"`
	Rules          []string      `json:"rules" yaml:"rules"`
	LowestVersion  wal.Version   `json:"lowest_version" yaml:"lowest_version"`
	HighestVersion wal.Version   `json:"highest_version" yaml:"highest_version"`
	Floor          *wal.Version  `json:"floor,omitempty" yaml:"floor,omitempty"`
	FloorError     string        `json:"floor_error,omitempty" yaml:"floor_error,omitempty"`
	Prunable       []wal.Version `json:"prunable" yaml:"prunable"`
}

func (v describeView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "policy:   %s\n", v.Policy)
	fmt.Fprintf(&sb, "rules:    %s\n", strings.Join(v.Rules, ", "))
	if v.HighestVersion == wal.NoVersion {
		sb.WriteString("segments: none")
		return sb.String()
	}
	fmt.Fprintf(&sb, "segments: %d-%d\n", v.LowestVersion, v.HighestVersion)
	if v.Floor != nil {
		fmt.Fprintf(&sb, "floor:    %d\n", *v.Floor)
	} else {
		fmt.Fprintf(&sb, "floor:    unavailable (%s)\n", v.FloorError)
	}
	fmt.Fprintf(&sb, "prunable: %s", versionList(v.Prunable))
	return sb.String()
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, describeFlags.policy)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.engine.Snapshot()
	view := describeView{Policy: snap.Description, Rules: strategyRules(snap.Strategy)}
	if view.LowestVersion, err = a.catalog.LowestVersion(); err != nil {
		return cli.NewCommandError("describe", err)
	}
	if view.HighestVersion, err = a.catalog.HighestVersion(); err != nil {
		return cli.NewCommandError("describe", err)
	}

	if view.HighestVersion != wal.NoVersion {
		plan, err := a.engine.Plan(view.HighestVersion)
		if err != nil {
			view.FloorError = err.Error()
		} else {
			view.Floor = &plan.Floor
			view.Prunable = plan.Selected
		}
	}

	return printResult(cmd, view)
}

// strategyRules lists the rules a strategy applies, one per combined clause,
// in their normalized form (sizes in bytes, ages as 1d2h).
func strategyRules(s strategy.Strategy) []string {
	c, ok := s.(*strategy.Composite)
	if !ok {
		return []string{s.String()}
	}
	children := c.Children()
	rules := make([]string, len(children))
	for i, child := range children {
		rules[i] = child.String()
	}
	return rules
}
