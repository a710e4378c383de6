package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/walkeeper/pkg/retention/strategy"
	"mercator-hq/walkeeper/pkg/wal"
)

var validateFlags struct {
	policy string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration or a policy",
	Long: `Validate the configuration file, or only a retention policy.

Policy errors name the offending clause and its byte offset, and suggest the
closest unit when the unit is unknown.

Examples:
  # Validate the configuration file
  walkeeper validate --config walkeeper.yaml

  # Validate a policy
  walkeeper validate --policy "2 days + 500M size"`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.policy, "policy", "", "validate this policy text only")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("policy") {
		desc, err := describePolicy(validateFlags.policy)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "policy valid: %s\n", desc)
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	desc, err := describePolicy(cfg.Retention.Policy)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "configuration valid")
	fmt.Fprintf(out, "  policy:   %s\n", desc)
	if cfg.Retention.Schedule != "" {
		fmt.Fprintf(out, "  schedule: %s\n", cfg.Retention.Schedule)
	} else {
		fmt.Fprintln(out, "  schedule: none (on demand only)")
	}
	fmt.Fprintf(out, "  catalog:  %s (%s)\n", cfg.Segments.Catalog.Path, cfg.Segments.Catalog.Driver)
	if cfg.Retention.Archive.Enabled {
		fmt.Fprintf(out, "  archive:  %s (%s)\n", cfg.Retention.Archive.Path, cfg.Retention.Archive.Codec)
	}
	return nil
}

// describePolicy compiles text against an empty directory and returns its
// canonical description.
func describePolicy(text string) (string, error) {
	factory := strategy.NewFactory(wal.NewMemoryDirectory(), wal.NewSystemClock())
	_, desc, err := factory.Compile(text)
	return desc, err
}
