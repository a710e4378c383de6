/*
Package cli provides command-line helpers for walkeeper.

Output Formatting:

Commands print results as text, JSON, YAML or CSV:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Values implementing Table (segment listings, pass results) render as
aligned columns in text mode and as rows in CSV mode.

Exit Codes:

ExitCode maps an error to the process exit status: 2 for configuration and
policy errors, 3 for a failed prune pass, 1 otherwise.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	for range cli.NotifyReload() {
		// SIGHUP: reload configuration
	}
*/
package cli
