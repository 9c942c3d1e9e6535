package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	scanSeverityFlag string
	scanPatternsFlag string
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Run the security, secret and performance scans",
	Long: `Run security_scan, scan_secrets and analyze_performance over a directory
of the project and print the three reports.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}

		a, err := newApp(cmd.Context(), confirmFunc(), false)
		if err != nil {
			return err
		}
		defer a.close()

		scans := []struct {
			tool string
			args map[string]any
		}{
			{"security_scan", map[string]any{"path": path, "min_severity": scanSeverityFlag}},
			{"scan_secrets", map[string]any{"path": path, "custom_patterns": scanPatternsFlag}},
			{"analyze_performance", map[string]any{"path": path}},
		}

		title := color.New(color.Bold, color.FgCyan)
		out := cmd.OutOrStdout()
		failed := false
		for _, s := range scans {
			title.Fprintf(out, "== %s ==\n", s.tool)
			res := a.executor.ExecuteArgs(cmd.Context(), a.project, s.tool, s.args)
			if !res.Success {
				failed = true
				color.New(color.FgRed).Fprintf(out, "%s: %s\n\n", res.Kind, res.Error)
				continue
			}
			fmt.Fprintf(out, "%s\n\n", res.Output)
		}
		if failed {
			return errToolFailed
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanSeverityFlag, "min-severity", "low", "lowest severity to report (low, medium, high, critical)")
	scanCmd.Flags().StringVar(&scanPatternsFlag, "patterns", "", "extra secret patterns, comma separated")
	rootCmd.AddCommand(scanCmd)
}
