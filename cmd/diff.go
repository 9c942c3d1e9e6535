package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/simonyos/agentcore/internal/diff"
)

var (
	diffFormatFlag  string
	diffContextFlag int
	diffWidthFlag   int
)

var diffCmd = &cobra.Command{
	Use:   "diff <original> <modified>",
	Short: "Compare two files",
	Long: `Compare two files with the same engine the diff tools use.

Formats: unified, side_by_side, stats, inline.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(diff.Formats, diffFormatFlag) {
			return fmt.Errorf("unknown format %q (want one of %v)", diffFormatFlag, diff.Formats)
		}
		original, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		modified, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		out, err := diff.Render(string(original), string(modified), diff.Format(diffFormatFlag), diff.Options{
			Context: diffContextFlag,
			Width:   diffWidthFlag,
			OldName: args[0],
			NewName: args[1],
		})
		if err != nil {
			return err
		}
		if diff.Format(diffFormatFlag) == diff.FormatUnified && !color.NoColor {
			out = diff.Colorize(out)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	f := diffCmd.Flags()
	f.StringVarP(&diffFormatFlag, "format", "f", string(diff.FormatUnified), "output format")
	f.IntVarP(&diffContextFlag, "context", "C", 3, "context lines around each change")
	f.IntVarP(&diffWidthFlag, "width", "w", diff.DefaultWidth, "column width for side_by_side")
	f.BoolVar(&color.NoColor, "no-color", color.NoColor, "disable colored output")
	rootCmd.AddCommand(diffCmd)
}
