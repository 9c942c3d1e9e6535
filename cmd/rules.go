package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/simonyos/agentcore/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rules added to the system prompt",
	Long: `List the rule files added to the system prompt. Rules are markdown files
with YAML frontmatter, read from ~/.config/agentcore/rules and then from
` + rules.ProjectDir + ` in the project. A project rule replaces a global
rule with the same name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), confirmFunc(), false)
		if err != nil {
			return err
		}
		defer a.close()

		loaded, err := a.rules()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(loaded) == 0 {
			fmt.Fprintln(out, "No rules found.")
			return nil
		}
		name := color.New(color.Bold)
		muted := color.New(color.Faint)
		for _, r := range loaded {
			name.Fprint(out, r.Name)
			if r.Disabled {
				muted.Fprint(out, " (disabled)")
			}
			if r.Description != "" {
				fmt.Fprintf(out, " - %s", r.Description)
			}
			muted.Fprintf(out, "\n  %s\n", r.FilePath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
