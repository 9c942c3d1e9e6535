package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonyos/agentcore/internal/tools"
)

var (
	toolsBasicFlag bool
	toolsJSONFlag  bool
	execJSONFlag   bool
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool catalog",
	Long: `List every tool the agent can call. Tools marked with * are read-only and
stay available with --read-only.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry := tools.DefaultRegistry()
		if toolsBasicFlag {
			registry = registry.Basic()
		}
		out := cmd.OutOrStdout()
		if toolsJSONFlag {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(registry.OpenAITools())
		}
		fmt.Fprint(out, registry.Describe())
		return nil
	},
}

var execCmd = &cobra.Command{
	Use:   "exec <tool> [arguments-json | -]",
	Short: "Run a single tool call against the project",
	Long: `Run one tool exactly as the agent would, with the same validation and
sandboxing. Arguments are a JSON object; "-" reads them from stdin.

Examples:
  agentcore exec list_files '{"path": "."}'
  agentcore exec read_file '{"path": "main.go"}'
  echo '{"query": "TODO"}' | agentcore exec search_files -`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		argsJSON := "{}"
		if len(args) == 2 {
			argsJSON = args[1]
		}
		if argsJSON == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			argsJSON = string(data)
		}

		a, err := newApp(cmd.Context(), confirmFunc(), false)
		if err != nil {
			return err
		}
		defer a.close()

		name := args[0]
		if readOnlyFlag {
			if _, ok := a.executor.Registry().Basic().ByName(name); !ok {
				return fmt.Errorf("tool %s is not available in read-only mode", name)
			}
		}
		res := a.executor.Execute(cmd.Context(), a.project, name, argsJSON)
		return printResult(cmd, res)
	},
}

// errToolFailed signals a failed tool call whose message is already printed.
var errToolFailed = errors.New("tool call failed")

func printResult(cmd *cobra.Command, res tools.ToolResult) error {
	out := cmd.OutOrStdout()
	if execJSONFlag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
		if !res.Success {
			return errToolFailed
		}
		return nil
	}
	// a failed command still carries its stdout and stderr
	if res.Output != "" {
		fmt.Fprintln(out, strings.TrimRight(res.Output, "\n"))
	}
	if res.Success {
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", res.Kind, res.Error)
	return errToolFailed
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsBasicFlag, "basic", false, "list only the read-only tools")
	toolsCmd.Flags().BoolVar(&toolsJSONFlag, "json", false, "print OpenAI-compatible tool definitions")
	execCmd.Flags().BoolVar(&execJSONFlag, "json", false, "print the tool result as JSON")
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(execCmd)
}
