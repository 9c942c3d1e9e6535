package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonyos/agentcore/internal/tui"
)

// version is set at build time with -ldflags "-X github.com/simonyos/agentcore/cmd.version=...".
var version = "dev"

var (
	configFlag    string
	projectFlag   string
	modelFlag     string
	workspaceFlag string
	logLevelFlag  string
	logFileFlag   string
	readOnlyFlag  bool
	yesFlag       bool
)

var rootCmd = &cobra.Command{
	Use:   "agentcore",
	Short: "Tool-calling coding agent for local projects",
	Long: `agentcore drives an OpenAI-compatible model through a fixed catalog of
project tools: file editing, search, diffs and patches, allow-listed shell
commands, git, web fetches, scaffolding and static analysis.

Projects live under the workspace directory; "-p ." works on the current
directory. Every tool call is validated and sandboxed to the project root.

Running agentcore with no command starts the interactive chat.`,
	SilenceUsage: true,
	RunE:         runChat,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errToolFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	tui.Version = version

	f := rootCmd.PersistentFlags()
	f.StringVar(&configFlag, "config", "", "config file (default ~/.config/agentcore/config.json)")
	f.StringVarP(&projectFlag, "project", "p", ".", `project id under the workspace, or "." for the current directory`)
	f.StringVarP(&modelFlag, "model", "m", "", "model to use (overrides default_model)")
	f.StringVar(&workspaceFlag, "workspace", "", "workspace directory (overrides workspace_dir)")
	f.StringVar(&logLevelFlag, "log-level", "", "log level (overrides log_level)")
	f.StringVar(&logFileFlag, "log-file", "", "write logs to this file instead of stderr")
	f.BoolVar(&readOnlyFlag, "read-only", false, "advertise and allow only the read-only tools")
	f.BoolVarP(&yesFlag, "yes", "y", false, "approve deletions, commits and commands without asking")
}
