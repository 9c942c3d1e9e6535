package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/simonyos/agentcore/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage agentcore configuration",
	Long: `Manage agentcore configuration. Values come from defaults, the config
file and AGENTCORE_* environment variables, the latter taking precedence.

Examples:
  agentcore config                        # Show current config
  agentcore config set openai <key>       # Set the API key
  agentcore config set max_iterations 40  # Allow longer turns
  agentcore config delete openai          # Remove the API key`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := config.Open(configFlag)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration file: %s\n\n", s.Path())
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, e := range s.List() {
			fmt.Fprintf(w, "  %s\t%s\t(%s)\n", e.Key, e.Value, e.Source)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if len(s.FileKeys()) == 0 {
			fmt.Fprintln(out, "\nUse 'agentcore config set <key> <value>' to configure.")
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value.\n\nAvailable keys:\n" + keyUsage(),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Open(configFlag)
		if err != nil {
			return err
		}
		if err := s.Set(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s successfully.\n", args[0])
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Open(configFlag)
		if err != nil {
			return err
		}
		e, err := s.Get(args[0])
		if err != nil {
			return err
		}
		if e.Value == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is not set\n", e.Key)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", e.Key, e.Value, e.Source)
		return nil
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Aliases: []string{"remove", "unset"},
	Short:   "Delete a configuration value",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Open(configFlag)
		if err != nil {
			return err
		}
		if err := s.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		path := configFlag
		if path == "" {
			path = config.DefaultPath()
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	},
}

func keyUsage() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	for _, k := range config.Keys {
		fmt.Fprintf(w, "  %s\t- %s\n", k.Name, k.Usage)
	}
	_ = w.Flush()
	return sb.String()
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configDeleteCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
