package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/simonyos/agentcore/internal/agent"
	"github.com/simonyos/agentcore/internal/tui"
)

var runJSONFlag bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

var runCmd = &cobra.Command{
	Use:   "run <message>",
	Short: "Run one agent turn and print the transcript",
	Long: `Run one agent turn without the interactive UI. Tool calls are printed as
they finish; Ctrl+C stops the turn after the current tool call.

Deletions, commits and commands that need approval are declined unless
--yes is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOnce,
}

func runChat(cmd *cobra.Command, _ []string) error {
	confirmer := tui.NewConfirmer()
	a, err := newApp(cmd.Context(), confirmer.Confirm, true)
	if err != nil {
		return err
	}
	defer a.close()

	d, err := a.driver()
	if err != nil {
		return err
	}
	root, err := a.store.Root(a.project)
	if err != nil {
		return err
	}
	registry := a.executor.Registry()
	if readOnlyFlag {
		registry = registry.Basic()
	}
	return tui.Run(tui.Options{
		Driver:    d,
		Model:     a.cfg.DefaultModel,
		Project:   a.project,
		Root:      root,
		ReadOnly:  readOnlyFlag,
		Tools:     registry.Describe(),
		Confirmer: confirmer,
	})
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, confirmFunc(), false)
	if err != nil {
		return err
	}
	defer a.close()

	d, err := a.driver()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	message := strings.Join(args, " ")
	if runJSONFlag {
		res, err := d.Chat(ctx, message)
		if res != nil {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(turnJSON(res)); encErr != nil {
				return encErr
			}
		}
		return err
	}
	return printStream(out, d.ChatStream(ctx, message))
}

func printStream(out io.Writer, events <-chan agent.StreamEvent) error {
	ok := color.New(color.FgGreen)
	fail := color.New(color.FgRed)
	muted := color.New(color.Faint)

	var err error
	for ev := range events {
		switch ev.Type {
		case "text":
			fmt.Fprintln(out, ev.Text)
		case "tool_start":
			muted.Fprintf(out, "→ %s %s\n", ev.Tool.Name, ev.Tool.Args)
		case "tool_result":
			if ev.Tool.Result.Success {
				ok.Fprintln(out, ev.Tool.Line)
			} else {
				fail.Fprintln(out, ev.Tool.Line)
			}
		case "done":
			if r := ev.Result; r.Reason == agent.StopFinished || r.Reason == agent.StopAskUser {
				fmt.Fprintln(out, r.Response)
			}
		case "error":
			if ev.Result != nil && ev.Result.Reason == agent.StopCancelled {
				fmt.Fprintln(out, ev.Result.Response)
			}
			err = ev.Error
		}
	}
	return err
}

type turnOutput struct {
	TurnID     string       `json:"turn_id"`
	Reason     string       `json:"reason"`
	Response   string       `json:"response"`
	Iterations int          `json:"iterations"`
	ToolCalls  []toolOutput `json:"tool_calls"`
}

type toolOutput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Args    string `json:"arguments"`
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

func turnJSON(r *agent.TurnResult) turnOutput {
	out := turnOutput{
		TurnID:     r.TurnID,
		Reason:     string(r.Reason),
		Response:   r.Response,
		Iterations: r.Iterations,
		ToolCalls:  []toolOutput{},
	}
	for _, c := range r.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, toolOutput{
			ID:      c.ID,
			Name:    c.Name,
			Args:    c.Args,
			Success: c.Result.Success,
			Kind:    string(c.Result.Kind),
			Output:  c.Result.Output,
			Error:   c.Result.Error,
		})
	}
	return out
}

func init() {
	runCmd.Flags().BoolVar(&runJSONFlag, "json", false, "print the turn result as JSON")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(runCmd)
}
