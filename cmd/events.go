package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/simonyos/agentcore/internal/config"
	"github.com/simonyos/agentcore/internal/events"
	"github.com/simonyos/agentcore/internal/logging"
)

var (
	eventsURLFlag string
	eventsAllFlag bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow tool calls published to NATS",
	Long: `Print tool-call events as they are published by running agents. Events
are published only when nats_url is configured.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := config.Open(configFlag)
		if err != nil {
			return err
		}
		cfg, err := s.Config()
		if err != nil {
			return err
		}
		url := eventsURLFlag
		if url == "" {
			url = cfg.NATSURL
		}
		if url == "" {
			return errors.New("no NATS server: set nats_url or pass --url")
		}

		log, err := logging.New(cfg.LogLevel, cfg.LogJSON)
		if err != nil {
			return err
		}
		defer log.Sync()

		nc := events.DefaultNATSConfig()
		nc.URL = url
		conn, err := events.ConnectNATS(nc, log)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		project := projectFlag
		if eventsAllFlag {
			project = ""
		}
		out := cmd.OutOrStdout()
		ok := color.New(color.FgGreen)
		fail := color.New(color.FgRed)
		muted := color.New(color.Faint)
		return conn.Watch(ctx, project, func(ev events.ToolCall) {
			muted.Fprintf(out, "%s %s ", ev.Time.Format("15:04:05"), ev.ProjectID)
			if ev.Success {
				ok.Fprintf(out, "✅ %s", ev.Tool)
			} else {
				fail.Fprintf(out, "❌ %s [%s] %s", ev.Tool, ev.Kind, ev.Error)
			}
			muted.Fprintf(out, " %s %dB%s\n", ev.Duration, ev.OutputSize, shortTurn(ev.TurnID))
		})
	},
}

func shortTurn(id string) string {
	if id == "" {
		return ""
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf(" turn=%s", id)
}

func init() {
	eventsCmd.Flags().StringVar(&eventsURLFlag, "url", "", "NATS server (overrides nats_url)")
	eventsCmd.Flags().BoolVar(&eventsAllFlag, "all", false, "follow every project, not only --project")
	rootCmd.AddCommand(eventsCmd)
}
