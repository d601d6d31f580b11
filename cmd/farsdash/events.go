package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/farsdash/farsdash/engine/session"
	"github.com/farsdash/farsdash/pkg/natsutil"
)

var (
	eventsJSON    bool
	eventsSubject string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail the interactions published by running dashboards",
	Long: `Subscribe to the interaction subject on nats_url and print every accepted
user input until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "print raw JSON, one object per line")
	eventsCmd.Flags().StringVar(&eventsSubject, "subject", "", "subject to follow (default: nats_subject)")
}

func runEvents(cmd *cobra.Command, _ []string) error {
	if cfg.NATSURL == "" {
		return fmt.Errorf("nats_url is not configured")
	}
	subject := cfg.NATSSubject
	if eventsSubject != "" {
		subject = eventsSubject
	}
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("farsdash-events"))
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	sub, err := followInteractions(nc, subject, cmd.OutOrStdout(), eventsJSON)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()
	logger.Info("following interactions", "subject", subject)
	<-ctx.Done()
	return nil
}

func followInteractions(nc *nats.Conn, subject string, w io.Writer, raw bool) (*nats.Subscription, error) {
	var mu sync.Mutex
	return natsutil.Subscribe(nc, subject, func(_ context.Context, in session.Interaction) {
		mu.Lock()
		defer mu.Unlock()
		if raw {
			b, err := json.Marshal(in)
			if err == nil {
				fmt.Fprintf(w, "%s\n", b)
			}
			return
		}
		fmt.Fprintln(w, formatInteraction(in))
	})
}

func formatInteraction(in session.Interaction) string {
	line := fmt.Sprintf("%s  %-8s  %-8s  %s", in.At.Format("15:04:05.000"), shortID(in.SessionID), in.View, in.Event)
	if in.StateID != 0 {
		line += fmt.Sprintf("  state=%d", in.StateID)
	}
	if in.Data != nil {
		if b, err := json.Marshal(in.Data); err == nil {
			line += "  " + string(b)
		}
	}
	return line
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
