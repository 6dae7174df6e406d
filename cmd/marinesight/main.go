package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/marine-sighting/internal/adapter/remote"
	"github.com/couchcryptid/marine-sighting/internal/config"
	"github.com/couchcryptid/marine-sighting/internal/location"
	"github.com/couchcryptid/marine-sighting/internal/observability"
	"github.com/couchcryptid/marine-sighting/internal/session"
)

// app carries what PersistentPreRunE loads for the subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "marinesight",
		Short:         "Report and map marine-wildlife sightings",
		Long:          "Client for the sightings store: lists reported sightings as map annotations and submits new reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = c
			a.logger = observability.NewLoggerTo(cmd.ErrOrStderr(), c)
			return nil
		},
	}

	root.AddCommand(newMapCmd(a), newReportCmd(a), newSeedCmd(a))
	return root
}

// newSession wires a session against REMOTE_URL. Metrics are omitted: a
// short-lived CLI process has nothing scraping it.
func (a *app) newSession(platform location.Platform) *session.Session {
	gateway := remote.NewClient(a.cfg.RemoteURL, a.cfg.RemoteTimeout, a.logger, nil)
	return session.New(platform, gateway, a.logger, nil, session.Options{
		FetchAttempts: a.cfg.FetchAttempts,
	})
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
