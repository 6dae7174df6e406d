package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/marine-sighting/internal/adapter/remote"
	"github.com/couchcryptid/marine-sighting/internal/domain"
)

// newSeedCmd loads a JSON fixture of sightings into the remote store, for
// local development against sightingd.
func newSeedCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixture sightings into the remote store",
		Long:  "Read a JSON array of sightings and create each one through the sync gateway. Invalid entries are skipped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read fixture: %w", err)
			}
			var fixtures []domain.Sighting
			if err := json.Unmarshal(data, &fixtures); err != nil {
				return fmt.Errorf("parse fixture %s: %w", file, err)
			}

			gateway := remote.NewClient(a.cfg.RemoteURL, a.cfg.RemoteTimeout, a.logger, nil)
			var created, skipped int
			for i, s := range fixtures {
				s.ID = nil
				if err := s.Validate(); err != nil {
					a.logger.Warn("skipping fixture entry", "index", i, "error", err)
					skipped++
					continue
				}
				if _, err := gateway.Create(ctx, s); err != nil {
					return fmt.Errorf("create fixture %d: %w", i, err)
				}
				created++
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d sightings (%d skipped)\n", created, skipped)
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to a JSON array of sightings")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
