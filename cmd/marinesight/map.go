package main

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/marine-sighting/internal/location"
	"github.com/couchcryptid/marine-sighting/internal/mapview"
)

type mapOutput struct {
	Count       int                  `json:"count"`
	Region      mapview.Region       `json:"region"`
	Annotations []mapview.Annotation `json:"annotations"`
}

func newMapCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Print the sightings map",
		Long:  "Load the remote sightings and print them as annotations with a fitted region, as JSON.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// The map does not need a fix; leave the permission undetermined.
			sess := a.newSession(&location.StaticPlatform{})
			if err := sess.Bootstrap(ctx); err != nil {
				return err
			}

			out := mapOutput{
				Count:       sess.Map.Count(),
				Region:      sess.Map.Region(),
				Annotations: sess.Map.Annotations(),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
