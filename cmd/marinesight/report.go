package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/marine-sighting/internal/domain"
	"github.com/couchcryptid/marine-sighting/internal/location"
	"github.com/couchcryptid/marine-sighting/internal/report"
)

type reportFlags struct {
	species     string
	description string
	lat         float64
	lon         float64
	deny        bool
}

func newReportCmd(a *app) *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a sighting at a position",
		Long: "Submit a sighting through the report flow. --lat/--lon stand in for the device fix; " +
			"--deny simulates a refused location permission.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			platform, err := f.platform(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sess := a.newSession(platform)
			platform.Attach(sess.Location)

			// A failed startup fetch does not block reporting.
			if err := sess.Bootstrap(ctx); err != nil {
				a.logger.Warn("continuing without remote sightings", "error", err)
			}

			flow := sess.Report
			flow.Open()
			if err := flow.SetSpecies(f.species); err != nil {
				return err
			}
			if err := flow.SetDescription(f.description); err != nil {
				return err
			}

			out := flow.Submit(ctx)
			if out.State != report.Succeeded {
				return fmt.Errorf("report failed: %s", out.Message)
			}

			id := int64(0)
			if out.Sighting.ID != nil {
				id = *out.Sighting.ID
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d, %d sightings)\n", out.Message, id, sess.Map.Count())
			return err
		},
	}

	cmd.Flags().StringVar(&f.species, "species", "", "species observed")
	cmd.Flags().StringVar(&f.description, "description", "", "free-text description")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude of the sighting")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "longitude of the sighting")
	cmd.Flags().BoolVar(&f.deny, "deny", false, "simulate a denied location permission")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsMutuallyExclusive("deny", "lat")

	return cmd
}

func (f reportFlags) platform(cmd *cobra.Command) (*location.StaticPlatform, error) {
	if f.deny {
		return &location.StaticPlatform{Status: domain.AuthorizationDenied}, nil
	}
	if !cmd.Flags().Changed("lat") {
		return nil, errors.New("either --lat and --lon or --deny is required")
	}
	return &location.StaticPlatform{
		Status: domain.AuthorizationGranted,
		Fix:    &domain.Coordinate{Latitude: f.lat, Longitude: f.lon},
	}, nil
}
