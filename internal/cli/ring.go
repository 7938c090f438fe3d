package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saaga0h/jeeves-sky/internal/sky"
	"github.com/saaga0h/jeeves-sky/internal/skyagent"
)

type ringOptions struct {
	lat         float64
	long        float64
	timezone    string
	at          string
	secondOrder bool
	overrides   []string
}

// NewRingCommand creates the ring command.
func NewRingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ringOptions{}

	cmd := &cobra.Command{
		Use:   "ring",
		Short: "Compute the sky ring for a location",
		Long: `Compute the 24-hour sky ring for a coordinate and instant.

No atmospheric samples are used, so every factor is neutral unless set with
--override name=value (altitude, turbidity, humidity, cloud_fraction,
ozone_factor, light_pollution).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRing(rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "latitude in degrees [-90, 90]")
	cmd.Flags().Float64Var(&opts.long, "long", 0, "longitude in degrees [-180, 180]")
	cmd.Flags().StringVar(&opts.timezone, "tz", "UTC", "IANA timezone")
	cmd.Flags().StringVar(&opts.at, "at", "", "instant as RFC3339 or epoch milliseconds (default now)")
	cmd.Flags().BoolVar(&opts.secondOrder, "second-order", true, "apply atmospheric adjustments")
	cmd.Flags().StringArrayVar(&opts.overrides, "override", nil, "factor override name=value (repeatable)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("long")

	return cmd
}

func runRing(rootOpts *RootOptions, opts *ringOptions, w io.Writer) error {
	if math.IsNaN(opts.lat) || opts.lat < -90 || opts.lat > 90 {
		return fmt.Errorf("lat must be between -90 and 90, got %v", opts.lat)
	}
	if math.IsNaN(opts.long) || opts.long < -180 || opts.long > 180 {
		return fmt.Errorf("long must be between -180 and 180, got %v", opts.long)
	}

	atMs := rootOpts.now().UnixMilli()
	if opts.at != "" {
		ms, err := skyagent.ParseInstant(opts.at)
		if err != nil {
			return err
		}
		atMs = ms
	}

	overrides, err := parseOverrides(opts.overrides)
	if err != nil {
		return err
	}

	result := sky.ComputeSky24h(
		sky.Coordinates{Lat: opts.lat, Long: opts.long},
		sky.Environment{Timezone: opts.timezone},
		atMs,
		sky.Options{FactorOverrides: overrides, ApplySecondOrder: &opts.secondOrder},
	)

	if rootOpts.Format == "text" {
		return writeRingText(w, result)
	}
	return writeJSON(w, map[string]any{"result": result})
}

// parseOverrides turns name=value pairs into factor overrides. It returns nil
// when no pairs are given.
func parseOverrides(pairs []string) (*sky.FactorOverrides, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	overrides := &sky.FactorOverrides{}
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid override %q: expected name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid override %q: %w", pair, err)
		}
		if !overrides.SetOverride(sky.FactorName(strings.TrimSpace(name)), v) {
			return nil, fmt.Errorf("unknown factor %q", name)
		}
	}
	return overrides, nil
}

func writeRingText(w io.Writer, result sky.Result) error {
	loc, err := time.LoadLocation(result.Timezone)
	if err != nil {
		loc = time.UTC
	}

	fmt.Fprintf(w, "timezone %s  rotation %.2f°  quality %s  degraded %t\n",
		result.Timezone, result.RotationDeg, result.Diagnostics.ProviderQuality, result.Diagnostics.Degraded)
	for _, stop := range result.Stops {
		fmt.Fprintf(w, "%-24s %s  %7.2f°  %s  %+3d min\n",
			stop.Name,
			time.UnixMilli(stop.TimestampMs).In(loc).Format("15:04"),
			stop.AngleDeg,
			stop.ColorHex,
			stop.ShiftMinutes)
	}
	if len(result.Diagnostics.FallbackReasons) > 0 {
		fmt.Fprintf(w, "fallback: %s\n", strings.Join(result.Diagnostics.FallbackReasons, ", "))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
