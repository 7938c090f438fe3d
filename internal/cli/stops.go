package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saaga0h/jeeves-sky/internal/sky"
)

type stopInfo struct {
	Name     sky.StopName `json:"name"`
	Baseline string       `json:"baselineColor"`
	Shift    string       `json:"shift"`
}

// NewStopsCommand creates the stops command.
func NewStopsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stops",
		Short: "List the ring stops in canonical order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStops(rootOpts, cmd.OutOrStdout())
		},
	}
}

func runStops(rootOpts *RootOptions, w io.Writer) error {
	stops := make([]stopInfo, 0, sky.StopCount)
	for _, name := range sky.StopOrder {
		stops = append(stops, stopInfo{
			Name:     name,
			Baseline: sky.BaselineColors[name],
			Shift:    shiftLabel(sky.ClassOf(name)),
		})
	}

	if rootOpts.Format == "json" {
		return writeJSON(w, stops)
	}
	for _, s := range stops {
		fmt.Fprintf(w, "%-24s %s  %s\n", s.Name, s.Baseline, s.Shift)
	}
	return nil
}

func shiftLabel(class sky.StopClass) string {
	switch class {
	case sky.ClassDawn:
		return "dawn"
	case sky.ClassDusk:
		return "dusk"
	default:
		return "fixed"
	}
}
