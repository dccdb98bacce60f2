package board

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aphrx/stopboard/pkg/config"
	"github.com/aphrx/stopboard/pkg/departures"
	"github.com/aphrx/stopboard/pkg/transit"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "board",
		Usage: "Live departure board in the terminal",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run a live board for a stop",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "stop",
						Usage:    "stop number to display",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to config file",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					if cfg.TransitAPIKey == "" {
						log.Warn().Msg("\"STOPBOARD_TRANSIT_API_KEY\" not set - board will show no schedule")
					}

					return runBoard(cfg, c.String("stop"))
				},
			},
		},
	}
}

func runBoard(cfg config.Config, stopNumber string) error {
	client := transit.NewClient(cfg.TransitAPIKey)

	session := NewSession(client, stopNumber, departures.ResolverOptions{
		AgencyMarker: cfg.AgencyMarker,
		SearchLat:    cfg.SearchLat,
		SearchLon:    cfg.SearchLon,
		MaxResults:   cfg.MaxSearchResults,
	}, cfg.WindowMinutes, cfg.RefreshInterval())

	session.OnUpdate = func() {
		snapshot, err := session.Current()
		render(os.Stdout, snapshot, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session.Run(ctx)

	log.Info().Str("stopnumber", stopNumber).Msg("Board session stopped")

	return nil
}

func render(w io.Writer, snapshot *Snapshot, err error) {
	// Clear and home - full redraw every cycle.
	fmt.Fprint(w, "\033[2J\033[H")

	if err != nil {
		fmt.Fprintf(w, "No data available: %s\n", err)
		if snapshot == nil {
			return
		}
		fmt.Fprintln(w)
	}

	if snapshot == nil {
		fmt.Fprintln(w, "Loading...")
		return
	}

	fmt.Fprintf(w, "Next services at %s (Stop %s)\n\n", snapshot.Stop.StopName, snapshot.Stop.StopCode)

	rows := departures.Format(snapshot.Schedule)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No upcoming departures")
		return
	}

	for _, row := range rows {
		live := " "
		if row.RealTime {
			live = "*"
		}

		fmt.Fprintf(w, "%-8s %-40s %8s%s", row.Route, row.RouteLongName, row.Label, live)
		for _, label := range row.StackLabels {
			fmt.Fprintf(w, "  %s", label)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n* live prediction\n")
	fmt.Fprintf(w, "Updated %s · ID %s\n", snapshot.FetchedAt.Format("15:04:05"), snapshot.Stop.GlobalStopID)
}
