package api

import (
	"github.com/aphrx/stopboard/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the stop board web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "listen target for the web server",
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

					if listen := c.String("listen"); listen != "" {
						cfg.Listen = listen
					}

					if cfg.TransitAPIKey == "" {
						log.Warn().Msg("\"STOPBOARD_TRANSIT_API_KEY\" not set - stop lookups will answer not found")
					}

					return SetupServer(cfg).Listen(cfg.Listen)
				},
			},
		},
	}
}
