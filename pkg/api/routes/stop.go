package routes

import (
	"errors"
	"time"

	"github.com/aphrx/stopboard/pkg/config"
	"github.com/aphrx/stopboard/pkg/departures"
	"github.com/aphrx/stopboard/pkg/transit"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// StopBoard serves the live board lookup. The display polls it every 30
// seconds, so every response is marked no-store - a cached answer is a
// stale board.
type StopBoard struct {
	Client   *transit.Client
	Resolver departures.ResolverOptions
	Window   int
}

func NewStopBoard(cfg config.Config) StopBoard {
	return StopBoard{
		Client: transit.NewClient(cfg.TransitAPIKey),
		Resolver: departures.ResolverOptions{
			AgencyMarker: cfg.AgencyMarker,
			SearchLat:    cfg.SearchLat,
			SearchLon:    cfg.SearchLon,
			MaxResults:   cfg.MaxSearchResults,
		},
		Window: cfg.WindowMinutes,
	}
}

func (s StopBoard) Router(router fiber.Router) {
	router.Get("/stop", s.getStop)
}

func (s StopBoard) getStop(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")

	stopNumber := c.Query("stopNumber")
	if stopNumber == "" {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "stopNumber query parameter is required",
		})
	}

	stop, err := departures.Resolve(c.Context(), s.Client, stopNumber, s.Resolver)
	if err != nil {
		if errors.Is(err, transit.ErrNoCredential) {
			log.Error().Msg("Transit API credential not configured")
		}

		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Stop could not be found or has no departures",
		})
	}

	schedule, err := departures.Aggregate(c.Context(), s.Client, stop, time.Now(), s.Window)
	if err != nil {
		// A departures failure after a successful resolution gets the same
		// not-found surface as a failed resolution. An empty window is a
		// 200 with an empty mapping, never a 404.
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Stop could not be found or has no departures",
		})
	}

	return c.JSON(fiber.Map{
		"stop":     stop,
		"schedule": schedule,
	})
}
