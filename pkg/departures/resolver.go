package departures

import (
	"context"
	"errors"
	"strings"

	"github.com/aphrx/stopboard/pkg/transit"
	"github.com/rs/zerolog/log"
)

// ErrNotFound means no stop belonging to the target agency could be
// resolved for the given stop number. Upstream failures collapse into the
// same outcome - the next poll is the retry.
var ErrNotFound = errors.New("no matching stop found")

// ResolverOptions pin the stop search to one agency's service area.
// Candidates whose global stop id does not contain the agency marker are
// skipped regardless of how the upstream search ranked them.
type ResolverOptions struct {
	AgencyMarker string
	SearchLat    float64
	SearchLon    float64
	MaxResults   int
}

// Resolve turns a user-entered stop number into the agency's canonical
// stop record. Nothing is cached - every call re-queries the search
// endpoint, as the stop number is the only stable address we hold.
func Resolve(ctx context.Context, client *transit.Client, stopNumber string, opts ResolverOptions) (*transit.Stop, error) {
	if stopNumber == "" {
		return nil, ErrNotFound
	}

	candidates, err := client.SearchStops(ctx, stopNumber, transit.SearchParams{
		Lat:           opts.SearchLat,
		Lon:           opts.SearchLon,
		MaxNumResults: opts.MaxResults,
	})
	if err != nil {
		if errors.Is(err, transit.ErrNoCredential) {
			return nil, err
		}

		log.Debug().Err(err).Str("stopnumber", stopNumber).Msg("Stop search failed")
		return nil, ErrNotFound
	}

	for _, candidate := range candidates {
		if strings.Contains(candidate.GlobalStopID, opts.AgencyMarker) {
			stop := candidate
			return &stop, nil
		}
	}

	return nil, ErrNotFound
}
