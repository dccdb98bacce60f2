package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

// RouteDeparture is one route serving the stop, with its upcoming
// departures grouped per itinerary.
type RouteDeparture struct {
	GlobalRouteID  string `json:"global_route_id"`
	RouteShortName string `json:"route_short_name"`
	RouteLongName  string `json:"route_long_name"`
	ModeName       string `json:"mode_name"`

	Itineraries []Itinerary `json:"itineraries"`
}

// Itinerary is a single direction or branch of a route.
type Itinerary struct {
	BranchCode  string `json:"branch_code"`
	Destination string `json:"destination"`
	Headsign    string `json:"headsign"`

	ScheduleItems []ScheduleItem `json:"schedule_items"`
}

// ScheduleItem is one departure event. DepartureTime is unix seconds.
type ScheduleItem struct {
	DepartureTime int64  `json:"departure_time"`
	IsRealTime    bool   `json:"is_real_time"`
	RtTripID      string `json:"rt_trip_id"`
}

type stopDeparturesResponse struct {
	RouteDepartures []RouteDeparture `json:"route_departures"`
}

// StopDepartures fetches the upcoming departures for a resolved stop.
func (c *Client) StopDepartures(ctx context.Context, globalStopID string) ([]RouteDeparture, error) {
	if err := c.checkCredential(); err != nil {
		return nil, err
	}

	requestURL := fmt.Sprintf(
		"%s/stop_departures?global_stop_id=%s",
		c.BaseURL,
		url.QueryEscape(globalStopID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apiKey", c.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamStatusError("stop_departures", resp.StatusCode)
	}

	var departuresResponse stopDeparturesResponse
	if err := json.NewDecoder(resp.Body).Decode(&departuresResponse); err != nil {
		return nil, fmt.Errorf("%w: decode stop_departures response: %s", ErrUpstream, err.Error())
	}

	log.Debug().
		Str("stop", globalStopID).
		Int("routes", len(departuresResponse.RouteDepartures)).
		Msg("Fetched stop departures")

	return departuresResponse.RouteDepartures, nil
}
