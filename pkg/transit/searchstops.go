package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

// Stop is a single candidate from the search_stops endpoint. The
// GlobalStopID is the only identifier the rest of the Transit API accepts.
type Stop struct {
	GlobalStopID       string  `json:"global_stop_id"`
	StopName           string  `json:"stop_name"`
	StopCode           string  `json:"stop_code"`
	StopLat            float64 `json:"stop_lat"`
	StopLon            float64 `json:"stop_lon"`
	WheelchairBoarding int     `json:"wheelchair_boarding"`
}

type searchStopsResponse struct {
	Results []Stop `json:"results"`
}

// SearchParams biases the stop search towards a fixed point so that a bare
// stop number resolves within the agency's service area.
type SearchParams struct {
	Lat           float64
	Lon           float64
	MaxNumResults int
}

// SearchStops queries the search_stops endpoint for candidates matching
// query, biased to the given coordinates.
func (c *Client) SearchStops(ctx context.Context, query string, params SearchParams) ([]Stop, error) {
	if err := c.checkCredential(); err != nil {
		return nil, err
	}

	requestURL := fmt.Sprintf(
		"%s/search_stops?query=%s&max_num_results=%d&lat=%f&lon=%f",
		c.BaseURL,
		url.QueryEscape(query),
		params.MaxNumResults,
		params.Lat,
		params.Lon,
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
		return nil, upstreamStatusError("search_stops", resp.StatusCode)
	}

	var searchResponse searchStopsResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResponse); err != nil {
		return nil, fmt.Errorf("%w: decode search_stops response: %s", ErrUpstream, err.Error())
	}

	log.Debug().
		Str("query", query).
		Int("candidates", len(searchResponse.Results)).
		Msg("Searched for stops")

	return searchResponse.Results, nil
}
