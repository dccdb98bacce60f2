package transit

import (
	"errors"
	"fmt"
	"net/http"
)

const DefaultBaseURL = "https://external.transitapp.com/v3/public"

var (
	// ErrNoCredential means no API key was configured. This is a deployment
	// problem, not a per-request one, so callers must not retry.
	ErrNoCredential = errors.New("transit api key not configured")

	// ErrUpstream means the Transit API returned a non-success status.
	ErrUpstream = errors.New("transit api request failed")
)

// Client talks to the Transit public API. All requests carry the account
// API key in the apiKey header.
type Client struct {
	APIKey  string
	BaseURL string

	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}
}

func (c *Client) checkCredential() error {
	if c.APIKey == "" {
		return ErrNoCredential
	}
	return nil
}

func upstreamStatusError(endpoint string, statusCode int) error {
	return fmt.Errorf("%w: %s returned status %d", ErrUpstream, endpoint, statusCode)
}
