package config

import (
	"os"
	"time"

	"github.com/aphrx/stopboard/pkg/util"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config drives the whole service. The API credential is the only value
// without a default; it comes from the environment and its absence is a
// degraded mode (every lookup answers "no schedule"), not a startup error.
type Config struct {
	TransitAPIKey string `yaml:"-"`

	AgencyMarker string  `yaml:"agency_marker" validate:"required"`
	SearchLat    float64 `yaml:"search_lat" validate:"gte=-90,lte=90"`
	SearchLon    float64 `yaml:"search_lon" validate:"gte=-180,lte=180"`

	WindowMinutes          int `yaml:"window_minutes" validate:"gte=1"`
	RefreshIntervalSeconds int `yaml:"refresh_interval_seconds" validate:"gte=1"`
	MaxSearchResults       int `yaml:"max_search_results" validate:"gte=1,lte=10"`

	Listen string `yaml:"listen" validate:"required"`
}

func Defaults() Config {
	return Config{
		AgencyMarker:           "TTC",
		SearchLat:              43.690730,
		SearchLon:              -79.418124,
		WindowMinutes:          60,
		RefreshIntervalSeconds: 30,
		MaxSearchResults:       10,
		Listen:                 ":8080",
	}
}

func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// Load builds the runtime config: defaults, then the optional yaml file
// (path argument or STOPBOARD_CONFIG), then environment overrides.
func Load(path string) (Config, error) {
	config := Defaults()

	env := util.GetEnvironmentVariables()

	if path == "" {
		path = env["STOPBOARD_CONFIG"]
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, err
		}
	}

	config.TransitAPIKey = env["STOPBOARD_TRANSIT_API_KEY"]

	if err := validator.New().Struct(config); err != nil {
		return Config{}, err
	}

	return config, nil
}
