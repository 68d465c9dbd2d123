package fetch

import (
	"context"
	"fmt"

	"github.com/sentinai/sentin"
)

const defaultWeatherBaseURL = "https://api.open-meteo.com/v1/forecast"

// WeatherFetcher reads current conditions and recent precipitation for a
// coordinate pair.
type WeatherFetcher struct {
	baseURL   string
	latitude  float64
	longitude float64
	opts      Options
}

// NewWeatherFetcher creates a weather fetcher. An empty baseURL selects the
// public forecast API.
func NewWeatherFetcher(baseURL string, latitude, longitude float64, opts Options) *WeatherFetcher {
	if baseURL == "" {
		baseURL = defaultWeatherBaseURL
	}
	return &WeatherFetcher{
		baseURL:   baseURL,
		latitude:  latitude,
		longitude: longitude,
		opts:      opts.withDefaults(),
	}
}

type weatherResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
	} `json:"current"`
	Daily struct {
		PrecipitationSum []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Fetch returns temp, humidity, today's rainfall, and the rainfall from two
// days back (the daily series covers the two past days plus today).
func (w *WeatherFetcher) Fetch(ctx context.Context) (sentin.SensorReading, error) {
	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&current=temperature_2m,relative_humidity_2m&daily=precipitation_sum&past_days=2&forecast_days=1",
		w.baseURL, w.latitude, w.longitude)

	var resp weatherResponse
	if err := getJSON(ctx, w.opts, url, &resp); err != nil {
		return nil, err
	}

	reading := sentin.SensorReading{
		"temp":     resp.Current.Temperature,
		"humidity": resp.Current.Humidity,
	}
	daily := resp.Daily.PrecipitationSum
	if len(daily) > 0 {
		reading["rainfall"] = daily[len(daily)-1]
		reading["rainfall_lag_2"] = daily[0]
	}
	return reading, nil
}
