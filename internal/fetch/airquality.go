package fetch

import (
	"context"
	"fmt"
	"math"

	"github.com/sentinai/sentin"
)

const defaultAirQualityBaseURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

// severePM25 is the PM2.5 concentration above which a day counts as severe
// (converted AQI over 200 on the CPCB scale).
const severePM25 = 90.0

// AirQualityFetcher reads PM2.5 concentrations and converts them to the
// Indian CPCB AQI scale.
type AirQualityFetcher struct {
	baseURL   string
	latitude  float64
	longitude float64
	opts      Options
}

// NewAirQualityFetcher creates an air quality fetcher. An empty baseURL
// selects the public air quality API.
func NewAirQualityFetcher(baseURL string, latitude, longitude float64, opts Options) *AirQualityFetcher {
	if baseURL == "" {
		baseURL = defaultAirQualityBaseURL
	}
	return &AirQualityFetcher{
		baseURL:   baseURL,
		latitude:  latitude,
		longitude: longitude,
		opts:      opts.withDefaults(),
	}
}

type airQualityResponse struct {
	Current struct {
		PM25 float64 `json:"pm2_5"`
	} `json:"current"`
	Daily struct {
		PM25Max []float64 `json:"pm2_5_max"`
	} `json:"daily"`
}

// Fetch returns the current CPCB AQI and the number of recent days whose
// peak PM2.5 crossed the severe threshold.
func (a *AirQualityFetcher) Fetch(ctx context.Context) (sentin.SensorReading, error) {
	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&current=pm2_5&daily=pm2_5_max&past_days=7",
		a.baseURL, a.latitude, a.longitude)

	var resp airQualityResponse
	if err := getJSON(ctx, a.opts, url, &resp); err != nil {
		return nil, err
	}

	severeDays := 0
	for _, pm := range resp.Daily.PM25Max {
		if pm > severePM25 {
			severeDays++
		}
	}
	return sentin.SensorReading{
		"aqi":             CPCBAQIFromPM25(resp.Current.PM25),
		"days_severe_aqi": float64(severeDays),
	}, nil
}

// pm25Breakpoints are the CPCB sub-index breakpoints for PM2.5 in ug/m3.
var pm25Breakpoints = []struct {
	cLow, cHigh     float64
	aqiLow, aqiHigh float64
}{
	{0, 30, 0, 50},
	{30, 60, 51, 100},
	{60, 90, 101, 200},
	{90, 120, 201, 300},
	{120, 250, 301, 400},
	{250, 500, 401, 500},
}

// CPCBAQIFromPM25 converts a PM2.5 concentration to the Indian CPCB AQI by
// linear interpolation within its breakpoint band. Concentrations beyond the
// scale clamp to 500.
func CPCBAQIFromPM25(pm25 float64) float64 {
	if pm25 <= 0 {
		return 0
	}
	for _, bp := range pm25Breakpoints {
		if pm25 <= bp.cHigh {
			aqi := (bp.aqiHigh-bp.aqiLow)/(bp.cHigh-bp.cLow)*(pm25-bp.cLow) + bp.aqiLow
			return math.Round(aqi)
		}
	}
	return 500
}
