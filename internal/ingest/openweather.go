package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/rgoyal/delhiair/internal/httputil"
	"github.com/rgoyal/delhiair/internal/metrics"
	"github.com/rgoyal/delhiair/internal/models"
)

const defaultBaseURL = "http://api.openweathermap.org/data/2.5/air_pollution"

// ErrNoPM25 marks a provider response that carried no PM2.5 concentration
// and therefore cannot be converted to an AQI value.
var ErrNoPM25 = errors.New("no pm2.5 concentration in response")

// FetchError is the per-district failure type. The ingestion job treats it
// as a failed unit, never as a fatal batch error.
type FetchError struct {
	District string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.District, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches raw pollutant concentrations from the OpenWeatherMap air
// pollution API, one request per district.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewClient(apiKey string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  httputil.NewClient(),
		breaker: cb,
	}
}

type airPollutionResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components struct {
			PM25 *float64 `json:"pm2_5"`
			PM10 *float64 `json:"pm10"`
			NO2  *float64 `json:"no2"`
			O3   *float64 `json:"o3"`
			SO2  *float64 `json:"so2"`
			CO   *float64 `json:"co"`
		} `json:"components"`
		Dt int64 `json:"dt"`
	} `json:"list"`
}

// FetchReading requests the current pollutant concentrations for one
// district. Failures come back as *FetchError so callers can attribute
// them to the district without aborting sibling fetches.
func (c *Client) FetchReading(ctx context.Context, district models.District) (*models.PollutantReading, error) {
	reading, err := c.fetch(ctx, district)
	if err != nil {
		metrics.ProviderAPICallsTotal.WithLabelValues(district.Name, "error").Inc()
		return nil, &FetchError{District: district.Name, Err: err}
	}
	metrics.ProviderAPICallsTotal.WithLabelValues(district.Name, "ok").Inc()
	return reading, nil
}

func (c *Client) fetch(ctx context.Context, district models.District) (*models.PollutantReading, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.4f", district.Latitude))
	params.Set("lon", fmt.Sprintf("%.4f", district.Longitude))
	params.Set("appid", c.apiKey)
	reqURL := c.baseURL + "?" + params.Encode()

	start := time.Now()
	defer func() {
		metrics.ProviderAPILatency.WithLabelValues(district.Name).Observe(time.Since(start).Seconds())
	}()

	var body []byte
	operation := func() error {
		result, err := c.breaker.Execute(func() (any, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return nil, backoff.Permanent(err)
			}

			resp, err := c.client.Do(req)
			if err != nil {
				return nil, backoff.Permanent(fmt.Errorf("request: %w", err))
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests {
				return nil, fmt.Errorf("rate limited: status %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				b, _ := io.ReadAll(resp.Body)
				return nil, backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, string(b)))
			}

			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, backoff.Permanent(fmt.Errorf("read body: %w", err))
			}
			return b, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("circuit open: %w", err))
			}
			return err
		}
		body = result.([]byte)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 45 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}

	var data airPollutionResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if len(data.List) == 0 {
		return nil, errors.New("empty measurement list")
	}

	comp := data.List[0].Components
	if comp.PM25 == nil {
		return nil, ErrNoPM25
	}

	reading := &models.PollutantReading{PM25: *comp.PM25}
	if comp.PM10 != nil {
		reading.PM10 = sql.NullFloat64{Float64: *comp.PM10, Valid: true}
	}
	if comp.NO2 != nil {
		reading.NO2 = sql.NullFloat64{Float64: *comp.NO2, Valid: true}
	}
	if comp.O3 != nil {
		reading.O3 = sql.NullFloat64{Float64: *comp.O3, Valid: true}
	}
	if comp.SO2 != nil {
		reading.SO2 = sql.NullFloat64{Float64: *comp.SO2, Valid: true}
	}
	if comp.CO != nil {
		reading.CO = sql.NullFloat64{Float64: *comp.CO, Valid: true}
	}
	return reading, nil
}
