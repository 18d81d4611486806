package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/spf13/cast"
	"net/http"
	"time"
)

var errNoUSDRate = errors.New("response carries no USD rate")

// HTTPRateSource reads rates.USD from an exchangerate-api style endpoint.
type HTTPRateSource struct {
	URL  string
	HTTP *http.Client
}

func NewHTTPRateSource(url string, timeout time.Duration) *HTTPRateSource {
	return &HTTPRateSource{URL: url, HTTP: &http.Client{Timeout: timeout}}
}

func (s *HTTPRateSource) FetchRate(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, http.NoBody)
	if err != nil {
		return 0, err
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate source returned %s", resp.Status)
	}

	var body struct {
		Rates map[string]interface{} `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode rates: %w", err)
	}
	raw, ok := body.Rates["USD"]
	if !ok {
		return 0, errNoUSDRate
	}
	rate, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid USD rate %v: %w", raw, err)
	}
	if rate <= 0 {
		return 0, errNoUSDRate
	}
	return rate, nil
}
