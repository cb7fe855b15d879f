package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// TwelveDataSource talks to a TwelveData-style /time_series REST endpoint.
type TwelveDataSource struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewTwelveDataSource(apiKey, baseURL string, timeout time.Duration) (*TwelveDataSource, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("twelvedata source requires an api key")
	}
	if baseURL == "" {
		baseURL = "https://api.twelvedata.com"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TwelveDataSource{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (s *TwelveDataSource) Name() string { return "twelvedata" }

// Fetch performs a single /time_series request. Record order is passed through
// as received (the provider sends latest-first on most plans).
func (s *TwelveDataSource) Fetch(ctx context.Context, q Query) ([]RawBar, error) {
	if q.Symbol == "" || q.Interval == "" {
		return nil, fmt.Errorf("symbol/interval cannot be empty")
	}
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = "/time_series"
	query := u.Query()
	query.Set("symbol", q.Symbol)
	query.Set("interval", q.Interval)
	query.Set("start_date", q.Start)
	query.Set("end_date", q.End)
	query.Set("apikey", s.apiKey)
	query.Set("format", "JSON")
	u.RawQuery = query.Encode()

	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return parseTimeSeries(body)
}

// parseTimeSeries probes the body with gjson first: the provider reports
// application errors inside a 200 response via a status field.
func parseTimeSeries(body []byte) ([]RawBar, error) {
	if !gjson.ValidBytes(body) {
		return nil, payloadErrorf("body is not valid json")
	}
	parsed := gjson.ParseBytes(body)
	if status := parsed.Get("status"); status.Exists() && status.String() != "ok" {
		return nil, &ProviderError{
			Code:    int(parsed.Get("code").Int()),
			Message: parsed.Get("message").String(),
		}
	}
	values := parsed.Get("values")
	if !values.Exists() || !values.IsArray() {
		return nil, payloadErrorf("missing values array")
	}
	bars := make([]RawBar, 0, len(values.Array()))
	for _, v := range values.Array() {
		if !v.IsObject() {
			return nil, payloadErrorf("values entry is not an object")
		}
		bars = append(bars, RawBar{
			Datetime: v.Get("datetime").String(),
			Open:     v.Get("open").String(),
			High:     v.Get("high").String(),
			Low:      v.Get("low").String(),
			Close:    v.Get("close").String(),
		})
	}
	return bars, nil
}
