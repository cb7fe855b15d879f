package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const binanceKlineLimit = 1500

// BinanceSource serves crypto symbols via the go-binance futures klines API.
// It returns the same RawBar shape as the FX provider so normalization stays
// in one place.
type BinanceSource struct {
	client *futures.Client
}

func NewBinanceSource(baseURL string, timeout time.Duration) *BinanceSource {
	client := futures.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &BinanceSource{client: client}
}

func (s *BinanceSource) Name() string { return "binance" }

func (s *BinanceSource) Fetch(ctx context.Context, q Query) ([]RawBar, error) {
	if q.Symbol == "" || q.Interval == "" {
		return nil, fmt.Errorf("symbol/interval cannot be empty")
	}
	tf, err := ParseTimeframe(q.Interval)
	if err != nil {
		return nil, err
	}
	start, err := parseDateUTC(q.Start)
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	end, err := parseDateUTC(q.End)
	if err != nil {
		return nil, fmt.Errorf("end date: %w", err)
	}
	// Binance requires symbols without slashes (e.g., BTCUSDT).
	cleanSymbol := strings.ToUpper(strings.ReplaceAll(q.Symbol, "/", ""))

	svc := s.client.NewKlinesService().
		Symbol(cleanSymbol).
		Interval(tf.BinanceInterval).
		StartTime(start.UnixMilli()).
		EndTime(end.Add(24 * time.Hour).UnixMilli()).
		Limit(binanceKlineLimit)
	kls, err := svc.Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{Code: int(apiErr.Code), Message: apiErr.Message}
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	out := make([]RawBar, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, RawBar{
			Datetime: strconv.FormatInt(kl.OpenTime/1000, 10),
			Open:     kl.Open,
			High:     kl.High,
			Low:      kl.Low,
			Close:    kl.Close,
		})
	}
	return out, nil
}

func parseDateUTC(value string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}
