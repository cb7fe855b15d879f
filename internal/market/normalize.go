package market

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	datetimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
)

// Normalize converts raw provider records into canonical candles ordered most
// recent first, which is what the replay cursor walks. The output order holds
// regardless of the order the provider sent. Any unparseable field fails the
// whole batch.
func Normalize(bars []RawBar) ([]Candle, error) {
	out := make([]Candle, 0, len(bars))
	for i, bar := range bars {
		ts, err := parseBarTime(bar.Datetime)
		if err != nil {
			return nil, payloadErrorf("record %d: %v", i, err)
		}
		c := Candle{Time: ts}
		fields := []struct {
			name  string
			raw   string
			field *float64
		}{
			{"open", bar.Open, &c.Open},
			{"high", bar.High, &c.High},
			{"low", bar.Low, &c.Low},
			{"close", bar.Close, &c.Close},
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f.raw), 64)
			if err != nil {
				return nil, payloadErrorf("record %d: parse %s %q failed", i, f.name, f.raw)
			}
			*f.field = v
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time > out[j].Time })
	return out, nil
}

// parseBarTime accepts either epoch seconds (digits, millis tolerated) or a
// naive "YYYY-MM-DD HH:MM:SS" datetime. Naive datetimes are interpreted as
// UTC: sessions replay fixed historical windows and the provider timestamps
// its series in UTC.
func parseBarTime(raw string) (int64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, payloadErrorf("empty datetime")
	}
	if isDigits(value) {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, payloadErrorf("parse epoch %q failed", raw)
		}
		if n > 1e12 {
			n /= 1000
		}
		return n, nil
	}
	if t, err := time.ParseInLocation(datetimeLayout, value, time.UTC); err == nil {
		return t.Unix(), nil
	}
	if t, err := time.ParseInLocation(dateLayout, value, time.UTC); err == nil {
		return t.Unix(), nil
	}
	return 0, payloadErrorf("unrecognized datetime %q", raw)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
