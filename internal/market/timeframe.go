package market

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Timeframe maps one replay timeframe onto the interval tokens each source
// understands.
type Timeframe struct {
	Key             string
	Duration        time.Duration
	BinanceInterval string
}

var supportedTimeframes = map[string]Timeframe{
	"1min":  {Key: "1min", Duration: time.Minute, BinanceInterval: "1m"},
	"5min":  {Key: "5min", Duration: 5 * time.Minute, BinanceInterval: "5m"},
	"15min": {Key: "15min", Duration: 15 * time.Minute, BinanceInterval: "15m"},
	"30min": {Key: "30min", Duration: 30 * time.Minute, BinanceInterval: "30m"},
	"45min": {Key: "45min", Duration: 45 * time.Minute, BinanceInterval: "45m"},
	"1h":    {Key: "1h", Duration: time.Hour, BinanceInterval: "1h"},
	"2h":    {Key: "2h", Duration: 2 * time.Hour, BinanceInterval: "2h"},
	"4h":    {Key: "4h", Duration: 4 * time.Hour, BinanceInterval: "4h"},
	"1day":  {Key: "1day", Duration: 24 * time.Hour, BinanceInterval: "1d"},
}

var timeframeAliases = map[string]string{
	"1m":  "1min",
	"5m":  "5min",
	"15m": "15min",
	"30m": "30min",
	"45m": "45min",
	"60m": "1h",
	"1d":  "1day",
}

// ParseTimeframe returns the normalized timeframe definition.
func ParseTimeframe(input string) (Timeframe, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	if alias, ok := timeframeAliases[key]; ok {
		key = alias
	}
	tf, ok := supportedTimeframes[key]
	if !ok {
		return Timeframe{}, fmt.Errorf("unsupported timeframe: %s", input)
	}
	return tf, nil
}

// SupportedTimeframes returns all supported keys, sorted.
func SupportedTimeframes() []string {
	keys := make([]string, 0, len(supportedTimeframes))
	for k := range supportedTimeframes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
