package market

// Candle is the canonical normalized bar. Time is epoch seconds (UTC).
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// RawBar is a provider record before normalization. Datetime carries either an
// epoch value or a "YYYY-MM-DD HH:MM:SS" string; prices are kept as the
// provider's decimal strings.
type RawBar struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
}
