package server

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"baskt/internal/logger"
	"baskt/internal/market"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	chartBackground    = "#060c1b"
	chartTextPrimary   = "#eceff4"
	chartTextSecondary = "#9ca3af"
	chartBull          = "#34d399"
	chartBear          = "#f87171"

	chartWidthPx  = 1400
	chartHeightPx = 640
)

// handleSessionChart renders the session's candles as an interactive HTML
// kline page. Data comes through the same read-through path as /data, so the
// first render for a session may hit the provider.
func (s *Server) handleSessionChart(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := s.store.SessionByIDAndUser(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	candles, _, err := s.replay.HistoricalData(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(candles) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no candle data for session"})
		return
	}

	kline := buildSessionKline(session.Symbol, session.Timeframe, candles)
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := kline.Render(c.Writer); err != nil {
		logger.Errorf("rendering chart for session %d: %v", session.ID, err)
	}
}

func buildSessionKline(symbol, timeframe string, candles []market.Candle) *charts.Kline {
	// Candles are stored newest-first; charts read left to right oldest-first.
	ordered := make([]market.Candle, len(candles))
	for i, c := range candles {
		ordered[len(candles)-1-i] = c
	}

	minPrice, maxPrice := candlePriceBounds(ordered)
	padding := (maxPrice - minPrice) * 0.05
	if padding <= 0 {
		padding = math.Max(1, math.Abs(maxPrice)*0.01)
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", chartHeightPx),
			BackgroundColor: chartBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         fmt.Sprintf("%s %s", strings.ToUpper(symbol), timeframe),
			Left:          "left",
			Top:           "10",
			TitleStyle:    &opts.TextStyle{Color: chartTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: chartTextSecondary},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: chartTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: chartTextSecondary},
			Min:       roundPrice(minPrice-padding, 4),
			Max:       roundPrice(maxPrice+padding, 4),
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: chartTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        chartBull,
			Color0:       chartBear,
			BorderColor:  chartBull,
			BorderColor0: chartBear,
		}),
	)

	xAxis := make([]string, len(ordered))
	data := make([]opts.KlineData, len(ordered))
	for i, c := range ordered {
		xAxis[i] = time.Unix(c.Time, 0).UTC().Format("01-02 15:04")
		data[i] = opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}}
	}
	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", data)
	return kline
}

func candlePriceBounds(candles []market.Candle) (minVal, maxVal float64) {
	if len(candles) == 0 {
		return 0, 0
	}
	minVal = candles[0].Low
	maxVal = candles[0].High
	for _, c := range candles {
		if c.Low < minVal {
			minVal = c.Low
		}
		if c.High > maxVal {
			maxVal = c.High
		}
	}
	return minVal, maxVal
}

func roundPrice(val float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(val*scale) / scale
}
