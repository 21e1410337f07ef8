// Package chart renders a candlestick page with pattern annotations.
package chart

import (
	"fmt"
	"io"
	"time"

	"patternscope/internal/market"
	"patternscope/internal/pattern"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	bullColor = "#14b8a6"
	bearColor = "#ef4444"
)

// RenderCandles writes an HTML page holding the price chart, with one mark
// point per detection, and a volume chart underneath.
func RenderCandles(w io.Writer, s market.Series, detections []pattern.Detection) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s Price Chart", s.Symbol)
	page.AddCharts(candles(s, detections), volume(s))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func xAxis(s market.Series) []string {
	out := make([]string, s.Len())
	for i, b := range s.Bars {
		out[i] = b.Date.Format(time.DateOnly)
	}
	return out
}

func candles(s market.Series, detections []pattern.Detection) *charts.Kline {
	data := make([]opts.KlineData, 0, s.Len())
	for _, b := range s.Bars {
		// echarts order: open, close, lowest, highest
		data = append(data, opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}})
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s Price Chart", s.Symbol),
			Subtitle: fmt.Sprintf("%d daily bars, %d patterns", s.Len(), len(detections)),
		}),
		charts.WithXAxisOpts(opts.XAxis{SplitNumber: 20}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     true,
			SplitLine: &opts.SplitLine{Show: true},
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			XAxisIndex: []int{0},
			Start:      0,
			End:        100,
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "slider",
			XAxisIndex: []int{0},
			Start:      0,
			End:        100,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:        true,
			Trigger:     "axis",
			AxisPointer: &opts.AxisPointer{Type: "cross"},
		}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "560px"}),
	)

	kline.SetXAxis(xAxis(s)).AddSeries("Candlestick", data,
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        bullColor,
			Color0:       bearColor,
			BorderColor:  bullColor,
			BorderColor0: bearColor,
		}),
		charts.WithMarkPointNameCoordItemOpts(markPoints(s, detections)...),
	)
	return kline
}

// markPoints pins each detection label on the bar that completes it, above
// the high for bearish shapes and below the low for bullish ones.
func markPoints(s market.Series, detections []pattern.Detection) []opts.MarkPointNameCoordItem {
	out := make([]opts.MarkPointNameCoordItem, 0, len(detections))
	for _, d := range detections {
		if d.Index < 0 || d.Index >= s.Len() {
			continue
		}
		bar := s.Bars[d.Index]
		y, symbol := bar.High, "pin"
		if d.Kind.Bullish() {
			y, symbol = bar.Low, "arrow"
		}
		out = append(out, opts.MarkPointNameCoordItem{
			Name:       string(d.Kind),
			Coordinate: []interface{}{bar.Date.Format(time.DateOnly), y},
			Symbol:     symbol,
			SymbolSize: 18,
			Label:      &opts.Label{Show: true, Formatter: string(d.Kind), Position: "top"},
		})
	}
	return out
}

func volume(s market.Series) *charts.Bar {
	data := make([]opts.BarData, 0, s.Len())
	for _, b := range s.Bars {
		color := bullColor
		if b.Close < b.Open {
			color = bearColor
		}
		data = append(data, opts.BarData{Value: b.Volume, ItemStyle: &opts.ItemStyle{Color: color}})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Volume"}),
		charts.WithLegendOpts(opts.Legend{Show: false}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "220px"}),
	)
	bar.SetXAxis(xAxis(s)).AddSeries("Volume", data)
	return bar
}
