package polygon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"patternscope/internal/market"

	polygonrest "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
)

// ErrNoData is returned when the aggregates endpoint has no bars for the request.
var ErrNoData = errors.New("no data returned, check symbol or date range")

// MaxBars caps a single aggregates request, matching the limit the endpoint accepts.
const MaxBars = 5000

// fetchFunc pulls raw aggregates for one request. It is swapped out in tests.
type fetchFunc func(ctx context.Context, params *models.ListAggsParams) ([]models.Agg, error)

// RESTClient fetches daily bars from Polygon's aggregates API.
type RESTClient struct {
	timeout time.Duration
	fetch   fetchFunc
}

func NewRESTClient(apiKey string, timeout time.Duration) *RESTClient {
	rest := polygonrest.NewWithClient(apiKey, &http.Client{Timeout: timeout})
	return &RESTClient{
		timeout: timeout,
		fetch: func(ctx context.Context, params *models.ListAggsParams) ([]models.Agg, error) {
			var out []models.Agg
			iter := rest.ListAggs(ctx, params)
			for iter.Next() {
				out = append(out, iter.Item())
			}
			if err := iter.Err(); err != nil {
				return nil, err
			}
			return out, nil
		},
	}
}

// GetDailyBars returns split-adjusted daily bars for symbol over window,
// ascending by date.
func (c *RESTClient) GetDailyBars(ctx context.Context, symbol string, window market.Window) (market.Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return market.Series{}, errors.New("symbol is required")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	aggs, err := c.fetch(ctx, dailyParams(symbol, window))
	if err != nil {
		return market.Series{}, fmt.Errorf("polygon aggregates %s: %w", symbol, err)
	}
	if len(aggs) == 0 {
		return market.Series{}, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	bars := make([]market.Bar, 0, len(aggs))
	for _, a := range aggs {
		bars = append(bars, ToBar(a))
	}
	return market.NewSeries(symbol, bars), nil
}

func dailyParams(symbol string, window market.Window) *models.ListAggsParams {
	params := &models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(window.Start),
		// include the whole last day
		To: models.Millis(window.End.Add(24*time.Hour - time.Millisecond)),
	}
	adjusted := true
	order := models.Asc
	limit := MaxBars
	params.Adjusted = &adjusted
	params.Order = &order
	params.Limit = &limit
	return params
}

// ToBar converts an aggregate into a bar dated by its UTC calendar day.
func ToBar(a models.Agg) market.Bar {
	ts := time.Time(a.Timestamp).UTC()
	return market.Bar{
		Date:   time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
		Open:   a.Open,
		High:   a.High,
		Low:    a.Low,
		Close:  a.Close,
		Volume: a.Volume,
	}
}
