package polygon

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"patternscope/internal/market"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeClient(aggs []models.Agg, err error, seen **models.ListAggsParams) *RESTClient {
	return &RESTClient{
		timeout: time.Second,
		fetch: func(ctx context.Context, params *models.ListAggsParams) ([]models.Agg, error) {
			if seen != nil {
				*seen = params
			}
			if _, ok := ctx.Deadline(); !ok {
				return nil, errors.New("expected deadline on context")
			}
			return aggs, err
		},
	}
}

func aggAt(day int, c float64) models.Agg {
	ts := time.Date(2024, 5, day, 4, 0, 0, 0, time.UTC)
	return models.Agg{Open: c - 1, High: c + 1, Low: c - 2, Close: c, Volume: 1000, Timestamp: models.Millis(ts)}
}

// go test -v --run TestGetDailyBars
func TestGetDailyBars(t *testing.T) {
	var params *models.ListAggsParams
	client := fakeClient([]models.Agg{aggAt(2, 11), aggAt(1, 10)}, nil, &params)

	window := market.Window{
		Start: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
	}
	s, err := client.GetDailyBars(context.Background(), " aapl", window)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", s.Symbol)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, []float64{10, 11}, s.Closes())
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), s.Bars[0].Date)

	require.NotNil(t, params)
	assert.Equal(t, "AAPL", params.Ticker)
	assert.Equal(t, models.Day, params.Timespan)
	assert.Equal(t, 1, params.Multiplier)
	assert.True(t, *params.Adjusted)
	assert.Equal(t, models.Asc, *params.Order)
	assert.Equal(t, MaxBars, *params.Limit)
	assert.Equal(t, window.Start, time.Time(params.From))
}

// go test -v --run TestGetDailyBarsNoData
func TestGetDailyBarsNoData(t *testing.T) {
	client := fakeClient(nil, nil, nil)

	_, err := client.GetDailyBars(context.Background(), "ZZZZ", market.LookbackWindow(time.Now(), 90))
	assert.ErrorIs(t, err, ErrNoData)
}

// go test -v --run TestGetDailyBarsErrors
func TestGetDailyBarsErrors(t *testing.T) {
	boom := errors.New("boom")
	client := fakeClient(nil, boom, nil)

	_, err := client.GetDailyBars(context.Background(), "AAPL", market.LookbackWindow(time.Now(), 90))
	assert.ErrorIs(t, err, boom)

	_, err = client.GetDailyBars(context.Background(), "  ", market.LookbackWindow(time.Now(), 90))
	assert.Error(t, err)
}

// go test -v --run TestGetDailyBarsLive
func TestGetDailyBarsLive(t *testing.T) {
	key := os.Getenv("POLYGON_API_KEY")
	if key == "" {
		t.Skip("POLYGON_API_KEY not set")
	}
	client := NewRESTClient(key, 10*time.Second)

	s, err := client.GetDailyBars(context.Background(), "AAPL", market.LookbackWindow(time.Now(), 90))
	require.NoError(t, err)
	assert.NotZero(t, s.Len())
	t.Logf("got %d bars (first %v)", s.Len(), s.Bars[0])
}
