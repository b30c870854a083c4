package tokyoweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/weatherflow/pkg/fetch"
	"github.com/dukex/weatherflow/pkg/models"
	"github.com/dukex/weatherflow/pkg/nodes/nodetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
	"latitude": 35.7,
	"longitude": 139.6875,
	"timezone": "Asia/Tokyo",
	"current": {
		"time": "2025-11-16T19:30",
		"interval": 900,
		"temperature_2m": 15.2,
		"relative_humidity_2m": 60,
		"weather_code": %CODE%,
		"wind_speed_10m": 7.4,
		"wind_direction_10m": 225
	}
}`

func responseWithCode(code string) []byte {
	return []byte(strings.ReplaceAll(sampleResponse, "%CODE%", code))
}

func staticFetcher(body []byte, err error, calls *atomic.Int32) fetch.Fetcher {
	return fetch.FetcherFunc(func(context.Context, string, time.Duration) ([]byte, error) {
		if calls != nil {
			calls.Add(1)
		}

		return body, err
	})
}

func newTestNode(t *testing.T, config map[string]any, fetcher fetch.Fetcher) (*TokyoWeatherNode, *nodetest.Recorder) {
	t.Helper()

	rec := nodetest.NewRecorder()
	deps := rec.Dependencies()
	deps.Fetcher = fetcher
	deps.Now = func() time.Time {
		return time.Date(2025, 11, 16, 10, 30, 0, 0, time.FixedZone("JST", 9*3600))
	}

	node, err := NewTokyoWeatherNode("weather", config, deps)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = node.Close(context.Background())
	})

	return node, rec
}

func TestNewTokyoWeatherNode_Interval(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
		want   time.Duration
	}{
		{name: "unset", config: map[string]any{}, want: DefaultInterval},
		{name: "zero falls back", config: map[string]any{"interval": 0}, want: DefaultInterval},
		{name: "negative falls back", config: map[string]any{"interval": -5.0}, want: DefaultInterval},
		{name: "configured", config: map[string]any{"interval": 30.0}, want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, _ := newTestNode(t, tt.config, staticFetcher(nil, nil, nil))
			assert.Equal(t, tt.want, node.Interval())
		})
	}
}

func TestNewTokyoWeatherNode_InvalidConfig(t *testing.T) {
	_, err := NewTokyoWeatherNode("w", map[string]any{"interval": "often"}, nodetest.NewRecorder().Dependencies())
	require.Error(t, err)

	_, err = NewTokyoWeatherNode("w", map[string]any{"base_url": 12}, nodetest.NewRecorder().Dependencies())
	require.Error(t, err)
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t,
		"https://api.open-meteo.com/v1/forecast?latitude=35.6895&longitude=139.6917"+
			"&current=temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,wind_direction_10m"+
			"&timezone=Asia/Tokyo",
		BuildURL(DefaultBaseURL))
}

func TestTokyoWeatherNode_PollSuccess(t *testing.T) {
	node, rec := newTestNode(t, nil, staticFetcher(responseWithCode("3"), nil, nil))

	node.Poll(context.Background(), rec.Send)

	require.Len(t, rec.Sent(), 1)
	msg := rec.Sent()[0]
	assert.Equal(t, Topic, msg.Topic)

	snapshot, ok := msg.Payload.(models.WeatherSnapshot)
	require.True(t, ok)
	assert.Equal(t, models.Location{City: "Tokyo", Latitude: 35.6895, Longitude: 139.6917, Timezone: "Asia/Tokyo"}, snapshot.Location)
	assert.Equal(t, "2025-11-16T19:30", snapshot.Current.Time)
	assert.InDelta(t, 15.2, snapshot.Current.Temperature, 1e-9)
	assert.Equal(t, 60, snapshot.Current.Humidity)
	assert.Equal(t, 3, snapshot.Current.WeatherCode)
	assert.Equal(t, "Overcast", snapshot.Current.WeatherDescription)
	assert.InDelta(t, 7.4, snapshot.Current.WindSpeed, 1e-9)
	assert.Equal(t, 225, snapshot.Current.WindDirection)
	assert.Equal(t, "2025-11-16T01:30:00.000Z", snapshot.FetchedAt)

	assert.Equal(t, []models.Status{
		models.StatusPending("Fetching..."),
		models.StatusOK("15.2°C / 60%"),
	}, rec.Statuses())
}

func TestTokyoWeatherNode_UnmappedCode(t *testing.T) {
	node, rec := newTestNode(t, nil, staticFetcher(responseWithCode("999"), nil, nil))

	node.Poll(context.Background(), rec.Send)

	require.Len(t, rec.Sent(), 1)
	snapshot := rec.Sent()[0].Payload.(models.WeatherSnapshot)
	assert.Equal(t, "Unknown (999)", snapshot.Current.WeatherDescription)
}

func TestTokyoWeatherNode_PollFailures(t *testing.T) {
	tests := []struct {
		name       string
		body       []byte
		err        error
		wantStatus models.Status
	}{
		{name: "transport error", err: errors.New("connection refused"), wantStatus: models.StatusError("Error")},
		{name: "timeout", err: fetch.ErrTimeout, wantStatus: models.StatusError("Error")},
		{name: "http error", err: &fetch.HTTPError{StatusCode: 503}, wantStatus: models.StatusError("Error")},
		{name: "invalid json", body: []byte("<html>"), wantStatus: models.StatusError("Parse error")},
		{name: "missing current", body: []byte(`{"latitude":35.7}`), wantStatus: models.StatusError("Parse error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, rec := newTestNode(t, nil, staticFetcher(tt.body, tt.err, nil))

			node.Poll(context.Background(), rec.Send)

			assert.Empty(t, rec.Sent())
			assert.Equal(t, []models.Status{models.StatusPending("Fetching..."), tt.wantStatus}, rec.Statuses())
		})
	}
}

func TestTokyoWeatherNode_FailingFetchKeepsTicking(t *testing.T) {
	var calls atomic.Int32

	node, rec := newTestNode(t, map[string]any{"interval": 1}, staticFetcher(nil, errors.New("offline"), &calls))

	require.NoError(t, node.Start(context.Background(), rec.Send))

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 5*time.Second, 50*time.Millisecond)

	assert.Empty(t, rec.Sent())

	errorsReported := 0
	for _, status := range rec.Statuses() {
		if status == models.StatusError("Error") {
			errorsReported++
		}
	}
	assert.GreaterOrEqual(t, errorsReported, 2)
}

func TestTokyoWeatherNode_CloseStopsTicks(t *testing.T) {
	var calls atomic.Int32

	node, rec := newTestNode(t, map[string]any{"interval": 1}, staticFetcher(responseWithCode("0"), nil, &calls))

	require.NoError(t, node.Start(context.Background(), rec.Send))
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 4*time.Second, 20*time.Millisecond)

	require.NoError(t, node.Close(context.Background()))
	sentAtClose := len(rec.Sent())
	callsAtClose := calls.Load()

	assert.True(t, rec.LastStatus().IsCleared())

	time.Sleep(1500 * time.Millisecond)

	assert.Len(t, rec.Sent(), sentAtClose)
	assert.Equal(t, callsAtClose, calls.Load())
}

func TestTokyoWeatherNode_CloseIsIdempotent(t *testing.T) {
	node, rec := newTestNode(t, nil, staticFetcher(nil, nil, nil))

	require.NoError(t, node.Close(context.Background()))
	require.NoError(t, node.Close(context.Background()))

	assert.ErrorIs(t, node.Start(context.Background(), rec.Send), ErrClosed)
}

func TestTokyoWeatherNode_StartTwice(t *testing.T) {
	node, rec := newTestNode(t, map[string]any{"interval": 60}, staticFetcher(responseWithCode("1"), nil, nil))

	require.NoError(t, node.Start(context.Background(), rec.Send))
	assert.ErrorIs(t, node.Start(context.Background(), rec.Send), ErrAlreadyStarted)
}

func TestTokyoWeatherNode_CloseCancelsInFlightFetch(t *testing.T) {
	started := make(chan struct{})
	fetcher := fetch.FetcherFunc(func(ctx context.Context, _ string, _ time.Duration) ([]byte, error) {
		close(started)
		<-ctx.Done()

		return nil, ctx.Err()
	})

	node, rec := newTestNode(t, map[string]any{"interval": 60}, fetcher)
	require.NoError(t, node.Start(context.Background(), rec.Send))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, node.Close(ctx))
	assert.Empty(t, rec.Sent())
	assert.True(t, rec.LastStatus().IsCleared())
}

func TestTokyoWeatherNode_HTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "35.6895", r.URL.Query().Get("latitude"))
		assert.Equal(t, "Asia/Tokyo", r.URL.Query().Get("timezone"))
		_, _ = w.Write(responseWithCode("61"))
	}))
	defer server.Close()

	node, rec := newTestNode(t, map[string]any{"base_url": server.URL}, fetch.NewHTTPFetcher(server.Client()))

	node.Poll(context.Background(), rec.Send)

	require.Len(t, rec.Sent(), 1)
	assert.Equal(t, "Slight rain", rec.Sent()[0].Payload.(models.WeatherSnapshot).Current.WeatherDescription)
}

func TestDescribeWeatherCode(t *testing.T) {
	assert.Equal(t, "Clear sky", DescribeWeatherCode(0))
	assert.Equal(t, "Thunderstorm", DescribeWeatherCode(95))
	assert.Equal(t, "Unknown (4)", DescribeWeatherCode(4))
}

func TestTokyoWeatherNodeFactory(t *testing.T) {
	factory := NewTokyoWeatherNodeFactory()
	assert.Equal(t, NodeType, factory.ID())

	node, err := factory.Create(context.Background(), "w", map[string]any{"interval": 5}, nodetest.NewRecorder().Dependencies())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, node.(*TokyoWeatherNode).Interval())
}

func TestEvery_KeepsSubSecondPrecision(t *testing.T) {
	start := time.Date(2025, 11, 16, 10, 30, 0, 250*int(time.Millisecond), time.UTC)

	assert.Equal(t, start.Add(300*time.Millisecond), every(300*time.Millisecond).Next(start))
	assert.Equal(t, start.Add(2500*time.Millisecond), every(2500*time.Millisecond).Next(start))
}

func TestTokyoWeatherNode_SubSecondInterval(t *testing.T) {
	var calls atomic.Int32

	node, rec := newTestNode(t, map[string]any{"interval": 0.3}, staticFetcher(responseWithCode("0"), nil, &calls))
	assert.Equal(t, 300*time.Millisecond, node.Interval())

	require.NoError(t, node.Start(context.Background(), rec.Send))

	// One immediate cycle plus ticks at 0.3s, 0.6s and 0.9s.
	assert.Eventually(t, func() bool { return calls.Load() >= 4 }, 1400*time.Millisecond, 20*time.Millisecond)
}

func TestTokyoWeatherNode_CloseTimeoutClearsStatus(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fetcher := fetch.FetcherFunc(func(context.Context, string, time.Duration) ([]byte, error) {
		close(started)
		<-release

		return responseWithCode("0"), nil
	})

	node, rec := newTestNode(t, map[string]any{"interval": 60}, fetcher)
	require.NoError(t, node.Start(context.Background(), rec.Send))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, node.Close(ctx), context.DeadlineExceeded)
	assert.True(t, rec.LastStatus().IsCleared())

	close(release)

	require.NoError(t, node.Close(context.Background()))
	assert.Never(t, func() bool { return len(rec.Sent()) > 0 }, 200*time.Millisecond, 20*time.Millisecond)
	assert.True(t, rec.LastStatus().IsCleared())
}
