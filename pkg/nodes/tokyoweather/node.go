// Package tokyoweather provides a polling node that emits the current Tokyo weather on a fixed interval.
package tokyoweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dukex/weatherflow/pkg/fetch"
	"github.com/dukex/weatherflow/pkg/models"
	"github.com/dukex/weatherflow/pkg/otelhelper"
	"github.com/dukex/weatherflow/pkg/protocol"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	NodeType         = "tokyo-weather"
	OutputPortResult = "current"
	Topic            = "weather/tokyo/current"
	DefaultInterval  = 10 * time.Second
	DefaultBaseURL   = "https://api.open-meteo.com/v1/forecast"

	City      = "Tokyo"
	Latitude  = 35.6895
	Longitude = 139.6917
	Timezone  = "Asia/Tokyo"

	fetchedAtLayout = "2006-01-02T15:04:05.000Z07:00"
	currentFields   = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,wind_direction_10m"
)

var (
	// ErrInvalidResponse is returned when the API body has no current section.
	ErrInvalidResponse = errors.New("invalid response from Open-Meteo API")

	ErrAlreadyStarted = errors.New("node already started")
	ErrClosed         = errors.New("node closed")
)

// TokyoWeatherNode fetches the current weather once on start and then on every tick.
type TokyoWeatherNode struct {
	id       string
	interval time.Duration
	url      string
	timeout  time.Duration

	fetcher fetch.Fetcher
	status  protocol.StatusReporter
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time

	mu        sync.Mutex
	scheduler *cron.Cron
	cancel    context.CancelFunc
	initial   sync.WaitGroup
	closed    atomic.Bool
}

// NewTokyoWeatherNode creates a new poller. No fetch happens until Start.
func NewTokyoWeatherNode(id string, config map[string]any, deps protocol.Dependencies) (*TokyoWeatherNode, error) {
	deps = deps.WithDefaults()

	interval := DefaultInterval

	if raw, ok := config["interval"]; ok && raw != nil {
		seconds, ok := models.AsNumber(raw)
		if !ok {
			return nil, errors.New("interval must be a number of seconds")
		}

		if seconds > 0 {
			interval = time.Duration(seconds * float64(time.Second))
		}
	}

	baseURL := DefaultBaseURL

	if raw, ok := config["base_url"]; ok {
		value, ok := raw.(string)
		if !ok || value == "" {
			return nil, errors.New("base_url must be a non-empty string")
		}

		baseURL = value
	}

	return &TokyoWeatherNode{
		id:       id,
		interval: interval,
		url:      BuildURL(baseURL),
		timeout:  fetch.DefaultTimeout,
		fetcher:  deps.Fetcher,
		status:   deps.Status,
		logger:   deps.NodeLogger(id, NodeType),
		tracer:   deps.Tracer,
		now:      deps.Now,
	}, nil
}

// BuildURL returns the forecast URL for the fixed Tokyo coordinates.
func BuildURL(baseURL string) string {
	return fmt.Sprintf("%s?latitude=%s&longitude=%s&current=%s&timezone=%s",
		baseURL,
		models.FormatNumber(Latitude),
		models.FormatNumber(Longitude),
		currentFields,
		Timezone,
	)
}

// ID returns the node ID.
func (n *TokyoWeatherNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *TokyoWeatherNode) Type() string {
	return NodeType
}

// Interval returns the polling interval.
func (n *TokyoWeatherNode) Interval() time.Duration {
	return n.interval
}

// URL returns the URL fetched on every cycle.
func (n *TokyoWeatherNode) URL() string {
	return n.url
}

// Start runs one fetch cycle right away and schedules the next ones every interval.
// Cycles never overlap: a tick that fires while a cycle is outstanding is skipped.
func (n *TokyoWeatherNode) Start(ctx context.Context, send protocol.SendFunc) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed.Load() {
		return ErrClosed
	}

	if n.scheduler != nil {
		return ErrAlreadyStarted
	}

	pollCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel

	logger := cronLogger{logger: n.logger}
	chain := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))
	job := chain.Then(cron.FuncJob(func() {
		n.Poll(pollCtx, send)
	}))

	n.scheduler = cron.New(cron.WithLogger(logger))
	n.scheduler.Schedule(every(n.interval), job)

	n.initial.Add(1)

	go func() {
		defer n.initial.Done()
		job.Run()
	}()

	n.scheduler.Start()

	n.logger.InfoContext(ctx, "Weather polling started", "interval", n.interval, "url", n.url)

	return nil
}

// Poll performs a single fetch cycle. Failures are reported and logged, never returned.
func (n *TokyoWeatherNode) Poll(ctx context.Context, send protocol.SendFunc) {
	if n.closed.Load() {
		return
	}

	ctx, span := otelhelper.StartSpan(ctx, n.tracer, "tokyo-weather.poll",
		append(otelhelper.NodeAttributes(n.id, NodeType), attribute.String(otelhelper.FetchURLKey, n.url))...)
	defer span.End()

	n.status.ReportStatus(ctx, n.id, models.StatusPending("Fetching..."))

	body, err := n.fetcher.Fetch(ctx, n.url, n.timeout)
	if n.closed.Load() {
		return
	}

	if err != nil {
		otelhelper.SetError(span, err)
		n.logger.ErrorContext(ctx, "Failed to fetch weather data", "error", err)
		n.status.ReportStatus(ctx, n.id, models.StatusError("Error"))

		return
	}

	snapshot, err := n.parse(body)
	if err != nil {
		otelhelper.SetError(span, err)
		n.logger.ErrorContext(ctx, "Failed to parse weather data", "error", err)
		n.status.ReportStatus(ctx, n.id, models.StatusError("Parse error"))

		return
	}

	send(models.NewMessage(snapshot).WithTopic(Topic))

	n.status.ReportStatus(ctx, n.id, models.StatusOK(fmt.Sprintf("%s°C / %d%%",
		models.FormatNumber(snapshot.Current.Temperature), snapshot.Current.Humidity)))
}

// Close stops the schedule, cancels an in-flight fetch and clears the status.
// It returns once no cycle is running; calling it again is a no-op.
func (n *TokyoWeatherNode) Close(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.closed.CompareAndSwap(false, true) {
		return nil
	}

	if n.cancel != nil {
		n.cancel()
	}

	stopped := make(chan struct{})

	go func() {
		if n.scheduler != nil {
			<-n.scheduler.Stop().Done()
		}

		n.initial.Wait()
		close(stopped)
	}()

	var err error

	select {
	case <-stopped:
	case <-ctx.Done():
		err = fmt.Errorf("waiting for running poll: %w", ctx.Err())
	}

	// A poll still in flight sees closed and returns without reporting.
	n.status.ReportStatus(context.WithoutCancel(ctx), n.id, models.Status{})
	n.logger.InfoContext(ctx, "Weather polling stopped")

	return err
}

// every fires at a fixed delay after the previous activation, keeping sub-second precision.
type every time.Duration

func (d every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(d))
}

type apiResponse struct {
	Current *apiCurrent `json:"current"`
}

type apiCurrent struct {
	Time          string  `json:"time"`
	Temperature   float64 `json:"temperature_2m"`
	Humidity      float64 `json:"relative_humidity_2m"`
	WeatherCode   float64 `json:"weather_code"`
	WindSpeed     float64 `json:"wind_speed_10m"`
	WindDirection float64 `json:"wind_direction_10m"`
}

func (n *TokyoWeatherNode) parse(body []byte) (models.WeatherSnapshot, error) {
	var response apiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("decode response: %w", err)
	}

	if response.Current == nil {
		return models.WeatherSnapshot{}, ErrInvalidResponse
	}

	current := response.Current
	code := int(math.Round(current.WeatherCode))

	return models.WeatherSnapshot{
		Location: models.Location{
			City:      City,
			Latitude:  Latitude,
			Longitude: Longitude,
			Timezone:  Timezone,
		},
		Current: models.CurrentWeather{
			Time:               current.Time,
			Temperature:        current.Temperature,
			Humidity:           int(math.Round(current.Humidity)),
			WeatherCode:        code,
			WeatherDescription: DescribeWeatherCode(code),
			WindSpeed:          current.WindSpeed,
			WindDirection:      int(math.Round(current.WindDirection)),
		},
		FetchedAt: n.now().UTC().Format(fetchedAtLayout),
	}, nil
}

// OutputPorts returns the output ports for the node.
func (n *TokyoWeatherNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortResult),
				NodeID:      n.id,
				Name:        OutputPortResult,
				Description: "Current Tokyo weather snapshot on topic " + Topic,
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"location":  map[string]any{"type": "object"},
						"current":   map[string]any{"type": "object"},
						"fetchedAt": map[string]any{"type": "string", "format": "date-time"},
					},
				},
			},
		},
	}
}

// InputPorts returns no ports; the node is driven by its own schedule.
func (n *TokyoWeatherNode) InputPorts() []models.InputPort {
	return []models.InputPort{}
}

// cronLogger routes scheduler diagnostics to the node logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
