package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/carlmjohnson/requests"
	"golang.org/x/time/rate"
)

const (
	DefaultEndpoint         = "http://api.open-meteo.com/v1/forecast"
	DefaultUpdateInterval   = 1800 * time.Second
	DefaultMinRetryInterval = 60 * time.Second
	DefaultTimeout          = 10 * time.Second
)

var ErrMalformed = errors.New("forecast: malformed response")

// StatusError reports a response other than 200 OK.
type StatusError struct {
	Code int
	Text string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("forecast: (%d) %s", e.Code, e.Text)
}

// Outcome of one Poll.
type Outcome int

const (
	Skipped Outcome = iota
	Updated
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case Failed:
		return "failed"
	default:
		return "skipped"
	}
}

// State is a read-only view of the fetcher's timers.
type State struct {
	Latitude         float64
	Longitude        float64
	UpdateInterval   time.Duration
	MinRetryInterval time.Duration
	LastAttempt      time.Time
	LastSuccess      time.Time
}

// Fetcher polls the forecast service with two cooldowns: no attempt sooner
// than MinRetryInterval after the previous attempt, and no refetch sooner
// than UpdateInterval after the last success.
type Fetcher struct {
	latitude         float64
	longitude        float64
	updateInterval   time.Duration
	minRetryInterval time.Duration
	endpoint         string
	client           *http.Client
	logger           *slog.Logger

	retry       *rate.Limiter
	record      Record
	lastAttempt time.Time
	lastSuccess time.Time
}

type Option func(*Fetcher)

func WithEndpoint(u string) Option {
	return func(f *Fetcher) { f.endpoint = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

func WithIntervals(update, minRetry time.Duration) Option {
	return func(f *Fetcher) {
		if update > 0 {
			f.updateInterval = update
		}
		if minRetry > 0 {
			f.minRetryInterval = minRetry
		}
	}
}

func NewFetcher(latitude, longitude float64, opts ...Option) *Fetcher {
	f := &Fetcher{
		latitude:         latitude,
		longitude:        longitude,
		updateInterval:   DefaultUpdateInterval,
		minRetryInterval: DefaultMinRetryInterval,
		endpoint:         DefaultEndpoint,
		client:           &http.Client{Timeout: DefaultTimeout},
		logger:           slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	f.retry = f.newLimiter()
	return f
}

func (f *Fetcher) newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(f.minRetryInterval), 1)
}

// Record returns the last good snapshot.
func (f *Fetcher) Record() Record {
	return f.record
}

// Fresh reports whether the last good snapshot is younger than window.
func (f *Fetcher) Fresh(now time.Time, window time.Duration) bool {
	return f.record.Fresh(now, window)
}

func (f *Fetcher) State() State {
	return State{
		Latitude:         f.latitude,
		Longitude:        f.longitude,
		UpdateInterval:   f.updateInterval,
		MinRetryInterval: f.minRetryInterval,
		LastAttempt:      f.lastAttempt,
		LastSuccess:      f.lastSuccess,
	}
}

func (f *Fetcher) needsRefresh(now time.Time) bool {
	return f.lastSuccess.IsZero() || now.Sub(f.lastSuccess) >= f.updateInterval
}

// rewind drops the timers when the wall clock was stepped backwards, so a
// clock correction cannot hold the next fetch off until the old time comes
// round again.
func (f *Fetcher) rewind(now time.Time) {
	if now.Before(f.lastAttempt) {
		f.lastAttempt = time.Time{}
		f.retry = f.newLimiter()
	}
	if now.Before(f.lastSuccess) {
		f.lastSuccess = time.Time{}
	}
}

// Poll is called on every loop tick. It issues at most one request and only
// when the network is up and both cooldowns allow it. On failure the
// previous record is kept.
func (f *Fetcher) Poll(ctx context.Context, now time.Time, online bool) (Outcome, error) {
	if !online {
		return Skipped, nil
	}
	// compare wall clock readings only; the loop's clock can be stepped
	now = now.Round(0)
	f.rewind(now)
	if !f.needsRefresh(now) {
		return Skipped, nil
	}
	if !f.retry.AllowN(now, 1) {
		return Skipped, nil
	}
	f.lastAttempt = now

	f.logger.Debug("Forecast updating")
	rec, err := f.fetch(ctx, now)
	if err != nil {
		f.logger.Warn("Forecast update failed", "error", err)
		return Failed, err
	}
	f.record = rec
	f.lastSuccess = now
	f.logger.Info("Forecast updated", "forecast", rec.String())
	return Updated, nil
}

type currentWeatherResponse struct {
	CurrentWeather *struct {
		Temperature   *float32 `json:"temperature"`
		WindSpeed     *float32 `json:"windspeed"`
		WindDirection *float32 `json:"winddirection"`
		WeatherCode   *int     `json:"weathercode"`
	} `json:"current_weather"`
}

func (f *Fetcher) fetch(ctx context.Context, now time.Time) (Record, error) {
	var (
		body   string
		status int
	)
	err := requests.
		URL(f.endpoint).
		Client(f.client).
		Param("latitude", strconv.FormatFloat(f.latitude, 'f', 4, 64)).
		Param("longitude", strconv.FormatFloat(f.longitude, 'f', 4, 64)).
		Param("current_weather", "true").
		AddValidator(func(res *http.Response) error {
			status = res.StatusCode
			if res.StatusCode != http.StatusOK {
				return errors.New(res.Status)
			}
			return nil
		}).
		ToString(&body).
		Fetch(ctx)
	if status != 0 && status != http.StatusOK {
		return Record{}, &StatusError{Code: status, Text: http.StatusText(status)}
	}
	if err != nil {
		return Record{}, fmt.Errorf("forecast request: %w", err)
	}
	return parseCurrentWeather(body, now)
}

func parseCurrentWeather(body string, now time.Time) (Record, error) {
	var resp currentWeatherResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	cw := resp.CurrentWeather
	if cw == nil {
		return Record{}, fmt.Errorf("%w: no current_weather object", ErrMalformed)
	}
	if cw.Temperature == nil || cw.WindSpeed == nil || cw.WindDirection == nil || cw.WeatherCode == nil {
		return Record{}, fmt.Errorf("%w: incomplete current_weather object", ErrMalformed)
	}
	if *cw.WeatherCode < 0 || *cw.WeatherCode > 255 {
		return Record{}, fmt.Errorf("%w: weather code %d", ErrMalformed, *cw.WeatherCode)
	}
	return Record{
		Timestamp:     now.Unix(),
		Temperature:   *cw.Temperature,
		WindSpeed:     *cw.WindSpeed,
		WindDirection: *cw.WindDirection,
		WeatherCode:   Code(*cw.WeatherCode),
	}, nil
}
