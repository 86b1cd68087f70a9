package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"clock.raspi/deskclock/clocktime"
	"clock.raspi/deskclock/display"
	"clock.raspi/deskclock/forecast"
	"clock.raspi/deskclock/metrics"
	"clock.raspi/deskclock/ntpsync"
	"clock.raspi/deskclock/persist"
	"clock.raspi/deskclock/rotaryencoder"
	"clock.raspi/deskclock/settings"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const loopInterval = 10 * time.Millisecond

// clockApp owns every piece of mutable state. Only the goroutine in run
// touches it; HTTP handlers go through do.
type clockApp struct {
	settings settings.Settings
	logger   *slog.Logger
	store    persist.Store
	config   persist.Config
	hw       *hardware
	display  *display.Display
	fetcher  *forecast.Fetcher
	ntp      *ntpsync.Service
	clock    wallClock
	link     link
	recorder metrics.Recorder
	metrics  http.Handler

	calls   chan func()
	buttons chan ButtonCode

	online  bool
	lastsec int64
}

func newClockApp(s settings.Settings, cfg persist.Config, store persist.Store, hw *hardware, logger *slog.Logger, headless bool) (*clockApp, error) {
	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &clockApp{
		settings: s,
		logger:   logger,
		store:    store,
		config:   cfg,
		hw:       hw,
		display:  display.New(hw.panel),
		clock:    systemClock{},
		link:     netLink{name: s.Interface},
		recorder: metrics.NewPrometheusRecorder(reg),
		metrics:  metrics.HTTPHandler(reg),
	}
	if headless {
		a.clock = &softClock{}
		a.link = alwaysUp{}
	}
	a.setup()
	if err := a.display.Initialize(cfg.Brightness, cfg.Colors); err != nil {
		return nil, err
	}
	return a, nil
}

// setup builds the services that hang off the settings. The caller fills in
// hw, clock, link and recorder first.
func (a *clockApp) setup() {
	a.calls = make(chan func())
	a.buttons = make(chan ButtonCode)
	a.lastsec = -1

	fs := a.settings.Forecast
	a.fetcher = forecast.NewFetcher(fs.Latitude, fs.Longitude,
		forecast.WithEndpoint(fs.Endpoint),
		forecast.WithIntervals(fs.UpdateInterval, fs.MinRetryInterval),
		forecast.WithHTTPClient(&http.Client{Timeout: fs.Timeout}),
		forecast.WithLogger(a.logger.With("component", "forecast")))

	a.ntp = ntpsync.New(func(t time.Time) error { return a.clock.Set(clocktime.FromTime(t)) },
		ntpsync.WithIntervals(a.settings.NTP.SyncInterval, a.settings.NTP.RetryInterval),
		ntpsync.WithLogger(a.logger.With("component", "ntp")))
	a.ntp.Configure(a.config.TimeServers[:])
	a.ntp.SetEnabled(a.config.NTPEnabled)
}

func (a *clockApp) zone() *time.Location {
	return clocktime.Zone(a.config.Timezone, a.config.Daylight)
}

func (a *clockApp) now() clocktime.Time {
	return clocktime.FromTime(a.clock.Now()).In(a.zone())
}

// do runs fn on the loop goroutine and waits for it to finish.
func (a *clockApp) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case a.calls <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *clockApp) run(ctx context.Context) error {
	if a.hw.button != nil {
		go btninput(ctx, a.hw.button, a.buttons)
	}
	a.pollLink()
	for {
		select {
		default:
			time.Sleep(loopInterval)
			a.tick(ctx)

		case fn := <-a.calls:
			fn()

		case code := <-a.buttons:
			a.button(code)

		case <-ctx.Done():
			a.shutdown()
			return nil
		}
	}
}

func (a *clockApp) tick(ctx context.Context) {
	switch a.hw.knob.Poll() {
	case rotaryencoder.Forward:
		a.incBrightness()
	case rotaryencoder.Backward:
		a.decBrightness()
	}

	now := a.clock.Now().Round(0)
	sec := now.Unix()
	if sec == a.lastsec {
		return
	}
	a.lastsec = sec
	a.pollLink()

	if err := a.display.Update(a.now()); err != nil {
		a.logger.Debug("Display update failed", "error", err)
	}
	a.pollForecast(ctx, now)
	a.pollTimeSync(now)
}

func (a *clockApp) pollTimeSync(now time.Time) {
	if !a.online {
		return
	}
	stepped, err := a.ntp.Poll(now)
	switch {
	case err != nil:
		a.recorder.IncTimeSync(metrics.ResultFailure)
		a.logger.Warn("Time sync failed", "error", err)
	case stepped:
		a.recorder.IncTimeSync(metrics.ResultSuccess)
		a.lastsec = -1
	}
}

func (a *clockApp) shutdown() {
	a.logger.Info("Shutting down")
	a.hw.led.Low()
}
