package main

import (
	"context"
	"time"

	"clock.raspi/deskclock/forecast"
	"clock.raspi/deskclock/metrics"
)

// info_forecast is the /info line: the last snapshot while it is fresh.
func (a *clockApp) info_forecast(now time.Time) string {
	if !a.fetcher.Fresh(now, a.settings.Forecast.FreshFor) {
		return "Unknown"
	}
	return a.fetcher.Record().String()
}

func (a *clockApp) pollForecast(ctx context.Context, now time.Time) {
	start := time.Now()
	outcome, err := a.fetcher.Poll(ctx, now, a.online)
	switch outcome {
	case forecast.Updated:
		a.recorder.IncForecastFetch(metrics.ResultSuccess)
		a.recorder.ObserveForecastFetchDuration(time.Since(start))
		a.display.SetForecast(a.fetcher.Record().Format(a.settings.Forecast.Template))
	case forecast.Failed:
		a.recorder.IncForecastFetch(metrics.Result(err))
		a.recorder.ObserveForecastFetchDuration(time.Since(start))
	}

	if rec := a.fetcher.Record(); rec.Timestamp > 0 {
		a.recorder.SetForecastAge(now.Sub(time.Unix(rec.Timestamp, 0)))
	} else {
		a.recorder.SetForecastAge(-1)
	}
}
