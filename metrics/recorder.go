// Package metrics exposes the clock's health counters. Components take a
// Recorder backed by a Prometheus registry.
package metrics

import "time"

type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
)

func Result(err error) ResultLabel {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

type Recorder interface {
	IncForecastFetch(result ResultLabel)
	ObserveForecastFetchDuration(d time.Duration)
	SetForecastAge(d time.Duration)
	IncTimeSync(result ResultLabel)
	IncConfigSave(result ResultLabel)
	IncAuthFailure(path string)
	SetLinkUp(up bool)
}
