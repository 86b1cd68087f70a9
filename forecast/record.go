// Package forecast holds the last fetched weather snapshot, renders it
// through a small percent-token template and keeps it fresh by polling the
// open-meteo API.
package forecast

import "time"

// DefaultTemplate is the line shown on the display and in /info.
const DefaultTemplate = "Weather:%W %t'C wind:%e %Sm/s"

// Record is a current-weather snapshot. A zero Timestamp means nothing has
// been fetched yet.
type Record struct {
	Timestamp     int64
	Temperature   float32 // Celsius
	WindSpeed     float32 // km/h
	WindDirection float32 // degrees
	WeatherCode   Code
}

// Fresh reports whether r was fetched less than window ago.
func (r Record) Fresh(now time.Time, window time.Duration) bool {
	return r.Timestamp > 0 && now.Unix()-r.Timestamp < int64(window/time.Second)
}

func (r Record) String() string {
	return r.Format(DefaultTemplate)
}
