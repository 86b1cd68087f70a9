package forecast

import (
	"errors"
	"fmt"
)

var ErrUnknownCode = errors.New("forecast: unknown weather code")

// Code is a WMO weather interpretation code (0-99).
type Code uint8

var descriptions = map[Code]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Slight or moderate thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// Describe returns the text for c, or ErrUnknownCode.
func (c Code) Describe() (string, error) {
	if d, ok := descriptions[c]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownCode, c)
}

// String never returns an empty text: codes outside the table render as
// Unknown(n).
func (c Code) String() string {
	if d, ok := descriptions[c]; ok {
		return d
	}
	return fmt.Sprintf("Unknown(%d)", c)
}
