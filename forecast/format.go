package forecast

import (
	"strconv"
	"strings"
)

// Format renders r through a template in one pass:
//
//	%W  weather description      %w  weather code
//	%t  temperature, C           %d  wind direction, degrees
//	%s  wind speed, km/h         %S  wind speed, m/s
//	%e  compass point (NE)       %E  compass point (North-East)
//	%m  fetch timestamp          %%  a % sign
//
// %D is accepted for %e. Other sequences are copied as they are, and
// substituted text is never scanned again.
func (r Record) Format(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern) + 32)

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' || i+1 == len(pattern) {
			b.WriteByte(c)
			continue
		}
		i++
		switch pattern[i] {
		case 'W':
			b.WriteString(r.WeatherCode.String())
		case 'w':
			b.WriteString(strconv.Itoa(int(r.WeatherCode)))
		case 't':
			b.WriteString(oneDecimal(r.Temperature))
		case 's':
			b.WriteString(oneDecimal(r.WindSpeed))
		case 'S':
			b.WriteString(oneDecimal(r.WindSpeed / 3.6))
		case 'd':
			b.WriteString(oneDecimal(r.WindDirection))
		case 'e', 'D':
			short, _ := Compass(r.WindDirection)
			b.WriteString(short)
		case 'E':
			_, long := Compass(r.WindDirection)
			b.WriteString(long)
		case 'm':
			b.WriteString(strconv.FormatInt(r.Timestamp, 10))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(pattern[i])
		}
	}
	return b.String()
}

func oneDecimal(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 1, 32)
}
