package forecast

import "math"

var (
	sidesShort = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	sidesLong  = [8]string{"North", "North-East", "East", "South-East", "South", "South-West", "West", "North-West"}
)

// Compass maps a direction in degrees to one of eight compass points,
// clockwise from North.
func Compass(deg float32) (short, long string) {
	d := math.Mod(float64(deg)+22.5, 360)
	if d < 0 {
		d += 360
	}
	i := int(math.Floor(d/45)) % 8
	return sidesShort[i], sidesLong[i]
}
