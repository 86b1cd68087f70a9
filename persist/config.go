package persist

import (
	"fmt"
	"log/slog"
	"net/netip"
)

// Default colour scheme: ticks, hours (night), hours (day), minutes, seconds.
var defaultColors = [colorCount]uint32{0x080822, 0x000044, 0x3333AA, 0xFF0000, 0x001100}

// Default returns the factory settings. The Wi-Fi credentials come from the
// deployment secrets.
func Default(ssid, password string) Config {
	return Config{
		FormatVersion: FormatVersion,
		Brightness:    25,
		Timezone:      3,
		Daylight:      0,
		NTPEnabled:    true,
		IP:            netip.AddrFrom4([4]byte{192, 168, 0, 83}),
		Gateway:       netip.AddrFrom4([4]byte{192, 168, 0, 1}),
		Subnet:        netip.AddrFrom4([4]byte{255, 255, 255, 0}),
		DNS:           netip.AddrFrom4([4]byte{192, 168, 0, 1}),
		Colors:        defaultColors,
		SSID:          ssid,
		Password:      password,
		TimeServers:   [timeSrvCount]string{"0.pool.ntp.org", "1.pool.ntp.org", "time.nist.gov"},
	}
}

// Load reads and validates the stored record.
func Load(store Store) (Config, error) {
	var c Config
	b, err := store.Read()
	if err != nil {
		return c, fmt.Errorf("read record: %w", err)
	}
	if err := Verify(b); err != nil {
		return c, err
	}
	if err := c.UnmarshalBinary(b); err != nil {
		return c, err
	}
	return c, nil
}

// LoadOrDefaults returns the stored configuration, or defaults when the
// record cannot be read, fails its checksum or carries another format
// version. usedDefaults reports the fallback and err tells why.
func LoadOrDefaults(store Store, defaults Config) (c Config, usedDefaults bool, err error) {
	c, err = Load(store)
	if err == nil {
		slog.Info("Configuration loaded")
		return c, false, nil
	}
	slog.Warn("Configuration load failed, using defaults", "error", err)
	return defaults, true, err
}

// Save stamps the format version and checksum into c and writes the whole
// record.
func Save(store Store, c *Config) error {
	b, err := c.seal()
	if err != nil {
		return err
	}
	if err := store.Write(b); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
