// Package persist keeps the clock's user settings in a fixed-layout binary
// record guarded by a CRC-16 checksum and a format version tag.
package persist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
)

const (
	// FormatVersion is stamped into every saved record. Records carrying any
	// other value are discarded on load.
	FormatVersion uint16 = 0x0100

	// RecordSize is the serialized size of Config.
	RecordSize = 172

	ssidSize      = 16
	passwordSize  = 16
	timeSrvSize   = 32
	colorCount    = 5
	timeSrvCount  = 3
	offChecksum   = 0
	offFormat     = 2
	offBrightness = 4
	offTimezone   = 5
	offDaylight   = 6
	offNTP        = 7
	offAddrs      = 8
	offColors     = 24
	offSSID       = 44
	offPassword   = offSSID + ssidSize
	offTimeSrv    = offPassword + passwordSize
)

var (
	ErrShortRecord  = errors.New("persist: record too short")
	ErrChecksum     = errors.New("persist: checksum mismatch")
	ErrVersion      = errors.New("persist: format version mismatch")
	ErrFieldTooLong = errors.New("persist: field too long")
)

// Config is the in-memory form of the persisted record.
type Config struct {
	Checksum      uint16
	FormatVersion uint16
	Brightness    uint8
	Timezone      int8
	Daylight      int8
	NTPEnabled    bool
	IP            netip.Addr
	Gateway       netip.Addr
	Subnet        netip.Addr
	DNS           netip.Addr
	Colors        [colorCount]uint32
	SSID          string
	Password      string
	TimeServers   [timeSrvCount]string
}

// MarshalBinary serializes c into the fixed record layout. The checksum field
// is written as stored in c; Save recomputes it before writing.
func (c *Config) MarshalBinary() ([]byte, error) {
	b := make([]byte, RecordSize)
	le := binary.LittleEndian

	le.PutUint16(b[offChecksum:], c.Checksum)
	le.PutUint16(b[offFormat:], c.FormatVersion)
	b[offBrightness] = c.Brightness
	b[offTimezone] = byte(c.Timezone)
	b[offDaylight] = byte(c.Daylight)
	if c.NTPEnabled {
		b[offNTP] = 1
	}
	for i, a := range []netip.Addr{c.IP, c.Gateway, c.Subnet, c.DNS} {
		if err := putAddr(b[offAddrs+i*4:offAddrs+i*4+4], a); err != nil {
			return nil, err
		}
	}
	for i, v := range c.Colors {
		le.PutUint32(b[offColors+i*4:], v)
	}
	if err := putString(b[offSSID:offSSID+ssidSize], "ssid", c.SSID); err != nil {
		return nil, err
	}
	if err := putString(b[offPassword:offPassword+passwordSize], "password", c.Password); err != nil {
		return nil, err
	}
	for i, s := range c.TimeServers {
		off := offTimeSrv + i*timeSrvSize
		if err := putString(b[off:off+timeSrvSize], fmt.Sprintf("ntp server %d", i+1), s); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// UnmarshalBinary decodes a record without validating checksum or version;
// see Verify.
func (c *Config) UnmarshalBinary(b []byte) error {
	if len(b) < RecordSize {
		return fmt.Errorf("%w: %d bytes", ErrShortRecord, len(b))
	}
	le := binary.LittleEndian

	c.Checksum = le.Uint16(b[offChecksum:])
	c.FormatVersion = le.Uint16(b[offFormat:])
	c.Brightness = b[offBrightness]
	c.Timezone = int8(b[offTimezone])
	c.Daylight = int8(b[offDaylight])
	c.NTPEnabled = b[offNTP] != 0
	addrs := []*netip.Addr{&c.IP, &c.Gateway, &c.Subnet, &c.DNS}
	for i, p := range addrs {
		*p = netip.AddrFrom4([4]byte(b[offAddrs+i*4 : offAddrs+i*4+4]))
	}
	for i := range c.Colors {
		c.Colors[i] = le.Uint32(b[offColors+i*4:])
	}
	c.SSID = getString(b[offSSID : offSSID+ssidSize])
	c.Password = getString(b[offPassword : offPassword+passwordSize])
	for i := range c.TimeServers {
		off := offTimeSrv + i*timeSrvSize
		c.TimeServers[i] = getString(b[off : off+timeSrvSize])
	}
	return nil
}

// Verify checks a raw record: checksum over every byte after the checksum
// field, then the format version.
func Verify(b []byte) error {
	if len(b) < RecordSize {
		return fmt.Errorf("%w: %d bytes", ErrShortRecord, len(b))
	}
	stored := binary.LittleEndian.Uint16(b[offChecksum:])
	if sum := Checksum(b[offFormat:RecordSize]); sum != stored {
		return fmt.Errorf("%w: stored %#04x, computed %#04x", ErrChecksum, stored, sum)
	}
	if v := binary.LittleEndian.Uint16(b[offFormat:]); v != FormatVersion {
		return fmt.Errorf("%w: stored %#04x, want %#04x", ErrVersion, v, FormatVersion)
	}
	return nil
}

// seal stamps the current format version and checksum and returns the bytes
// to write.
func (c *Config) seal() ([]byte, error) {
	c.FormatVersion = FormatVersion
	b, err := c.MarshalBinary()
	if err != nil {
		return nil, err
	}
	c.Checksum = Checksum(b[offFormat:])
	binary.LittleEndian.PutUint16(b[offChecksum:], c.Checksum)
	return b, nil
}

func putAddr(dst []byte, a netip.Addr) error {
	if !a.IsValid() {
		return nil
	}
	if !a.Is4() && !a.Is4In6() {
		return fmt.Errorf("persist: %s is not an IPv4 address", a)
	}
	v := a.As4()
	copy(dst, v[:])
	return nil
}

// putString keeps one byte for the NUL terminator the firmware layout
// requires.
func putString(dst []byte, name, s string) error {
	if len(s) > len(dst)-1 {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFieldTooLong, name, len(s), len(dst)-1)
	}
	copy(dst, s)
	return nil
}

func getString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
