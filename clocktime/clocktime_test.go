package clocktime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = Zone(3, 0)

func TestParseCompactISO(t *testing.T) {
	got, err := ParseCompactISO("20230102T235959Z", msk)
	require.NoError(t, err)
	require.True(t, got.Valid())

	st := got.Std()
	assert.Equal(t, 2023, st.Year())
	assert.Equal(t, time.January, st.Month())
	assert.Equal(t, 2, st.Day())
	assert.Equal(t, 23, st.Hour())
	assert.Equal(t, 59, st.Minute())
	assert.Equal(t, 59, st.Second())
	assert.Equal(t, "20230102T235959Z", got.ISO())
}

func TestParseCompactISORejects(t *testing.T) {
	for _, in := range []string{
		"",
		"20230102T23595Z",
		"20230102T235959",
		"20230102X235959Z",
		"20230102T235959X",
		"20230102T235959ZZ",
		"2023-102T235959Z",
		"20231302T235959Z",
		"20230231T120000Z",
		"20230102T245959Z",
	} {
		got, err := ParseCompactISO(in, msk)
		assert.ErrorIs(t, err, ErrNotATime, in)
		assert.False(t, got.Valid(), in)
		assert.Equal(t, NotATime, got, in)
	}
}

func TestFromCalendar(t *testing.T) {
	tm := FromCalendar(time.UTC, 2000, 1, 1, 0, 0, 0)
	assert.Equal(t, int64(946684800), tm.Seconds())

	local := FromCalendar(msk, 2000, 1, 1, 3, 0, 0)
	assert.Equal(t, tm.Seconds(), local.Seconds())
}

func TestFormat(t *testing.T) {
	tm := FromCalendar(msk, 2001, 8, 23, 14, 55, 2)

	assert.Equal(t, "2001-08-23 14:55:02", tm.String())
	assert.Equal(t, "14 55", tm.Format("%H %M"))
	assert.Equal(t, "23 Aug 01", tm.Format("%d %b %y"))
	assert.Equal(t, "2001-08-23", tm.DateString())
	assert.Equal(t, "14:55:02", tm.TimeString())
	assert.Equal(t, "100%", tm.Format("100%%"))

	utc := tm.In(time.UTC)
	assert.Equal(t, "11:55:02", utc.TimeString())
}

func TestFormatLimit(t *testing.T) {
	tm := FromCalendar(msk, 2001, 8, 23, 14, 55, 2)

	s, err := tm.FormatLimit("%Y-%m-%d", 16)
	require.NoError(t, err)
	assert.Equal(t, "2001-08-23", s)

	s, err = tm.FormatLimit("%Y-%m-%d %H:%M:%S", 16)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Equal(t, "2001-08-23 14:55", s)

	assert.Equal(t, "2001-08-23 14:55:02", tm.Format("%Y-%m-%d %H:%M:%S"))
}

func TestValidity(t *testing.T) {
	assert.False(t, NotATime.Valid())
	assert.True(t, Unix(0, time.UTC).Valid())
	assert.ErrorIs(t, NotATime.SetSystemClock(), ErrNotATime)
}

func TestZone(t *testing.T) {
	_, off := time.Unix(0, 0).In(Zone(3, 1)).Zone()
	assert.Equal(t, 4*3600, off)
	_, off = time.Unix(0, 0).In(Zone(-5, 0)).Zone()
	assert.Equal(t, -5*3600, off)
}
