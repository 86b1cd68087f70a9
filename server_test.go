package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"clock.raspi/deskclock/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ta *testApp) request(method, target string, form url.Values, auth bool) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if auth {
		req.SetBasicAuth("admin", "secret")
	}
	rec := httptest.NewRecorder()
	ta.routes().ServeHTTP(rec, req)
	return rec
}

func TestTimeEndpoint(t *testing.T) {
	ta := newTestApp(t)
	rec := ta.request(http.MethodGet, "/time", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	// UTC+3 from the default configuration
	assert.Equal(t, "2023-01-02 23:59:59", rec.Body.String())
}

func TestInfoEndpoint(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.request(http.MethodGet, "/info", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Status: OK\r\nDate: 2023-01-02 23:59:59\r\n"))

	require.Eventually(t, func() bool { return ta.forecastShown(t) }, 2*time.Second, 10*time.Millisecond)
	rec = ta.request(http.MethodGet, "/info", nil, false)
	assert.Equal(t, "Status: OK\r\nDate: 2023-01-02 23:59:59\r\nForecast: Weather:Clear sky 21.5'C wind:NW 3.0m/s\r\n", rec.Body.String())
}

func TestInfoForecastGoesStale(t *testing.T) {
	ta := newTestApp(t)
	require.Eventually(t, func() bool { return ta.forecastShown(t) }, 2*time.Second, 10*time.Millisecond)

	var cast string
	ta.onLoop(t, func() { cast = ta.info_forecast(testNow.Add(3599 * time.Second)) })
	assert.NotEqual(t, "Unknown", cast)
	ta.onLoop(t, func() { cast = ta.info_forecast(testNow.Add(3600 * time.Second)) })
	assert.Equal(t, "Unknown", cast)
}

func TestGetState(t *testing.T) {
	ta := newTestApp(t)
	for _, path := range []string{"/get-state", "/status"} {
		rec := ta.request(http.MethodGet, path, nil, false)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var st map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		assert.Equal(t, "20230102T235959Z", st["date"])
		assert.Equal(t, 3.0, st["timezone"])
		assert.Equal(t, 0.0, st["daylight"])
		assert.Equal(t, false, st["ntpenabled"])
		assert.Equal(t, "0.pool.ntp.org", st["ntpserver1"])
		assert.Equal(t, "1.pool.ntp.org", st["ntpserver2"])
		assert.Equal(t, "time.nist.gov", st["ntpserver3"])
		assert.Equal(t, 25.0, st["brightness"])
		assert.Equal(t, "0808220000443333aaff0000001100", st["colors"])
		assert.Equal(t, "home", st["ssid"])
		assert.Equal(t, "192.168.0.83", st["ip"])
		assert.Equal(t, "255.255.255.0", st["subnet"])
		assert.NotContains(t, st, "password")
	}
}

func TestMutationsRequireAuth(t *testing.T) {
	ta := newTestApp(t)
	cases := []struct {
		method, path string
		form         url.Values
	}{
		{http.MethodPost, "/set-date", url.Values{"date": {"20300101T000000Z"}}},
		{http.MethodPost, "/set-display", url.Values{"brightness": {"99"}, "colors": {"000000000000000000000000000000"}}},
		{http.MethodPost, "/set-time-config", url.Values{"timezone": {"1"}, "daylight": {"0"}}},
		{http.MethodPost, "/write-config", nil},
		{http.MethodGet, "/write-config", nil},
		{http.MethodPost, "/syncronize", nil},
		{http.MethodPost, "/sync", nil},
	}
	for _, c := range cases {
		rec := ta.request(c.method, c.path, c.form, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, c.path)
		assert.Equal(t, `Basic realm="DESKCLOCK-AUTH-REALM"`, rec.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "Authentication failed\n", rec.Body.String())
	}

	var (
		now        time.Time
		brightness uint8
		tz         int8
	)
	ta.onLoop(t, func() {
		now = ta.clk.t
		brightness = ta.display.Brightness()
		tz = ta.config.Timezone
	})
	assert.Equal(t, testNow, now)
	assert.Equal(t, uint8(25), brightness)
	assert.Equal(t, int8(3), tz)
	_, err := ta.mem.Read()
	assert.ErrorIs(t, err, persist.ErrNoRecord)

	rec := ta.request(http.MethodGet, "/metrics", nil, false)
	assert.Contains(t, rec.Body.String(), `deskclock_auth_failures_total{path="/set-date"} 1`)
}

func TestWrongPasswordRejected(t *testing.T) {
	ta := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/write-config", nil)
	req.SetBasicAuth("admin", "guess")
	rec := httptest.NewRecorder()
	ta.routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthDisabledWithoutUser(t *testing.T) {
	ta := newTestApp(t)
	ta.onLoop(t, func() { ta.settings.Secrets.WebUser = "" })
	rec := ta.request(http.MethodPost, "/sync", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetDate(t *testing.T) {
	ta := newTestApp(t)
	rec := ta.request(http.MethodPost, "/set-date", url.Values{"date": {"20230102T235959Z"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	// read in the clock's zone, UTC+3
	var now time.Time
	ta.onLoop(t, func() { now = ta.clk.t })
	assert.True(t, time.Date(2023, 1, 2, 20, 59, 59, 0, time.UTC).Equal(now), now)

	rec = ta.request(http.MethodPost, "/set-date", url.Values{"date": {"20240229T120000Z"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ta.request(http.MethodGet, "/time", nil, false)
	assert.Equal(t, "2024-02-29 12:00:00", rec.Body.String())
}

func TestSetDateInvalid(t *testing.T) {
	ta := newTestApp(t)
	for _, date := range []string{"", "2023-01-02", "20230102 235959Z", "20231302T000000Z", "20230230T000000Z", "20230102T235959"} {
		rec := ta.request(http.MethodPost, "/set-date", url.Values{"date": {date}}, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, date)
		assert.Equal(t, "Date set FAILED", rec.Body.String())
	}
	var now time.Time
	ta.onLoop(t, func() { now = ta.clk.t })
	assert.Equal(t, testNow, now)
}

func TestSync(t *testing.T) {
	ta := newTestApp(t)
	for _, path := range []string{"/syncronize", "/sync"} {
		rec := ta.request(http.MethodGet, path, nil, false)
		assert.Equal(t, http.StatusOK, rec.Code)
		rec = ta.request(http.MethodPost, path, nil, true)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestSetDisplayAndWriteConfig(t *testing.T) {
	ta := newTestApp(t)
	form := url.Values{"brightness": {"40"}, "colors": {"0808220000443333AAFE01A6001100"}}
	rec := ta.request(http.MethodPost, "/set-display", form, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Display scheme updated", rec.Body.String())

	var contrast uint8
	ta.onLoop(t, func() { contrast = ta.panel.contrast })
	assert.Equal(t, uint8(40), contrast)

	// nothing is written until asked
	_, err := ta.mem.Read()
	require.ErrorIs(t, err, persist.ErrNoRecord)

	rec = ta.request(http.MethodGet, "/write-config", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	saved, err := persist.Load(ta.mem)
	require.NoError(t, err)
	assert.Equal(t, uint8(40), saved.Brightness)
	assert.Equal(t, [5]uint32{0x080822, 0x000044, 0x3333aa, 0xfe01a6, 0x001100}, saved.Colors)
	assert.Equal(t, "home", saved.SSID)

	var cfg persist.Config
	ta.onLoop(t, func() { cfg = ta.config })
	assert.Equal(t, cfg, saved)
}

func TestSetDisplayInvalid(t *testing.T) {
	ta := newTestApp(t)
	cases := []url.Values{
		{"brightness": {"256"}, "colors": {"0808220000443333aaff0000001100"}},
		{"brightness": {"20"}, "colors": {"0808220000443333aaff00000011"}},
		{"brightness": {"20"}},
	}
	for _, form := range cases {
		rec := ta.request(http.MethodPost, "/set-display", form, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, form.Encode())
		assert.Equal(t, "Display scheme update failed", rec.Body.String())
	}
	var brightness uint8
	ta.onLoop(t, func() { brightness = ta.config.Brightness })
	assert.Equal(t, uint8(25), brightness)
}

func TestSetDisplayPanelFailure(t *testing.T) {
	ta := newTestApp(t)
	ta.onLoop(t, func() { ta.panel.err = errors.New("nack") })

	form := url.Values{"brightness": {"40"}, "colors": {"0808220000443333AAFE01A6001100"}}
	rec := ta.request(http.MethodPost, "/set-display", form, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var (
		cfg    persist.Config
		colors string
	)
	ta.onLoop(t, func() {
		cfg = ta.config
		colors = ta.display.ColorScheme()
	})
	assert.Equal(t, uint8(25), cfg.Brightness)
	assert.Equal(t, uint32(0xff0000), cfg.Colors[3])
	assert.Equal(t, "0808220000443333aaff0000001100", colors)
}

func TestSetTimeConfig(t *testing.T) {
	ta := newTestApp(t)
	form := url.Values{
		"timezone":   {"5"},
		"daylight":   {"1"},
		"ntpenabled": {"off"},
		"ntpserver1": {"ntp.example.org"},
		"ntpserver2": {""},
		"ntpserver3": {"time.example.net"},
	}
	rec := ta.request(http.MethodPost, "/set-time-config", form, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ta.request(http.MethodGet, "/status", nil, false)
	var st map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 5.0, st["timezone"])
	assert.Equal(t, 1.0, st["daylight"])
	assert.Equal(t, false, st["ntpenabled"])
	assert.Equal(t, "ntp.example.org", st["ntpserver1"])
	assert.Equal(t, "", st["ntpserver2"])
	// 20:59:59 UTC at UTC+6, clock untouched
	assert.Equal(t, "20230103T025959Z", st["date"])
	assert.Equal(t, int32(0), ta.ntpAsk.Load())
}

func TestSetTimeConfigEnablesSync(t *testing.T) {
	ta := newTestApp(t)
	form := url.Values{
		"timezone":   {"5"},
		"daylight":   {"1"},
		"ntpenabled": {"on"},
		"ntpserver1": {"ntp.example.org"},
	}
	rec := ta.request(http.MethodPost, "/set-time-config", form, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var enabled bool
	ta.onLoop(t, func() { enabled = ta.ntp.Enabled() })
	assert.True(t, enabled)

	// the fake time server answers an hour ahead
	require.Eventually(t, func() bool { return ta.ntpAsk.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	rec = ta.request(http.MethodGet, "/status", nil, false)
	var st map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, true, st["ntpenabled"])
	assert.Equal(t, "20230103T035959Z", st["date"])
}

func TestSetTimeConfigInvalid(t *testing.T) {
	ta := newTestApp(t)
	cases := []url.Values{
		{"timezone": {"15"}, "daylight": {"0"}},
		{"timezone": {"x"}, "daylight": {"0"}},
		{"timezone": {"3"}, "daylight": {"-1"}},
		{"timezone": {"3"}, "daylight": {"0"}, "ntpenabled": {"maybe"}},
		{"timezone": {"3"}, "daylight": {"0"}, "ntpserver1": {strings.Repeat("a", 40)}},
	}
	for _, form := range cases {
		rec := ta.request(http.MethodPost, "/set-time-config", form, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, form.Encode())
	}
	var cfg persist.Config
	ta.onLoop(t, func() { cfg = ta.config })
	assert.Equal(t, int8(3), cfg.Timezone)
	assert.Equal(t, "0.pool.ntp.org", cfg.TimeServers[0])
}

func TestStaticFiles(t *testing.T) {
	ta := newTestApp(t)
	rec := ta.request(http.MethodGet, "/index.html", nil, false)
	// FileServer redirects /index.html to /
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)

	rec = ta.request(http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "<h1>clock</h1>", rec.Body.String())

	rec = ta.request(http.MethodGet, "/missing.js", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPanicRecovery(t *testing.T) {
	h := chain(slog.New(slog.NewTextHandler(io.Discard, nil)), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
