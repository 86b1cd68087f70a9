package main

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clock.raspi/deskclock/clocktime"
	"clock.raspi/deskclock/display"
	"clock.raspi/deskclock/metrics"
	"clock.raspi/deskclock/persist"
)

const authRealm = "DESKCLOCK-AUTH-REALM"

// routes is the control surface. Every handler that reads or changes clock
// state does so through a.do.
func (a *clockApp) routes() http.Handler {
	mux := http.NewServeMux()
	auth := a.requireAuth

	mux.HandleFunc("GET /time", a.handleTime)
	mux.HandleFunc("GET /info", a.handleInfo)
	mux.HandleFunc("GET /get-state", a.handleState)
	mux.HandleFunc("GET /status", a.handleState)
	mux.HandleFunc("POST /set-date", auth(a.handleSetDate))
	for _, p := range []string{"/syncronize", "/sync"} {
		mux.HandleFunc("GET "+p, a.handleSync)
		mux.HandleFunc("POST "+p, auth(a.handleSync))
	}
	mux.HandleFunc("POST /set-display", auth(a.handleSetDisplay))
	mux.HandleFunc("POST /set-time-config", auth(a.handleSetTimeConfig))
	mux.HandleFunc("GET /write-config", auth(a.handleWriteConfig))
	mux.HandleFunc("POST /write-config", auth(a.handleWriteConfig))
	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics)
	}
	if a.settings.WebRoot != "" {
		mux.Handle("GET /", noCache(http.FileServer(http.Dir(a.settings.WebRoot))))
	}
	return chain(a.logger.With("component", "http"), mux)
}

func (a *clockApp) authorized(r *http.Request) bool {
	if !a.settings.AuthEnabled() {
		return true
	}
	user := a.settings.Secrets.WebUser
	u, p, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(p), []byte(a.settings.Secrets.WebPassword)) == 1
	return userOK && passOK
}

func (a *clockApp) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.authorized(r) {
			next(w, r)
			return
		}
		a.recorder.IncAuthFailure(r.URL.Path)
		a.logger.Info("Authentication requested", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
		w.Header().Set("WWW-Authenticate", `Basic realm="`+authRealm+`"`)
		http.Error(w, "Authentication failed", http.StatusUnauthorized)
	}
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
}

func writeText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprint(w, msg)
}

// loop runs fn on the clock goroutine. It reports false, after answering
// the client, when the request gave up first.
func (a *clockApp) loop(w http.ResponseWriter, r *http.Request, fn func()) bool {
	if err := a.do(r.Context(), fn); err != nil {
		writeText(w, http.StatusServiceUnavailable, "Clock busy")
		return false
	}
	return true
}

func (a *clockApp) handleTime(w http.ResponseWriter, r *http.Request) {
	var s string
	if a.loop(w, r, func() { s = a.now().String() }) {
		writeText(w, http.StatusOK, s)
	}
}

func (a *clockApp) handleInfo(w http.ResponseWriter, r *http.Request) {
	var date, cast string
	ok := a.loop(w, r, func() {
		date = a.now().String()
		cast = a.info_forecast(a.clock.Now())
	})
	if ok {
		writeText(w, http.StatusOK, fmt.Sprintf("Status: OK\r\nDate: %s\r\nForecast: %s\r\n", date, cast))
	}
}

type forecastState struct {
	Text          string  `json:"text"`
	Temperature   float32 `json:"temperature"`
	WindSpeed     float32 `json:"windspeed"`
	WindDirection float32 `json:"winddirection"`
	WeatherCode   uint8   `json:"weathercode"`
	Updated       string  `json:"updated"`
	Fresh         bool    `json:"fresh"`
}

type clockState struct {
	Date       string         `json:"date"`
	Timezone   int8           `json:"timezone"`
	Daylight   int8           `json:"daylight"`
	NTPEnabled bool           `json:"ntpenabled"`
	NTPServer1 string         `json:"ntpserver1"`
	NTPServer2 string         `json:"ntpserver2"`
	NTPServer3 string         `json:"ntpserver3"`
	Brightness uint8          `json:"brightness"`
	Colors     string         `json:"colors"`
	SSID       string         `json:"ssid"`
	IP         string         `json:"ip"`
	Gateway    string         `json:"gateway"`
	Subnet     string         `json:"subnet"`
	DNS        string         `json:"dns"`
	Online     bool           `json:"online"`
	Mode       string         `json:"mode"`
	LastSync   string         `json:"lastsync,omitempty"`
	Forecast   *forecastState `json:"forecast,omitempty"`
}

func (a *clockApp) state() clockState {
	c := a.config
	st := clockState{
		Date:       a.now().ISO(),
		Timezone:   c.Timezone,
		Daylight:   c.Daylight,
		NTPEnabled: c.NTPEnabled,
		NTPServer1: c.TimeServers[0],
		NTPServer2: c.TimeServers[1],
		NTPServer3: c.TimeServers[2],
		Brightness: a.display.Brightness(),
		Colors:     a.display.ColorScheme(),
		SSID:       c.SSID,
		IP:         c.IP.String(),
		Gateway:    c.Gateway.String(),
		Subnet:     c.Subnet.String(),
		DNS:        c.DNS.String(),
		Online:     a.online,
		Mode:       a.display.Mode().String(),
	}
	if t, _ := a.ntp.LastSync(); !t.IsZero() {
		st.LastSync = t.UTC().Format(time.RFC3339)
	}
	if rec := a.fetcher.Record(); rec.Timestamp > 0 {
		st.Forecast = &forecastState{
			Text:          rec.Format(a.settings.Forecast.Template),
			Temperature:   rec.Temperature,
			WindSpeed:     rec.WindSpeed,
			WindDirection: rec.WindDirection,
			WeatherCode:   uint8(rec.WeatherCode),
			Updated:       time.Unix(rec.Timestamp, 0).UTC().Format(time.RFC3339),
			Fresh:         a.fetcher.Fresh(a.clock.Now(), a.settings.Forecast.FreshFor),
		}
	}
	return st
}

func (a *clockApp) handleState(w http.ResponseWriter, r *http.Request) {
	var st clockState
	if !a.loop(w, r, func() { st = a.state() }) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		a.logger.Warn("Encode state failed", "error", err)
	}
}

func (a *clockApp) handleSetDate(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("date")
	var (
		date clocktime.Time
		err  error
	)
	ok := a.loop(w, r, func() {
		date, err = clocktime.ParseCompactISO(text, a.zone())
		if err == nil {
			err = a.clock.Set(date)
		}
		if err == nil {
			a.lastsec = -1
		}
	})
	if !ok {
		return
	}
	if err != nil {
		a.logger.Warn("Date set FAILED", "date", text, "error", err)
		writeText(w, http.StatusBadRequest, "Date set FAILED")
		return
	}
	a.logger.Info("Date changed", "date", date.String())
	writeText(w, http.StatusOK, "OK")
}

func (a *clockApp) handleSync(w http.ResponseWriter, r *http.Request) {
	if a.loop(w, r, a.ntp.Restart) {
		a.logger.Info("Time sync restarted")
		writeText(w, http.StatusOK, "OK")
	}
}

func (a *clockApp) handleSetDisplay(w http.ResponseWriter, r *http.Request) {
	brightness, colors := r.FormValue("brightness"), r.FormValue("colors")
	var err error
	ok := a.loop(w, r, func() {
		if err = a.display.SetBrightnessAndColorScheme(brightness, colors); err != nil {
			return
		}
		a.config.Brightness = a.display.Brightness()
		a.config.Colors = a.display.Colors()
		a.lastsec = -1
	})
	if !ok {
		return
	}
	switch {
	case errors.Is(err, display.ErrBrightness), errors.Is(err, display.ErrColorScheme):
		a.logger.Warn("Display scheme update failed", "error", err)
		writeText(w, http.StatusBadRequest, "Display scheme update failed")
	case err != nil:
		a.logger.Error("Display scheme update failed", "error", err)
		writeText(w, http.StatusInternalServerError, "Display scheme update failed")
	default:
		a.logger.Info("Display scheme updated", "brightness", brightness, "colors", colors)
		writeText(w, http.StatusOK, "Display scheme updated")
	}
}

// timeConfig is the form sent by the time settings panel.
type timeConfig struct {
	timezone int8
	daylight int8
	enabled  bool
	servers  [3]string
}

func parseTimeConfig(r *http.Request) (timeConfig, error) {
	var tc timeConfig
	tz, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("timezone")), 10, 8)
	if err != nil || tz < -12 || tz > 14 {
		return tc, fmt.Errorf("timezone %q out of range", r.FormValue("timezone"))
	}
	dst, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("daylight")), 10, 8)
	if err != nil || dst < 0 || dst > 2 {
		return tc, fmt.Errorf("daylight %q out of range", r.FormValue("daylight"))
	}
	tc.timezone, tc.daylight = int8(tz), int8(dst)

	switch v := r.FormValue("ntpenabled"); v {
	case "", "off":
		tc.enabled = false
	case "on":
		tc.enabled = true
	default:
		if tc.enabled, err = strconv.ParseBool(v); err != nil {
			return tc, fmt.Errorf("ntpenabled %q: %w", v, err)
		}
	}
	for i := range tc.servers {
		tc.servers[i] = strings.TrimSpace(r.FormValue("ntpserver" + strconv.Itoa(i+1)))
	}
	return tc, nil
}

func (a *clockApp) handleSetTimeConfig(w http.ResponseWriter, r *http.Request) {
	tc, err := parseTimeConfig(r)
	if err != nil {
		a.logger.Warn("Time config update failed", "error", err)
		writeText(w, http.StatusBadRequest, "Time config update failed")
		return
	}
	ok := a.loop(w, r, func() {
		next := a.config
		next.Timezone, next.Daylight = tc.timezone, tc.daylight
		next.NTPEnabled = tc.enabled
		next.TimeServers = tc.servers
		// reject names that would not fit the stored record
		if _, err = next.MarshalBinary(); err != nil {
			return
		}
		a.config = next
		a.ntp.Configure(tc.servers[:])
		a.ntp.SetEnabled(tc.enabled)
		a.lastsec = -1
	})
	if !ok {
		return
	}
	if err != nil {
		a.logger.Warn("Time config update failed", "error", err)
		writeText(w, http.StatusBadRequest, "Time config update failed")
		return
	}
	a.logger.Info("Time config updated", "timezone", tc.timezone, "daylight", tc.daylight, "ntpenabled", tc.enabled)
	writeText(w, http.StatusOK, "OK")
}

func (a *clockApp) handleWriteConfig(w http.ResponseWriter, r *http.Request) {
	var err error
	ok := a.loop(w, r, func() {
		err = persist.Save(a.store, &a.config)
	})
	if !ok {
		return
	}
	a.recorder.IncConfigSave(metrics.Result(err))
	if err != nil {
		a.logger.Error("Configuration save FAILED", "error", err)
		writeText(w, http.StatusBadRequest, "Configuration save FAILED")
		return
	}
	a.logger.Info("Configuration saved")
	writeText(w, http.StatusOK, "OK")
}
