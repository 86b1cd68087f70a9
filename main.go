package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clock.raspi/deskclock/persist"
	"clock.raspi/deskclock/settings"
	"github.com/alecthomas/kong"
)

const VERSIONMESSAGE string = "deskclock 1.0"

var CLI struct {
	Settings string `short:"s" help:"Boot settings file" default:"/etc/deskclock/deskclock.yaml"`
	EnvFile  string `help:"Secrets file (WIFI_*, WEBUI_*, FORECAST_*)" default:".env"`
	Verbose  bool   `short:"v" help:"Enable debug logging"`
	Headless bool   `help:"Run without GPIO and the OLED panel"`

	Run         struct{} `cmd:"" default:"1" help:"Run the clock"`
	ShowConfig  struct{} `cmd:"" help:"Print the stored configuration and boot settings"`
	ResetConfig struct{} `cmd:"" help:"Overwrite the stored configuration with factory defaults"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("deskclock"),
		kong.Description("OLED desk clock with weather forecast"))

	var level slog.LevelVar
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	s, err := settings.Load(CLI.Settings)
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		os.Exit(1)
	}
	if err := s.LoadEnv(CLI.EnvFile); err != nil {
		slog.Error("Failed to load environment", "error", err)
		os.Exit(1)
	}
	if CLI.Verbose {
		level.Set(slog.LevelDebug)
	} else if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		slog.Warn("Unknown log level, using info", "level", s.LogLevel)
	}

	switch ctx.Command() {
	case "run":
		err = run(s)
	case "show-config":
		err = showConfig(os.Stdout, s, CLI.Headless)
	case "reset-config":
		err = resetConfig(s, CLI.Headless)
	}
	if err != nil {
		slog.Error("Command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}

func openStore(s settings.Settings, headless bool) persist.Store {
	if headless {
		return &persist.MemStore{}
	}
	return persist.NewFileStore(s.StateFile)
}

func run(s settings.Settings) error {
	slog.Info(VERSIONMESSAGE, "headless", CLI.Headless, "listen", s.Listen)

	// シグナルハンドラ
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP, syscall.SIGINT)
	defer stop()

	store := openStore(s, CLI.Headless)
	defaults := persist.Default(s.Secrets.WiFiSSID, s.Secrets.WiFiPassword)
	cfg, _, _ := persist.LoadOrDefaults(store, defaults)

	hw, err := openHardware(s, cfg.Brightness, CLI.Headless)
	if err != nil {
		return err
	}
	defer hw.Close()

	app, err := newClockApp(s, cfg, store, hw, slog.Default(), CLI.Headless)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.Listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "error", err)
		}
	}()

	err = app.run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		slog.Warn("HTTP server shutdown", "error", serr)
	}
	return err
}

func showConfig(w io.Writer, s settings.Settings, headless bool) error {
	cfg, err := persist.Load(openStore(s, headless))
	if err != nil {
		fmt.Fprintf(w, "# stored configuration unusable: %v\n", err)
		cfg = persist.Default(s.Secrets.WiFiSSID, s.Secrets.WiFiPassword)
		fmt.Fprintln(w, "# factory defaults:")
	}
	fmt.Fprintf(w, "brightness:  %d\n", cfg.Brightness)
	fmt.Fprintf(w, "timezone:    %+d (daylight %+d)\n", cfg.Timezone, cfg.Daylight)
	fmt.Fprintf(w, "ntp:         %v %s\n", cfg.NTPEnabled, strings.Join(cfg.TimeServers[:], " "))
	fmt.Fprintf(w, "ssid:        %s\n", cfg.SSID)
	fmt.Fprintf(w, "ip:          %s gw %s mask %s dns %s\n", cfg.IP, cfg.Gateway, cfg.Subnet, cfg.DNS)
	fmt.Fprintf(w, "colors:      %06x\n", cfg.Colors)
	fmt.Fprintln(w, "---")
	out, err := s.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func resetConfig(s settings.Settings, headless bool) error {
	cfg := persist.Default(s.Secrets.WiFiSSID, s.Secrets.WiFiPassword)
	if err := persist.Save(openStore(s, headless), &cfg); err != nil {
		return err
	}
	slog.Info("Configuration reset to defaults", "file", s.StateFile)
	return nil
}
