// Package settings holds the boot-time settings of the clock: a YAML file
// for the host wiring and a .env file for the secrets.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	Listen    string `yaml:"listen"`
	WebRoot   string `yaml:"web_root"`
	StateFile string `yaml:"state_file"`
	Interface string `yaml:"interface"`
	LogLevel  string `yaml:"log_level"`

	Forecast ForecastSettings `yaml:"forecast"`
	Panel    PanelSettings    `yaml:"panel"`
	GPIO     GPIOSettings     `yaml:"gpio"`
	NTP      NTPSettings      `yaml:"ntp"`

	Secrets Secrets `yaml:"-"`
}

type ForecastSettings struct {
	Endpoint         string        `yaml:"endpoint"`
	Latitude         float64       `yaml:"latitude"`
	Longitude        float64       `yaml:"longitude"`
	UpdateInterval   time.Duration `yaml:"update_interval"`
	MinRetryInterval time.Duration `yaml:"min_retry_interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FreshFor         time.Duration `yaml:"fresh_for"`
	Template         string        `yaml:"template"`
}

type PanelSettings struct {
	Bus     int `yaml:"i2c_bus"`
	Address int `yaml:"i2c_address"`
}

// GPIOSettings are BCM pin numbers.
type GPIOSettings struct {
	LED      int `yaml:"led"`
	EncoderA int `yaml:"encoder_a"`
	EncoderB int `yaml:"encoder_b"`
	Button   int `yaml:"button"`
}

type NTPSettings struct {
	SyncInterval  time.Duration `yaml:"sync_interval"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// Secrets come from the environment, never from the YAML file.
type Secrets struct {
	WiFiSSID     string
	WiFiPassword string
	WebUser      string
	WebPassword  string
}

func Default() Settings {
	return Settings{
		Listen:    ":80",
		WebRoot:   "/usr/local/share/deskclock/www",
		StateFile: "/var/lib/deskclock/config.bin",
		Interface: "wlan0",
		LogLevel:  "info",
		Forecast: ForecastSettings{
			Endpoint:         "http://api.open-meteo.com/v1/forecast",
			Latitude:         55.75,
			Longitude:        37.62,
			UpdateInterval:   600 * time.Second,
			MinRetryInterval: 60 * time.Second,
			Timeout:          10 * time.Second,
			FreshFor:         3600 * time.Second,
			Template:         "Weather:%W %t'C wind:%e %Sm/s",
		},
		Panel: PanelSettings{Bus: 1, Address: 0x3c},
		GPIO: GPIOSettings{
			LED:      23,
			EncoderA: 17,
			EncoderB: 27,
			Button:   22,
		},
		NTP: NTPSettings{
			SyncInterval:  time.Hour,
			RetryInterval: 60 * time.Second,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// LoadEnv loads envFile (when it exists) into the process environment and
// picks up the secrets. Variables already set win over the file.
func (s *Settings) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	s.Secrets.WiFiSSID = os.Getenv("WIFI_SSID")
	s.Secrets.WiFiPassword = os.Getenv("WIFI_PASSWORD")
	s.Secrets.WebUser = os.Getenv("WEBUI_USER")
	s.Secrets.WebPassword = os.Getenv("WEBUI_PASSWORD")

	var err error
	if v := os.Getenv("FORECAST_LATITUDE"); v != "" {
		if s.Forecast.Latitude, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("FORECAST_LATITUDE: %w", err)
		}
	}
	if v := os.Getenv("FORECAST_LONGITUDE"); v != "" {
		if s.Forecast.Longitude, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("FORECAST_LONGITUDE: %w", err)
		}
	}
	return s.Validate()
}

func (s Settings) Validate() error {
	switch {
	case s.Forecast.Latitude < -90 || s.Forecast.Latitude > 90:
		return fmt.Errorf("forecast latitude %v out of range", s.Forecast.Latitude)
	case s.Forecast.Longitude < -180 || s.Forecast.Longitude > 180:
		return fmt.Errorf("forecast longitude %v out of range", s.Forecast.Longitude)
	case s.Forecast.UpdateInterval <= 0 || s.Forecast.MinRetryInterval <= 0:
		return errors.New("forecast intervals must be positive")
	case s.Panel.Address <= 0 || s.Panel.Address > 0x7f:
		return fmt.Errorf("i2c address %#x out of range", s.Panel.Address)
	case s.StateFile == "":
		return errors.New("state_file must be set")
	}
	return nil
}

// AuthEnabled reports whether the control surface asks for credentials.
func (s Settings) AuthEnabled() bool {
	return s.Secrets.WebUser != ""
}

// Marshal renders the settings as YAML, secrets left out.
func (s Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
