// Package config loads service configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/neomorfeo/gardeniq/internal/domain"
)

// Config holds the application configuration.
type Config struct {
	Port         int           `yaml:"port"`
	DatabasePath string        `yaml:"database_path"`
	LogLevel     string        `yaml:"log_level"`
	TickInterval time.Duration `yaml:"tick_interval"`
	TimeDilation float64       `yaml:"time_dilation"`
	Epoch        time.Time     `yaml:"epoch"`
	InitialBeds  int           `yaml:"initial_beds"`
	Weather      Weather       `yaml:"weather"`
}

// Weather is the synthetic weather profile.
type Weather struct {
	Mean      float64       `yaml:"mean"`
	Amplitude float64       `yaml:"amplitude"`
	Period    time.Duration `yaml:"period"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	w := domain.NewWeather()
	return Config{
		Port:         8080,
		DatabasePath: "gardeniq.db",
		LogLevel:     "info",
		TickInterval: time.Second,
		TimeDilation: 60,
		Epoch:        time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
		InitialBeds:  1,
		Weather: Weather{
			Mean:      w.Mean,
			Amplitude: w.Amplitude,
			Period:    w.Period,
		},
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded when present, then CONFIG_FILE (YAML) if set, then individual
// environment variables.
func Load() (Config, error) {
	// Real environment variables win over .env, and a missing file is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	if v, ok := os.LookupEnv("PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid PORT value: %w", err))
		}
		c.Port = n
	}

	if v, ok := os.LookupEnv("DATABASE_PATH"); ok {
		c.DatabasePath = v
	}

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		c.LogLevel = v
	}

	if v, ok := os.LookupEnv("TICK_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid TICK_INTERVAL value: %w", err))
		}
		c.TickInterval = d
	}

	if v, ok := os.LookupEnv("TIME_DILATION"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid TIME_DILATION value: %w", err))
		}
		c.TimeDilation = f
	}

	if v, ok := os.LookupEnv("EPOCH"); ok {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid EPOCH value: %w", err))
		}
		c.Epoch = t
	}

	if v, ok := os.LookupEnv("INITIAL_BEDS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid INITIAL_BEDS value: %w", err))
		}
		c.InitialBeds = n
	}

	if v, ok := os.LookupEnv("WEATHER_MEAN"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid WEATHER_MEAN value: %w", err))
		}
		c.Weather.Mean = f
	}

	if v, ok := os.LookupEnv("WEATHER_AMPLITUDE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid WEATHER_AMPLITUDE value: %w", err))
		}
		c.Weather.Amplitude = f
	}

	if v, ok := os.LookupEnv("WEATHER_PERIOD"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid WEATHER_PERIOD value: %w", err))
		}
		c.Weather.Period = d
	}

	return errors.Join(errs...)
}

// Validate reports every out-of-range setting.
func (c Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database path must be set"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval %s must be positive", c.TickInterval))
	}
	if c.TimeDilation <= 0 {
		errs = append(errs, fmt.Errorf("time dilation %v must be positive", c.TimeDilation))
	}
	if c.InitialBeds < 0 {
		errs = append(errs, fmt.Errorf("initial beds %d must not be negative", c.InitialBeds))
	}
	if c.Weather.Period < 0 {
		errs = append(errs, fmt.Errorf("weather period %s must not be negative", c.Weather.Period))
	}

	return errors.Join(errs...)
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Forecaster builds the weather model from the configured profile.
func (c Config) Forecaster() domain.Weather {
	return domain.Weather{
		Mean:      c.Weather.Mean,
		Amplitude: c.Weather.Amplitude,
		Period:    c.Weather.Period,
	}
}
