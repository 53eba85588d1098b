// Package config loads the settings of each binary: embedded defaults,
// then an optional YAML file, then .env and process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"homeclimate-go/drivers/sht4x"
	"homeclimate-go/x/strx"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvFiles are the dotenv files read before environment overrides. Missing
// files are skipped.
var EnvFiles = []string{".env"}

type Logging struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

type Plot struct {
	MaxPoints int `yaml:"max_points"`
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Influx struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// Enabled reports whether enough is set to open a client.
func (i Influx) Enabled() bool { return i.URL != "" && i.Bucket != "" }

type Database struct {
	Driver string `yaml:"driver"` // sqlite | postgres | mysql; empty disables
	DSN    string `yaml:"dsn"`
}

// Collector configures the ingestion server.
type Collector struct {
	Listen   string        `yaml:"listen"`
	LogDir   string        `yaml:"log_dir"`
	MIAAfter time.Duration `yaml:"mia_after"`
	// Heartbeat is how often location liveness is re-checked.
	Heartbeat time.Duration `yaml:"heartbeat"`
	Plot      Plot          `yaml:"plot"`
	CORS      CORS          `yaml:"cors"`
	Influx    Influx        `yaml:"influx"`
	Database  Database      `yaml:"database"`
	Logging   Logging       `yaml:"logging"`
}

type I2C struct {
	Device string `yaml:"device"`
}

type SHT4x struct {
	Mode     string `yaml:"mode"`
	CheckCRC bool   `yaml:"check_crc"`
}

type Serial struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// Reporter configures the sensor reporting loop.
type Reporter struct {
	ServerURL      string        `yaml:"server_url"`
	Location       string        `yaml:"location"`
	Transport      string        `yaml:"transport"` // http | serial
	Period         time.Duration `yaml:"period"`
	ReportTimeout  time.Duration `yaml:"report_timeout"`
	ResetGrace     time.Duration `yaml:"reset_grace"`
	MaxUptime      time.Duration `yaml:"max_uptime"`
	WarmupReads    int           `yaml:"warmup_reads"`
	MaxRequestLen  int           `yaml:"max_request_len"`
	RestartCommand string        `yaml:"restart_command"`
	I2C            I2C           `yaml:"i2c"`
	SHT4x          SHT4x         `yaml:"sht4x"`
	Serial         Serial        `yaml:"serial"`
	Logging        Logging       `yaml:"logging"`
}

// Capture configures the legacy serial reader.
type Capture struct {
	Port         string        `yaml:"port"` // empty picks the first port found
	Baud         int           `yaml:"baud"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	LogFile      string        `yaml:"log_file"`
	PersistEvery time.Duration `yaml:"persist_every"`
	History      int           `yaml:"history"`
	Logging      Logging       `yaml:"logging"`
}

// LoadCollector builds the collector configuration. path may be empty.
func LoadCollector(path string) (*Collector, error) {
	var c Collector
	if err := load("collector", path, &c); err != nil {
		return nil, err
	}
	if p := strx.Coalesce(os.Getenv("COLLECTOR_PORT"), os.Getenv("PORT")); p != "" {
		c.Listen = ":" + strings.TrimPrefix(p, ":")
	}
	c.LogDir = strx.Coalesce(os.Getenv("LOG_DIR"), c.LogDir)
	c.Logging.Level = strx.Coalesce(os.Getenv("LOG_LEVEL"), c.Logging.Level)
	c.Influx.URL = strx.Coalesce(os.Getenv("INFLUXDB_URL"), c.Influx.URL)
	c.Influx.Token = strx.Coalesce(os.Getenv("INFLUXDB_TOKEN"), c.Influx.Token)
	c.Influx.Org = strx.Coalesce(os.Getenv("INFLUXDB_ORG"), c.Influx.Org)
	c.Influx.Bucket = strx.Coalesce(os.Getenv("INFLUXDB_BUCKET"), c.Influx.Bucket)
	c.Database.Driver = strx.Coalesce(os.Getenv("DATABASE_DRIVER"), c.Database.Driver)
	c.Database.DSN = strx.Coalesce(os.Getenv("DATABASE_DSN"), c.Database.DSN)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid collector configuration: %w", err)
	}
	return &c, nil
}

func (c *Collector) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if c.LogDir == "" {
		return errors.New("log_dir is required")
	}
	if c.MIAAfter <= 0 {
		return errors.New("mia_after must be positive")
	}
	if c.Heartbeat <= 0 {
		return errors.New("heartbeat must be positive")
	}
	if c.Plot.MaxPoints <= 0 {
		return errors.New("plot.max_points must be positive")
	}
	switch c.Database.Driver {
	case "":
	case "sqlite", "postgres", "mysql":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Influx.URL != "" && c.Influx.Bucket == "" {
		return errors.New("influx.bucket is required when influx.url is set")
	}
	return nil
}

// LoadReporter builds the reporter configuration. path may be empty.
func LoadReporter(path string) (*Reporter, error) {
	var r Reporter
	if err := load("reporter", path, &r); err != nil {
		return nil, err
	}
	r.ServerURL = strx.Coalesce(os.Getenv("SERVER_URL"), r.ServerURL)
	r.Location = strx.Coalesce(os.Getenv("LOCATION"), r.Location)
	r.RestartCommand = strx.Coalesce(os.Getenv("RESTART_COMMAND"), r.RestartCommand)
	r.Logging.Level = strx.Coalesce(os.Getenv("LOG_LEVEL"), r.Logging.Level)
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reporter configuration: %w", err)
	}
	return &r, nil
}

func (r *Reporter) Validate() error {
	if r.Location == "" {
		return errors.New("location is required")
	}
	switch r.Transport {
	case "http":
		u, err := url.Parse(r.ServerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server_url %q is not an absolute URL", r.ServerURL)
		}
	case "serial":
		if r.Serial.Device == "" {
			return errors.New("serial.device is required for the serial transport")
		}
	default:
		return fmt.Errorf("unsupported transport: %s", r.Transport)
	}
	if r.Period <= 0 || r.ReportTimeout <= 0 || r.MaxUptime <= 0 {
		return errors.New("period, report_timeout and max_uptime must be positive")
	}
	if r.ReportTimeout >= r.Period {
		return fmt.Errorf("report_timeout %s must be shorter than period %s", r.ReportTimeout, r.Period)
	}
	if _, err := sht4x.ParseMode(r.SHT4x.Mode); err != nil {
		return fmt.Errorf("sht4x.mode %q: %w", r.SHT4x.Mode, err)
	}
	return nil
}

// DefaultReporter returns the embedded reporter defaults with no file or
// environment applied. Boards without a filesystem start from it.
func DefaultReporter() (*Reporter, error) {
	var r Reporter
	if err := decodeEmbedded("reporter", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadCapture builds the serial capture configuration. path may be empty.
func LoadCapture(path string) (*Capture, error) {
	var c Capture
	if err := load("capture", path, &c); err != nil {
		return nil, err
	}
	c.Port = strx.Coalesce(os.Getenv("SERIAL_PORT"), c.Port)
	c.Logging.Level = strx.Coalesce(os.Getenv("LOG_LEVEL"), c.Logging.Level)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid capture configuration: %w", err)
	}
	return &c, nil
}

func (c *Capture) Validate() error {
	if c.Baud <= 0 {
		return errors.New("baud must be positive")
	}
	if c.LogFile == "" {
		return errors.New("log_file is required")
	}
	if c.PersistEvery <= 0 {
		return errors.New("persist_every must be positive")
	}
	return nil
}

// load fills out from the embedded defaults, the YAML file at path (if
// any) and the dotenv files.
func load(name, path string, out any) error {
	if err := decodeEmbedded(name, out); err != nil {
		return err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	for _, f := range EnvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func decodeEmbedded(name string, out any) error {
	def, ok := EmbeddedConfigLookup(name)
	if !ok {
		return fmt.Errorf("no embedded config for %s", name)
	}
	if err := yaml.Unmarshal(def, out); err != nil {
		return fmt.Errorf("failed to parse embedded %s config: %w", name, err)
	}
	return nil
}
