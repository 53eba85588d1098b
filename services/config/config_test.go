package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := EnvFiles
	EnvFiles = []string{filepath.Join(dir, ".env")}
	t.Cleanup(func() { EnvFiles = old })
	for _, k := range []string{
		"COLLECTOR_PORT", "PORT", "LOG_DIR", "LOG_LEVEL",
		"INFLUXDB_URL", "INFLUXDB_TOKEN", "INFLUXDB_ORG", "INFLUXDB_BUCKET",
		"DATABASE_DRIVER", "DATABASE_DSN", "SERVER_URL", "LOCATION",
		"RESTART_COMMAND", "SERIAL_PORT",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestCollectorDefaults(t *testing.T) {
	isolate(t)
	c, err := LoadCollector("")
	if err != nil {
		t.Fatalf("LoadCollector: %v", err)
	}
	if c.Listen != ":8080" || c.LogDir != "log" || c.MIAAfter != 10*time.Minute || c.Plot.MaxPoints != 100 {
		t.Fatalf("defaults = %+v", c)
	}
	if c.Influx.Enabled() || c.Database.Driver != "" {
		t.Fatalf("mirrors should be off by default: %+v %+v", c.Influx, c.Database)
	}
}

func TestCollectorFileAndEnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "collector.yaml")
	yml := "log_dir: /var/lib/climate\nmia_after: 15m\nplot:\n  max_points: 50\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	env := "INFLUXDB_URL=http://influx:8086\nINFLUXDB_BUCKET=climate\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9090")
	// Values loaded from .env are not unset by t.Setenv; clean them up here.
	t.Cleanup(func() {
		os.Unsetenv("INFLUXDB_URL")
		os.Unsetenv("INFLUXDB_BUCKET")
	})
	os.Unsetenv("INFLUXDB_URL")
	os.Unsetenv("INFLUXDB_BUCKET")

	c, err := LoadCollector(path)
	if err != nil {
		t.Fatalf("LoadCollector: %v", err)
	}
	if c.Listen != ":9090" {
		t.Fatalf("Listen = %q", c.Listen)
	}
	if c.LogDir != "/var/lib/climate" || c.MIAAfter != 15*time.Minute || c.Plot.MaxPoints != 50 {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.Plot.Width != 1000 {
		t.Fatalf("unset file keys must keep defaults, width = %d", c.Plot.Width)
	}
	if !c.Influx.Enabled() || c.Influx.Bucket != "climate" {
		t.Fatalf("dotenv not applied: %+v", c.Influx)
	}
}

func TestCollectorValidate(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_DRIVER", "oracle")
	t.Setenv("DATABASE_DSN", "x")
	if _, err := LoadCollector(""); err == nil || !strings.Contains(err.Error(), "unsupported database driver") {
		t.Fatalf("err = %v", err)
	}
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "")
	if _, err := LoadCollector(""); err == nil {
		t.Fatal("sqlite without dsn should fail")
	}
}

func TestMissingConfigFile(t *testing.T) {
	dir := isolate(t)
	if _, err := LoadCollector(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestReporter(t *testing.T) {
	isolate(t)
	if _, err := LoadReporter(""); err == nil || !strings.Contains(err.Error(), "location") {
		t.Fatalf("missing location err = %v", err)
	}
	t.Setenv("LOCATION", "kitchen")
	r, err := LoadReporter("")
	if err != nil {
		t.Fatalf("LoadReporter: %v", err)
	}
	if r.Period != time.Minute || r.ReportTimeout != 10*time.Second || r.MaxUptime != 4*time.Hour || r.WarmupReads != 2 {
		t.Fatalf("defaults = %+v", r)
	}
	if r.SHT4x.Mode != "NoHeatHighPrecision" || r.MaxRequestLen != 128 {
		t.Fatalf("defaults = %+v", r)
	}
}

func TestReporterRejectsBadValues(t *testing.T) {
	dir := isolate(t)
	t.Setenv("LOCATION", "kitchen")
	cases := map[string]string{
		"mode":      "sht4x:\n  mode: Turbo\n",
		"timeout":   "report_timeout: 2m\n",
		"transport": "transport: carrier-pigeon\n",
		"serial":    "transport: serial\n",
		"url":       "server_url: not a url\n",
	}
	for name, yml := range cases {
		path := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadReporter(path); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestCapture(t *testing.T) {
	isolate(t)
	t.Setenv("SERIAL_PORT", "/dev/ttyUSB0")
	c, err := LoadCapture("")
	if err != nil {
		t.Fatalf("LoadCapture: %v", err)
	}
	if c.Port != "/dev/ttyUSB0" || c.Baud != 9600 || c.PersistEvery != time.Minute || c.LogFile != "log/env_log.csv" {
		t.Fatalf("capture = %+v", c)
	}
}

func TestDefaultReporterIgnoresEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("LOCATION", "kitchen")
	r, err := DefaultReporter()
	if err != nil {
		t.Fatalf("DefaultReporter: %v", err)
	}
	if r.Location != "" || r.Transport != "http" || r.Serial.Baud != 9600 {
		t.Fatalf("defaults = %+v", r)
	}
	r.Location = "porch"
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
