package config

// -----------------------------------------------------------------------------
// Embedded defaults, one YAML document per binary. A config file and the
// environment are layered on top of these.
// -----------------------------------------------------------------------------

const cfgCollector = `
listen: ":8080"
log_dir: log
mia_after: 10m
heartbeat: 1m
plot:
  max_points: 100
  width: 1000
  height: 1000
cors:
  allowed_origins: ["*"]
influx:
  url: ""
  token: ""
  org: ""
  bucket: ""
database:
  driver: ""
  dsn: ""
logging:
  level: info
  file: ""
  console: true
`

const cfgReporter = `
server_url: "http://localhost:8080"
location: ""
transport: http
period: 60s
report_timeout: 10s
reset_grace: 1s
max_uptime: 4h
warmup_reads: 2
max_request_len: 128
restart_command: ""
i2c:
  device: /dev/i2c-1
sht4x:
  mode: NoHeatHighPrecision
  check_crc: false
serial:
  device: ""
  baud: 9600
logging:
  level: info
  file: ""
  console: true
`

const cfgCapture = `
port: ""
baud: 9600
read_timeout: 5s
log_file: log/env_log.csv
persist_every: 60s
history: 60
logging:
  level: info
  file: ""
  console: true
`

var embeddedConfigs = map[string][]byte{
	"collector": []byte(cfgCollector),
	"reporter":  []byte(cfgReporter),
	"capture":   []byte(cfgCapture),
}

// EmbeddedConfigLookup allows overriding how defaults are resolved.
var EmbeddedConfigLookup = func(name string) ([]byte, bool) {
	b, ok := embeddedConfigs[name]
	return b, ok
}
