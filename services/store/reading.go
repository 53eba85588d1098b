package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"homeclimate-go/errcode"
	"homeclimate-go/x/mathx"
)

// CSV layout of a location log.
const (
	DateLayout = "01/02/2006"
	TimeLayout = "03:04:05 PM"
	// legacyLayout is the single datetime column of older 3-column logs.
	legacyLayout = "1/2/2006 3:04:05 PM"
)

// Header is written once, when a log file is created.
var Header = []string{"Date", "Time", "Temperature", "Humidity"}

// Reading is an accepted measurement: Fahrenheit, clamped humidity and
// the local time it was received.
type Reading struct {
	TemperatureF float32   `json:"temperature_f"`
	Humidity     float32   `json:"humidity"`
	Time         time.Time `json:"time"`
}

// CelsiusToFahrenheit is F = C*1.8 + 32 in float32.
func CelsiusToFahrenheit(c float32) float32 {
	return float32(c*1.8) + 32
}

// NewReading converts a wire value pair into a Reading.
func NewReading(celsius, humidity float32, at time.Time) (Reading, error) {
	if !finite(celsius) || !finite(humidity) {
		return Reading{}, errcode.New(errcode.InvalidReading, "reading", "non-finite value")
	}
	return Reading{
		TemperatureF: CelsiusToFahrenheit(celsius),
		Humidity:     mathx.Clamp(humidity, 0, 100),
		Time:         at,
	}, nil
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// Record renders r as one CSV record: date, time, °F, %RH.
func (r Reading) Record() []string {
	return []string{
		r.Time.Format(DateLayout),
		r.Time.Format(TimeLayout),
		formatFloat(r.TemperatureF),
		formatFloat(r.Humidity),
	}
}

// Row is one parsed log row. Index is the row's position among the valid
// rows of its file, starting at 0.
type Row struct {
	Index        int
	Time         time.Time // zero when the date columns did not parse
	TemperatureF float32
	Humidity     float32
}

// ErrMalformedRow marks a row that ParseRows skipped.
var ErrMalformedRow = errors.New("malformed row")

// ParseRows reads a location log. The header is skipped; rows that fail
// to parse are skipped and reported in skipped (line number and reason)
// without failing the whole read.
func ParseRows(r io.Reader) (rows []Row, skipped []error, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	line := 0
	for {
		rec, rerr := cr.Read()
		if rerr == io.EOF {
			break
		}
		line++
		if rerr != nil {
			var pe *csv.ParseError
			if errors.As(rerr, &pe) {
				skipped = append(skipped, fmt.Errorf("line %d: %w: %v", line, ErrMalformedRow, pe.Err))
				continue
			}
			return rows, skipped, rerr
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		row, perr := parseRecord(rec)
		if perr != nil {
			skipped = append(skipped, fmt.Errorf("line %d: %w: %v", line, ErrMalformedRow, perr))
			continue
		}
		row.Index = len(rows)
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func isHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), Header[0])
}

func parseRecord(rec []string) (Row, error) {
	var row Row
	var tcol int
	switch len(rec) {
	case 4:
		row.Time, _ = time.ParseInLocation(DateLayout+" "+TimeLayout, rec[0]+" "+rec[1], time.Local)
		tcol = 2
	case 3:
		row.Time, _ = time.ParseInLocation(legacyLayout, rec[0], time.Local)
		tcol = 1
	default:
		return row, fmt.Errorf("%d columns", len(rec))
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(rec[tcol]), 32)
	if err != nil {
		return row, fmt.Errorf("temperature %q", rec[tcol])
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(rec[tcol+1]), 32)
	if err != nil {
		return row, fmt.Errorf("humidity %q", rec[tcol+1])
	}
	row.TemperatureF, row.Humidity = float32(t), float32(h)
	if !finite(row.TemperatureF) || !finite(row.Humidity) {
		return row, errors.New("non-finite value")
	}
	return row, nil
}

// Accepted pairs an appended reading with its location. The collector
// publishes one per successful append.
type Accepted struct {
	Location Location `json:"location"`
	Reading  Reading  `json:"reading"`
}
