package mirror

import (
	"context"
	"strconv"

	"homeclimate-go/services/store"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// Measurement is the InfluxDB measurement name for readings.
const Measurement = "climate"

type Influx struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

func NewInflux(url, token, org, bucket string) *Influx {
	client := influxdb2.NewClient(url, token)
	return &Influx{client: client, write: client.WriteAPIBlocking(org, bucket)}
}

func (i *Influx) Name() string { return "influx" }

// widen keeps the shortest decimal form of a float32 ("71.6", not
// "71.5999984741211").
func widen(v float32) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
	return f
}

func (i *Influx) Write(ctx context.Context, a store.Accepted) error {
	p := influxdb2.NewPoint(
		Measurement,
		map[string]string{"location": string(a.Location)},
		map[string]interface{}{
			"temperature_f": widen(a.Reading.TemperatureF),
			"humidity":      widen(a.Reading.Humidity),
		},
		a.Reading.Time,
	)
	return i.write.WritePoint(ctx, p)
}

func (i *Influx) Close() error {
	i.client.Close()
	return nil
}
