// Package plot turns a location's log rows into chart series and renders
// them as SVG.
package plot

import (
	"fmt"
	"io"

	"homeclimate-go/services/store"
	"homeclimate-go/x/mathx"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// DefaultMaxPoints is the number of most recent rows kept for a chart.
const DefaultMaxPoints = 100

// YFloor is the smallest upper bound of the y axis.
const YFloor = 100

// Point is one (index, value) pair.
type Point struct {
	X int
	Y float32
}

// Data is what the renderer consumes.
type Data struct {
	Title       string // location name
	Temperature []Point
	Humidity    []Point
	YMax        float32
	Dropped     int // oldest rows cut by truncation
}

// Prepare keeps the newest maxPoints rows (oldest dropped), numbers them
// from 0 and computes the y bound max(100, max temperature). maxPoints <= 0
// means DefaultMaxPoints.
func Prepare(title string, rows []store.Row, maxPoints int) Data {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	d := Data{Title: title, YMax: YFloor}
	if len(rows) > maxPoints {
		d.Dropped = len(rows) - maxPoints
		rows = rows[d.Dropped:]
	}
	d.Temperature = make([]Point, len(rows))
	d.Humidity = make([]Point, len(rows))
	for i, r := range rows {
		d.Temperature[i] = Point{X: i, Y: r.TemperatureF}
		d.Humidity[i] = Point{X: i, Y: r.Humidity}
		d.YMax = mathx.Max(d.YMax, r.TemperatureF)
	}
	return d
}

// Options sizes the rendered image.
type Options struct {
	Width  int // default 1000
	Height int // default 1000
}

func xy(ps []Point) (xs, ys []float64) {
	xs = make([]float64, len(ps))
	ys = make([]float64, len(ps))
	for i, p := range ps {
		xs[i], ys[i] = float64(p.X), float64(p.Y)
	}
	return xs, ys
}

// SVG renders d as a line chart: temperature in red, humidity in green.
func SVG(w io.Writer, d Data, o Options) error {
	if len(d.Temperature) == 0 {
		return fmt.Errorf("plot %q: no points", d.Title)
	}
	if o.Width <= 0 {
		o.Width = 1000
	}
	if o.Height <= 0 {
		o.Height = 1000
	}
	tx, ty := xy(d.Temperature)
	hx, hy := xy(d.Humidity)

	// go-chart rejects a zero-width range; a single point still gets an axis.
	xMax := mathx.Max(float64(len(tx)-1), 1)

	graph := chart.Chart{
		Title:  "Environmental Data for: " + d.Title,
		Width:  o.Width,
		Height: o.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Reading",
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:  "Humidity (%) / Temperature (F)",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(d.YMax)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Temperature",
				XValues: tx,
				YValues: ty,
				Style:   chart.Style{StrokeColor: drawing.ColorRed, StrokeWidth: 4},
			},
			chart.ContinuousSeries{
				Name:    "Humidity",
				XValues: hx,
				YValues: hy,
				Style:   chart.Style{StrokeColor: drawing.ColorGreen, StrokeWidth: 4},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.SVG, w)
}
