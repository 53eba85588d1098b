// Package collector is the ingestion server: it accepts readings over
// HTTP, appends them to per-location logs and serves charts and an index.
package collector

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"homeclimate-go/bus"
	"homeclimate-go/errcode"
	"homeclimate-go/services/plot"
	"homeclimate-go/services/store"
	"homeclimate-go/x/logx"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

var log = logx.New("collector")

// TopicReading prefixes the bus topic of accepted readings:
// reading/<location>.
const TopicReading = "reading"

type Options struct {
	MIAAfter       time.Duration // default 10m
	MaxPoints      int           // default 100
	Plot           plot.Options
	AllowedOrigins []string // default any
}

type Server struct {
	reg  *store.Registry
	conn *bus.Connection // optional
	opts Options
	now  func() time.Time
}

// New builds a Server over reg. conn may be nil; when set, every appended
// reading is published on reading/<location>.
func New(reg *store.Registry, conn *bus.Connection, o Options) *Server {
	if o.MIAAfter <= 0 {
		o.MIAAfter = 10 * time.Minute
	}
	if o.MaxPoints <= 0 {
		o.MaxPoints = plot.DefaultMaxPoints
	}
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"*"}
	}
	return &Server{reg: reg, conn: conn, opts: o, now: time.Now}
}

// Router registers every route.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/reading/{location}/{temperature}/{humidity}", s.handleReading).Methods(http.MethodGet)
	r.HandleFunc("/plot/{location}", s.handlePlot).Methods(http.MethodGet)
	r.HandleFunc("/api/locations", s.handleLocations).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	return r
}

// Handler is Router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	})
	return c.Handler(s.Router())
}

func parseValue(s, what string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, errcode.New(errcode.InvalidReading, what, strconv.Quote(s)+" is not a number")
	}
	return float32(f), nil
}

func (s *Server) handleReading(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	loc, err := store.ParseLocation(vars["location"])
	if err != nil {
		respondWithError(w, apiErrorFrom(err))
		return
	}
	celsius, err := parseValue(vars["temperature"], "temperature")
	if err != nil {
		respondWithError(w, apiErrorFrom(err))
		return
	}
	humidity, err := parseValue(vars["humidity"], "humidity")
	if err != nil {
		respondWithError(w, apiErrorFrom(err))
		return
	}
	rd, err := store.NewReading(celsius, humidity, s.now())
	if err != nil {
		respondWithError(w, apiErrorFrom(err))
		return
	}

	created, err := s.reg.Append(loc, rd)
	if err != nil {
		respondWithError(w, apiErrorFrom(err))
		return
	}
	log.Infof("%s: %s,%s", loc, formatF(rd.TemperatureF), formatF(rd.Humidity))

	if s.conn != nil {
		s.conn.Publish(s.conn.NewMessage(bus.Topic{TopicReading, string(loc)}, store.Accepted{Location: loc, Reading: rd}, false))
	}
	if created {
		w.WriteHeader(http.StatusCreated)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func formatF(v float32) string { return strconv.FormatFloat(float64(v), 'f', -1, 32) }

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	loc, err := store.ParseLocation(mux.Vars(r)["location"])
	if err != nil {
		respondWithError(w, apiErrorFrom(err))
		return
	}
	rows, err := s.reg.Rows(loc)
	if err != nil {
		respondWithError(w, apiErrorFrom(err))
		return
	}
	if len(rows) == 0 {
		respondWithError(w, APIError{Code: errcode.NoData, Message: "no readings for " + string(loc), StatusCode: http.StatusNotFound})
		return
	}
	d := plot.Prepare(string(loc), rows, s.opts.MaxPoints)
	if d.Dropped > 0 {
		log.Debugf("%s: plotting newest %d of %d rows", loc, len(d.Temperature), len(rows))
	}

	var buf bytes.Buffer
	if err := plot.SVG(&buf, d, s.opts.Plot); err != nil {
		log.Errorf("render %s: %v", loc, err)
		respondWithError(w, APIError{Code: errcode.Error, Message: "render failed", StatusCode: http.StatusInternalServerError})
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// LocationStatus is one entry of the index.
type LocationStatus struct {
	Location     store.Location `json:"location"`
	LastModified *time.Time     `json:"last_modified"`
	MIA          bool           `json:"mia"`
}

// Status lists every location with its freshness flag. A location is MIA
// when it has not been written by this process within MIAAfter.
func (s *Server) Status() []LocationStatus {
	now := s.now()
	snap := s.reg.Snapshot()
	out := make([]LocationStatus, len(snap))
	for i, in := range snap {
		out[i] = LocationStatus{
			Location:     in.Location,
			LastModified: in.LastModified,
			MIA:          in.LastModified == nil || now.Sub(*in.LastModified) > s.opts.MIAAfter,
		}
	}
	return out
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
