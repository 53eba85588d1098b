package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"homeclimate-go/bus"
	"homeclimate-go/errcode"
	"homeclimate-go/services/store"
	"homeclimate-go/x/logx"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard, logx.Error)
	os.Exit(m.Run())
}

func newServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	reg, err := store.Open(dir)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return New(reg, nil, Options{}), dir
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

var rowRE = regexp.MustCompile(`^\d{2}/\d{2}/\d{4},\d{2}:\d{2}:\d{2} (AM|PM),71\.6,45$`)

func TestReadingCreatesThenAppends(t *testing.T) {
	s, dir := newServer(t)
	h := s.Handler()

	if rec := get(t, h, "/reading/kitchen/22.0/45.0"); rec.Code != http.StatusCreated {
		t.Fatalf("first reading status = %d, want 201", rec.Code)
	}
	data, err := os.ReadFile(filepath.Join(dir, "kitchen.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 || lines[0] != "Date,Time,Temperature,Humidity" || !rowRE.MatchString(lines[1]) {
		t.Fatalf("kitchen.csv = %q", data)
	}

	if rec := get(t, h, "/reading/kitchen/22.0/45.0"); rec.Code != http.StatusOK {
		t.Fatalf("second reading status = %d, want 200", rec.Code)
	}
	data, _ = os.ReadFile(filepath.Join(dir, "kitchen.csv"))
	if n := strings.Count(string(data), "\n"); n != 3 {
		t.Fatalf("kitchen.csv has %d lines, want 3", n)
	}
	if n := strings.Count(string(data), "Date,Time"); n != 1 {
		t.Fatalf("header written %d times", n)
	}
}

func TestReadingRejectsBadInput(t *testing.T) {
	s, dir := newServer(t)
	h := s.Handler()

	cases := []struct {
		path string
		code errcode.Code
	}{
		{"/reading/kitchen/warm/45", errcode.InvalidReading},
		{"/reading/kitchen/22/humid", errcode.InvalidReading},
		{"/reading/..hidden/22/45", errcode.InvalidLocation},
		{"/reading/semi;colon/22/45", errcode.InvalidLocation},
	}
	for _, c := range cases {
		rec := get(t, h, c.path)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", c.path, rec.Code)
		}
		var body APIError
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Code != c.code {
			t.Fatalf("%s: body = %+v, %v", c.path, body, err)
		}
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("rejected requests created files: %v", entries)
	}
}

func TestReadingOpenFailureIs500(t *testing.T) {
	s, dir := newServer(t)
	if err := os.Mkdir(filepath.Join(dir, "blocked.csv"), 0o755); err != nil {
		t.Fatal(err)
	}
	rec := get(t, s.Handler(), "/reading/blocked/20/40")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	// The server keeps serving.
	if rec := get(t, s.Handler(), "/health"); rec.Code != http.StatusOK {
		t.Fatalf("health after failure = %d", rec.Code)
	}
}

func TestConcurrentLocations(t *testing.T) {
	s, _ := newServer(t)
	h := s.Handler()

	const n = 20
	var wg sync.WaitGroup
	for _, loc := range []string{"east", "west"} {
		wg.Add(1)
		go func(loc string) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/reading/%s/%d/%d", loc, i, i), nil))
				if rec.Code != http.StatusOK && rec.Code != http.StatusCreated {
					t.Errorf("%s #%d: status %d", loc, i, rec.Code)
				}
			}
		}(loc)
	}
	wg.Wait()

	for _, loc := range []store.Location{"east", "west"} {
		rows, err := s.reg.Rows(loc)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != n {
			t.Fatalf("%s: %d rows, want %d", loc, len(rows), n)
		}
		for i, r := range rows {
			if r.Humidity != float32(i) {
				t.Fatalf("%s row %d: humidity %v", loc, i, r.Humidity)
			}
		}
	}
}

func TestPlot(t *testing.T) {
	s, dir := newServer(t)
	h := s.Handler()

	if rec := get(t, h, "/plot/nowhere"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown location status = %d, want 404", rec.Code)
	}
	if rec := get(t, h, "/plot/.bad"); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid location status = %d, want 400", rec.Code)
	}

	if err := os.WriteFile(filepath.Join(dir, "empty.csv"), []byte("Date,Time,Temperature,Humidity\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := get(t, h, "/plot/empty")
	var body APIError
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if rec.Code != http.StatusNotFound || body.Code != errcode.NoData {
		t.Fatalf("empty location = %d %+v, want 404 no_data", rec.Code, body)
	}

	for i := 0; i < 3; i++ {
		get(t, h, fmt.Sprintf("/reading/porch/%d/50", 20+i))
	}
	rec = get(t, h, "/plot/porch")
	if rec.Code != http.StatusOK {
		t.Fatalf("plot status = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Fatal("body is not SVG")
	}
}

func TestIndexFlagsMIA(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "attic.csv"), []byte("Date,Time,Temperature,Humidity\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := store.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()
	s := New(reg, nil, Options{MIAAfter: 10 * time.Minute})

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	s.now = func() time.Time { return now }
	get(t, s.Handler(), "/reading/kitchen/21/40")
	get(t, s.Handler(), "/reading/garage/21/40")
	now = now.Add(5 * time.Minute)
	get(t, s.Handler(), "/reading/kitchen/21/40")
	now = now.Add(6 * time.Minute)

	want := map[store.Location]bool{"attic": true, "garage": true, "kitchen": false}
	for _, st := range s.Status() {
		if st.MIA != want[st.Location] {
			t.Fatalf("%s: MIA = %v, want %v", st.Location, st.MIA, want[st.Location])
		}
	}

	rec := get(t, s.Handler(), "/")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("index = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	html := rec.Body.String()
	for _, s := range []string{`href="/plot/attic"`, `href="/plot/kitchen"`, "MIA"} {
		if !strings.Contains(html, s) {
			t.Fatalf("index missing %q:\n%s", s, html)
		}
	}
	if strings.Count(html, "MIA") != 2 {
		t.Fatalf("expected 2 MIA flags:\n%s", html)
	}

	rec = get(t, s.Handler(), "/api/locations")
	var list []LocationStatus
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil || len(list) != 3 || list[0].Location != "attic" {
		t.Fatalf("api/locations = %+v, %v", list, err)
	}
}

func TestPublishesAcceptedReadings(t *testing.T) {
	reg, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()
	b := bus.NewBus(4)
	sub := b.NewConnection("test").Subscribe(bus.Topic{TopicReading, "+"})
	s := New(reg, b.NewConnection("collector"), Options{})

	get(t, s.Handler(), "/reading/kitchen/22/45")
	select {
	case m := <-sub.Channel():
		acc, ok := m.Payload.(store.Accepted)
		if !ok || acc.Location != "kitchen" || acc.Reading.TemperatureF != float32(71.6) {
			t.Fatalf("payload = %#v", m.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no bus message")
	}
}
