// Package store owns the collector's per-location CSV logs: the Location
// allow-list, the Reading value, the row format, and the Registry that
// keeps one open append handle per location.
package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"homeclimate-go/errcode"
	"homeclimate-go/x/logx"
)

var log = logx.New("store")

type entry struct {
	f            *os.File
	lastModified time.Time // zero until the first write by this process
}

// Info is a point-in-time view of one registry entry.
type Info struct {
	Location     Location   `json:"location"`
	LastModified *time.Time `json:"last_modified"`
}

// Registry maps locations to their open log files. One mutex guards the
// whole map and every file operation, so writes are serialised across
// all locations.
type Registry struct {
	mu      sync.Mutex
	dir     string
	entries map[Location]*entry
	closed  bool
}

// Open creates dir if needed and registers every *.csv already in it.
func Open(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errcode.Wrap(errcode.IOError, "create log dir", err)
	}
	r := &Registry{dir: dir, entries: map[Location]*entry{}}

	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, errcode.Wrap(errcode.IOError, "scan log dir", err)
	}
	for _, de := range des {
		if de.IsDir() {
			continue
		}
		loc, ok := locationFromFile(de.Name())
		if !ok {
			if filepath.Ext(de.Name()) == ".csv" {
				log.Warnf("ignoring %s: not a valid location name", de.Name())
			}
			continue
		}
		f, err := r.openExisting(loc)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.entries[loc] = &entry{f: f}
		log.Debugf("registered %s", loc)
	}
	log.Infof("log dir %s: %d location(s)", dir, len(r.entries))
	return r, nil
}

// Dir is the log directory.
func (r *Registry) Dir() string { return r.dir }

func (r *Registry) path(loc Location) string {
	return filepath.Join(r.dir, loc.FileName())
}

func (r *Registry) openExisting(loc Location) (*os.File, error) {
	f, err := os.OpenFile(r.path(loc), os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errcode.Wrap(errcode.IOError, "open "+loc.FileName(), err)
	}
	return f, nil
}

// Append writes rd to loc's log, creating the file (with its header) on
// first use. created reports whether the file was created by this call.
func (r *Registry) Append(loc Location, rd Reading) (created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, errcode.New(errcode.IOError, "append", "registry closed")
	}

	e, ok := r.entries[loc]
	if !ok {
		f, err := os.OpenFile(r.path(loc), os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_EXCL, 0o644)
		switch {
		case err == nil:
			created = true
		case errors.Is(err, fs.ErrExist):
			// Appeared on disk after boot.
			if f, err = r.openExisting(loc); err != nil {
				log.Errorf("%v", err)
				return false, err
			}
		default:
			log.Errorf("create %s: %v", loc.FileName(), err)
			return false, errcode.Wrap(errcode.IOError, "create "+loc.FileName(), err)
		}
		e = &entry{f: f}
		r.entries[loc] = e
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if created {
		_ = w.Write(Header)
	}
	_ = w.Write(rd.Record())
	w.Flush()
	if err := w.Error(); err != nil {
		return created, errcode.Wrap(errcode.IOError, "encode row", err)
	}
	if _, err := e.f.Write(buf.Bytes()); err != nil {
		log.Errorf("write %s: %v", loc.FileName(), err)
		return created, errcode.Wrap(errcode.IOError, "write "+loc.FileName(), err)
	}
	e.lastModified = rd.Time
	if created {
		log.Infof("created %s", loc.FileName())
	}
	return created, nil
}

// ReadAll returns the full contents of loc's log. A location that is not
// registered but has a file on disk is opened and registered.
func (r *Registry) ReadAll(loc Location) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errcode.New(errcode.IOError, "read", "registry closed")
	}

	e, ok := r.entries[loc]
	if !ok {
		if _, err := os.Stat(r.path(loc)); errors.Is(err, fs.ErrNotExist) {
			return nil, errcode.New(errcode.NotFound, "read", string(loc))
		}
		f, err := r.openExisting(loc)
		if err != nil {
			return nil, err
		}
		e = &entry{f: f}
		r.entries[loc] = e
	}

	st, err := e.f.Stat()
	if err != nil {
		return nil, errcode.Wrap(errcode.IOError, "stat "+loc.FileName(), err)
	}
	data, err := io.ReadAll(io.NewSectionReader(e.f, 0, st.Size()))
	if err != nil {
		return nil, errcode.Wrap(errcode.IOError, "read "+loc.FileName(), err)
	}
	return data, nil
}

// Rows reads and parses loc's log, logging each skipped row.
func (r *Registry) Rows(loc Location) ([]Row, error) {
	data, err := r.ReadAll(loc)
	if err != nil {
		return nil, err
	}
	rows, skipped, err := ParseRows(bytes.NewReader(data))
	for _, s := range skipped {
		log.Warnf("%s: %v", loc.FileName(), s)
	}
	if err != nil {
		return nil, errcode.Wrap(errcode.IOError, "parse "+loc.FileName(), err)
	}
	return rows, nil
}

// Has reports whether loc is registered.
func (r *Registry) Has(loc Location) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[loc]
	return ok
}

// Snapshot lists every location, sorted by name.
func (r *Registry) Snapshot() []Info {
	r.mu.Lock()
	out := make([]Info, 0, len(r.entries))
	for loc, e := range r.entries {
		in := Info{Location: loc}
		if !e.lastModified.IsZero() {
			t := e.lastModified
			in.LastModified = &t
		}
		out = append(out, in)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

// Close closes every handle. Further calls fail with io_error.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	var errs []error
	for loc, e := range r.entries {
		if err := e.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", loc.FileName(), err))
		}
	}
	return errors.Join(errs...)
}
