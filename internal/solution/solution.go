// Package solution exposes the result of a solve as a tabular view, a
// structured view and a JSON file on disk.
package solution

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"routeframe/internal/engine"
)

// ErrContractViolation reports a record set the engine should never produce.
var ErrContractViolation = errors.New("solution: engine contract violation")

// ParseError reports canonical text that is not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "solution: parse canonical json: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// Raw is the engine side of a completed solve.
type Raw interface {
	Records() []engine.Record
	JSON() ([]byte, error)
}

// Solution derives read-only views over a Raw result.
type Solution struct {
	raw Raw
}

func New(raw Raw) *Solution {
	return &Solution{raw: raw}
}

// Optional integer columns, in output order.
var optionalColumns = []string{"longitude", "latitude", "id"}

// Routes returns one row per step in record order. location_index,
// longitude, latitude and id are nullable. location_index is always present;
// any other of them whose every cell is the sentinel is left out.
func (s *Solution) Routes() (*Frame, error) {
	recs := s.raw.Records()
	n := len(recs)

	vehicle := &Int64Column{name: "vehicle_id", Values: make([]int64, n)}
	typ := &CategoricalColumn{name: "type", Categories: Categories(), Codes: make([]StepType, n)}
	arrival := &Int64Column{name: "arrival", Values: make([]int64, n)}
	duration := &Int64Column{name: "duration", Values: make([]int64, n)}
	setup := &Int64Column{name: "setup", Values: make([]int64, n)}
	service := &Int64Column{name: "service", Values: make([]int64, n)}
	waiting := &Int64Column{name: "waiting_time", Values: make([]int64, n)}
	desc := &StringColumn{name: "description", Values: make([]string, n)}

	locIndex := make([]int64, n)
	raw := map[string][]int64{}
	for _, name := range optionalColumns {
		raw[name] = make([]int64, n)
	}

	for i, rec := range recs {
		tag := engine.CString(rec.Type[:])
		st, err := ParseStepType(tag)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		vehicle.Values[i] = rec.VehicleID
		typ.Codes[i] = st
		arrival.Values[i] = rec.Arrival
		duration.Values[i] = rec.Duration
		setup.Values[i] = rec.Setup
		service.Values[i] = rec.Service
		waiting.Values[i] = rec.WaitingTime
		locIndex[i] = rec.LocationIndex
		desc.Values[i] = engine.CString(rec.Description[:])
		raw["longitude"][i] = rec.Longitude
		raw["latitude"][i] = rec.Latitude
		raw["id"][i] = rec.ID
	}

	cols := []Column{vehicle, typ, arrival, duration, setup, service, waiting, nullColumn("location_index", locIndex)}
	for _, name := range optionalColumns {
		if c := nullable(name, raw[name]); c != nil {
			cols = append(cols, c)
		}
	}
	cols = append(cols, desc)
	return &Frame{columns: cols, rows: n}, nil
}

// nullable returns nil when every value is the sentinel.
func nullable(name string, values []int64) *NullInt64Column {
	allAbsent := true
	for _, v := range values {
		if v != engine.Sentinel {
			allAbsent = false
			break
		}
	}
	if allAbsent {
		return nil
	}
	return nullColumn(name, values)
}

// nullColumn maps sentinel cells to missing ones.
func nullColumn(name string, values []int64) *NullInt64Column {
	col := &NullInt64Column{name: name, Values: make([]int64, len(values)), Valid: make([]bool, len(values))}
	for i, v := range values {
		if v == engine.Sentinel {
			continue
		}
		col.Values[i] = v
		col.Valid[i] = true
	}
	return col
}

// ToDict parses the canonical JSON text into nested maps and slices.
// Numbers are kept as json.Number.
func (s *Solution) ToDict() (map[string]any, error) {
	b, err := s.raw.JSON()
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			err = errors.New("trailing data after document")
		}
		return nil, &ParseError{Err: err}
	}
	return out, nil
}

// SaveJSON writes the canonical JSON text to path, creating missing parent
// directories and replacing any existing file. Filesystem errors are
// returned as is.
func (s *Solution) SaveJSON(path string) error {
	b, err := s.raw.JSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// SaveJSONAtomic is SaveJSON through a temporary file in the destination
// directory followed by a rename, so readers never observe a partial file.
func (s *Solution) SaveJSONAtomic(path string) error {
	b, err := s.raw.JSON()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
