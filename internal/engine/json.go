package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type jsonSummary struct {
	Cost        int64 `json:"cost"`
	Unassigned  int   `json:"unassigned"`
	Service     int64 `json:"service"`
	Duration    int64 `json:"duration"`
	WaitingTime int64 `json:"waiting_time"`
	Setup       int64 `json:"setup"`
	Distance    int64 `json:"distance"`
}

type jsonLonLat struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type jsonStep struct {
	ID            uint64      `json:"id"`
	Type          string      `json:"type"`
	Arrival       int64       `json:"arrival"`
	Duration      int64       `json:"duration"`
	Setup         int64       `json:"setup"`
	Service       int64       `json:"service"`
	WaitingTime   int64       `json:"waiting_time"`
	Description   string      `json:"description"`
	Location      *jsonLonLat `json:"location,omitempty"`
	LocationIndex *int        `json:"location_index,omitempty"`
}

type jsonRoute struct {
	Vehicle uint64     `json:"vehicle"`
	Steps   []jsonStep `json:"steps"`
}

type jsonJob struct {
	ID   uint64 `json:"id"`
	Type string `json:"type"`
}

type jsonSolution struct {
	Code       int         `json:"code"`
	Error      string      `json:"error"`
	Summary    jsonSummary `json:"summary"`
	Routes     []jsonRoute `json:"routes"`
	Unassigned []jsonJob   `json:"unassigned"`
}

// JSON returns the canonical text form of the result. Coordinates and the
// location index are omitted when the problem did not supply them. The same
// Result always yields identical bytes.
func (r *Result) JSON() ([]byte, error) {
	doc := jsonSolution{
		Code:  r.Code,
		Error: r.Error,
		Summary: jsonSummary{
			Cost:        r.Summary.Cost,
			Unassigned:  r.Summary.Unassigned,
			Service:     r.Summary.Service,
			Duration:    r.Summary.Duration,
			WaitingTime: r.Summary.WaitingTime,
			Setup:       r.Summary.Setup,
			Distance:    r.Summary.Distance,
		},
		Routes:     make([]jsonRoute, 0, len(r.Routes)),
		Unassigned: make([]jsonJob, 0, len(r.Unassigned)),
	}
	for _, rt := range r.Routes {
		jr := jsonRoute{Vehicle: rt.Vehicle, Steps: make([]jsonStep, 0, len(rt.Steps))}
		for _, st := range rt.Steps {
			js := jsonStep{
				ID:          st.ID,
				Type:        st.Tag(),
				Arrival:     st.Arrival,
				Duration:    st.Duration,
				Setup:       st.Setup,
				Service:     st.Service,
				WaitingTime: st.WaitingTime,
				Description: st.Description,
			}
			if st.Location.HasCoordinates() {
				js.Location = &jsonLonLat{Lon: st.Location.Lon(), Lat: st.Location.Lat()}
			}
			if st.Location.UserIndex {
				idx := st.Location.Index
				js.LocationIndex = &idx
			}
			jr.Steps = append(jr.Steps, js)
		}
		doc.Routes = append(doc.Routes, jr)
	}
	for _, j := range r.Unassigned {
		doc.Unassigned = append(doc.Unassigned, jsonJob{ID: j.ID, Type: j.Type.String()})
	}
	return json.Marshal(doc)
}

// wireLocation accepts both the engine's [lon, lat] arrays and the
// {"lon":..,"lat":..} objects of the canonical form.
type wireLocation struct {
	set      bool
	lon, lat float64
}

func (l *wireLocation) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var pair []float64
		if err := json.Unmarshal(b, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("location: want [lon, lat], got %d values", len(pair))
		}
		l.lon, l.lat, l.set = pair[0], pair[1], true
		return nil
	}
	var obj jsonLonLat
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	l.lon, l.lat, l.set = obj.Lon, obj.Lat, true
	return nil
}

type wireStep struct {
	Type          string       `json:"type"`
	ID            *uint64      `json:"id"`
	Location      wireLocation `json:"location"`
	LocationIndex *int         `json:"location_index"`
	Setup         int64        `json:"setup"`
	Service       int64        `json:"service"`
	WaitingTime   int64        `json:"waiting_time"`
	Arrival       int64        `json:"arrival"`
	Duration      int64        `json:"duration"`
	Distance      int64        `json:"distance"`
	Description   string       `json:"description"`
}

// Route and job totals, descriptions and job locations are not part of the
// canonical form and are skipped on decode.
type wireRoute struct {
	Vehicle uint64     `json:"vehicle"`
	Steps   []wireStep `json:"steps"`
}

type wireJob struct {
	ID   uint64 `json:"id"`
	Type string `json:"type"`
}

type wireSolution struct {
	Code       int         `json:"code"`
	Error      string      `json:"error"`
	Summary    jsonSummary `json:"summary"`
	Routes     []wireRoute `json:"routes"`
	Unassigned []wireJob   `json:"unassigned"`
}

// Decode reads a solution document as written by the routing engine's
// command line or by Result.JSON.
func Decode(r io.Reader) (*Result, error) {
	var doc wireSolution
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	res := &Result{
		Code:  doc.Code,
		Error: doc.Error,
		Summary: Summary{
			Cost:        doc.Summary.Cost,
			Unassigned:  doc.Summary.Unassigned,
			Setup:       doc.Summary.Setup,
			Service:     doc.Summary.Service,
			Duration:    doc.Summary.Duration,
			WaitingTime: doc.Summary.WaitingTime,
			Distance:    doc.Summary.Distance,
		},
	}
	for ri, wr := range doc.Routes {
		rt := Route{Vehicle: wr.Vehicle, Steps: make([]Step, 0, len(wr.Steps))}
		for si, ws := range wr.Steps {
			st, jt, err := parseTag(ws.Type)
			if err != nil {
				return nil, fmt.Errorf("route %d step %d: %w", ri, si, err)
			}
			step := Step{
				Type:        st,
				JobType:     jt,
				Location:    toLocation(ws.Location, ws.LocationIndex),
				Setup:       ws.Setup,
				Service:     ws.Service,
				WaitingTime: ws.WaitingTime,
				Arrival:     ws.Arrival,
				Duration:    ws.Duration,
				Distance:    ws.Distance,
				Description: ws.Description,
			}
			if ws.ID != nil {
				step.ID = *ws.ID
			}
			rt.Steps = append(rt.Steps, step)
		}
		res.Routes = append(res.Routes, rt)
	}
	for ui, wj := range doc.Unassigned {
		_, jt, err := parseTag(wj.Type)
		if err != nil {
			return nil, fmt.Errorf("unassigned %d: %w", ui, err)
		}
		res.Unassigned = append(res.Unassigned, Job{ID: wj.ID, Type: jt})
	}
	return res, nil
}

// Load decodes the solution document stored at path.
func Load(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

func toLocation(wl wireLocation, idx *int) Location {
	var loc Location
	if wl.set {
		loc.Coordinates = &[2]float64{wl.lon, wl.lat}
	}
	if idx != nil {
		loc.Index = *idx
		loc.UserIndex = true
	}
	return loc
}
