package engine

import "unicode/utf8"

// Record is one step of a solve in fixed-width form. Optional integers carry
// Sentinel instead of a value; Type and Description are NUL padded.
type Record struct {
	VehicleID     int64
	Type          [9]byte
	Arrival       int64
	Duration      int64
	Setup         int64
	Service       int64
	WaitingTime   int64
	Distance      int64
	Longitude     int64
	Latitude      int64
	LocationIndex int64
	ID            int64
	Description   [40]byte
}

// Records flattens the routes into one record per step, routes in vehicle
// order and steps in visit order.
func (r *Result) Records() []Record {
	out := make([]Record, 0, r.StepCount())
	for _, rt := range r.Routes {
		for _, st := range rt.Steps {
			rec := Record{
				VehicleID:     int64(rt.Vehicle),
				Arrival:       st.Arrival,
				Duration:      st.Duration,
				Setup:         st.Setup,
				Service:       st.Service,
				WaitingTime:   st.WaitingTime,
				Distance:      st.Distance,
				Longitude:     Sentinel,
				Latitude:      Sentinel,
				LocationIndex: Sentinel,
				ID:            Sentinel,
			}
			strncpy(rec.Type[:], st.Tag())
			strncpy(rec.Description[:], st.Description)
			if st.Location.UserIndex {
				rec.LocationIndex = int64(st.Location.Index)
			}
			if st.Location.HasCoordinates() {
				rec.Longitude = int64(st.Location.Lon())
				rec.Latitude = int64(st.Location.Lat())
			}
			if st.Type == StepJob || st.Type == StepBreak {
				rec.ID = int64(st.ID)
			}
			out = append(out, rec)
		}
	}
	return out
}

// strncpy copies at most len(dst) bytes and zero fills the remainder. A
// source of len(dst) bytes or more leaves no terminator. Truncation backs off
// to a rune boundary so the field stays valid UTF-8.
func strncpy(dst []byte, src string) {
	if len(src) > len(dst) {
		cut := len(dst)
		for cut > 0 && !utf8.RuneStart(src[cut]) {
			cut--
		}
		src = src[:cut]
	}
	n := copy(dst, src)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// CString returns the text of a NUL padded field.
func CString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
