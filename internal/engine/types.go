// Package engine models the result side of the routing engine: the solved
// routes, the fixed-width step records handed to the result model and the
// canonical JSON text of a solve.
package engine

import (
	"errors"
	"fmt"
)

// Sentinel marks an absent optional integer inside a Record. It lies outside
// any coordinate or id the engine emits.
const Sentinel int64 = 4293967297

var (
	ErrUnknownStepType = errors.New("unknown step type")
	ErrDecode          = errors.New("decode solution")
)

type StepType int

const (
	StepStart StepType = iota
	StepEnd
	StepBreak
	StepJob
)

type JobType int

const (
	JobSingle JobType = iota
	JobPickup
	JobDelivery
)

func (t JobType) String() string {
	switch t {
	case JobPickup:
		return "pickup"
	case JobDelivery:
		return "delivery"
	default:
		return "job"
	}
}

// Location points at an entry of the problem's location list. Coordinates
// holds (lon, lat) when the problem supplied them.
type Location struct {
	Index       int
	UserIndex   bool
	Coordinates *[2]float64
}

func (l Location) HasCoordinates() bool { return l.Coordinates != nil }

func (l Location) Lon() float64 { return l.Coordinates[0] }

func (l Location) Lat() float64 { return l.Coordinates[1] }

type Step struct {
	Type        StepType
	JobType     JobType
	ID          uint64
	Location    Location
	Setup       int64
	Service     int64
	WaitingTime int64
	Arrival     int64
	Duration    int64
	Distance    int64
	Description string
}

// Tag is the step's type name as it appears in records and JSON.
func (s Step) Tag() string {
	switch s.Type {
	case StepStart:
		return "start"
	case StepEnd:
		return "end"
	case StepBreak:
		return "break"
	default:
		return s.JobType.String()
	}
}

type Route struct {
	Vehicle uint64
	Steps   []Step
}

type Summary struct {
	Cost        int64
	Unassigned  int
	Setup       int64
	Service     int64
	Duration    int64
	WaitingTime int64
	Distance    int64
}

// Job is an unassigned job reported by a solve.
type Job struct {
	ID   uint64
	Type JobType
}

// Result is the terminal output of one solve. It is treated as immutable once built.
type Result struct {
	Code       int
	Error      string
	Summary    Summary
	Routes     []Route
	Unassigned []Job
}

// StepCount returns the number of steps across all routes.
func (r *Result) StepCount() int {
	n := 0
	for _, rt := range r.Routes {
		n += len(rt.Steps)
	}
	return n
}

func parseTag(tag string) (StepType, JobType, error) {
	switch tag {
	case "start":
		return StepStart, JobSingle, nil
	case "end":
		return StepEnd, JobSingle, nil
	case "break":
		return StepBreak, JobSingle, nil
	case "job":
		return StepJob, JobSingle, nil
	case "pickup":
		return StepJob, JobPickup, nil
	case "delivery":
		return StepJob, JobDelivery, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrUnknownStepType, tag)
}
