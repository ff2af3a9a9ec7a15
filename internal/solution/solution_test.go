package solution

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routeframe/internal/engine"
)

// fakeRaw serves hand-built records and text, including malformed ones.
type fakeRaw struct {
	recs []engine.Record
	text string
	err  error
}

func (f fakeRaw) Records() []engine.Record { return f.recs }
func (f fakeRaw) JSON() ([]byte, error)    { return []byte(f.text), f.err }

func record(typ string, vehicle, loc, lon, lat, id int64, desc string) engine.Record {
	r := engine.Record{VehicleID: vehicle, LocationIndex: loc, Longitude: lon, Latitude: lat, ID: id}
	copy(r.Type[:], typ)
	copy(r.Description[:], desc)
	return r
}

func exampleResult() *engine.Result {
	return &engine.Result{
		Summary: engine.Summary{Cost: 10},
		Routes: []engine.Route{{
			Vehicle: 1,
			Steps: []engine.Step{
				{Type: engine.StepStart, Location: engine.Location{Index: 0, UserIndex: true}, Description: "Start"},
				{Type: engine.StepJob, ID: 7, Location: engine.Location{Index: 5, UserIndex: true, Coordinates: &[2]float64{10, 20}}, Description: "Job 7"},
			},
		}},
	}
}

func TestRoutesExampleScenario(t *testing.T) {
	s := New(exampleResult())
	frame, err := s.Routes()
	require.NoError(t, err)
	require.Equal(t, 2, frame.Len())

	assert.Equal(t, []string{
		"vehicle_id", "type", "arrival", "duration", "setup", "service", "waiting_time",
		"location_index", "longitude", "latitude", "id", "description",
	}, frame.Names())

	id, ok := frame.Column("id")
	require.True(t, ok)
	assert.Nil(t, id.Value(0))
	assert.Equal(t, int64(7), id.Value(1))

	lon, _ := frame.Column("longitude")
	assert.Nil(t, lon.Value(0))
	assert.Equal(t, int64(10), lon.Value(1))

	typ, _ := frame.Column("type")
	assert.Equal(t, "start", typ.Value(0))
	assert.Equal(t, "job", typ.Value(1))

	loc, _ := frame.Column("location_index")
	assert.Equal(t, int64(0), loc.Value(0))
	assert.Equal(t, int64(5), loc.Value(1))

	desc, _ := frame.Column("description")
	assert.Equal(t, "Job 7", desc.Value(1))

	dict, err := s.ToDict()
	require.NoError(t, err)
	routes := dict["routes"].([]any)
	require.Len(t, routes, 1)
	total := 0
	for _, r := range routes {
		total += len(r.(map[string]any)["steps"].([]any))
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, frame.Len(), total)
}

func TestRoutesSentinelNeverLeaks(t *testing.T) {
	recs := []engine.Record{
		record("job", 1, 1, engine.Sentinel, 3, engine.Sentinel, ""),
		record("job", 1, 2, 4, engine.Sentinel, 9, ""),
	}
	frame, err := New(fakeRaw{recs: recs}).Routes()
	require.NoError(t, err)
	for _, name := range []string{"longitude", "latitude", "id"} {
		col, ok := frame.Column(name)
		require.True(t, ok, name)
		for i := 0; i < frame.Len(); i++ {
			assert.NotEqual(t, engine.Sentinel, col.Value(i), "%s row %d", name, i)
		}
	}
	lat := mustNull(t, frame, "latitude")
	assert.Equal(t, int64(3), lat.Value(0))
	assert.Nil(t, lat.Value(1))
	assert.Equal(t, 1, nullCells(lat))
}

func nullCells(c Column) int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.Value(i) == nil {
			n++
		}
	}
	return n
}

func mustNull(t *testing.T, f *Frame, name string) *NullInt64Column {
	t.Helper()
	c, ok := f.Column(name)
	require.True(t, ok)
	nc, ok := c.(*NullInt64Column)
	require.True(t, ok)
	return nc
}

func TestRoutesDropsWhollyAbsentColumns(t *testing.T) {
	recs := []engine.Record{
		record("start", 1, 0, engine.Sentinel, engine.Sentinel, engine.Sentinel, ""),
		record("end", 1, 0, engine.Sentinel, engine.Sentinel, engine.Sentinel, ""),
	}
	frame, err := New(fakeRaw{recs: recs}).Routes()
	require.NoError(t, err)
	assert.False(t, frame.Has("longitude"))
	assert.False(t, frame.Has("latitude"))
	assert.False(t, frame.Has("id"))
	assert.True(t, frame.Has("description"))
	assert.Len(t, frame.Columns(), 9)
}

func TestRoutesLocationIndexIsNullableButNeverDropped(t *testing.T) {
	recs := []engine.Record{
		record("start", 1, 0, engine.Sentinel, engine.Sentinel, engine.Sentinel, ""),
		record("break", 1, engine.Sentinel, engine.Sentinel, engine.Sentinel, 4, "rest"),
		record("end", 1, 2, engine.Sentinel, engine.Sentinel, engine.Sentinel, ""),
	}
	frame, err := New(fakeRaw{recs: recs}).Routes()
	require.NoError(t, err)
	loc := mustNull(t, frame, "location_index")
	assert.Equal(t, int64(0), loc.Value(0))
	assert.Nil(t, loc.Value(1))
	assert.Equal(t, int64(2), loc.Value(2))

	var buf strings.Builder
	require.NoError(t, frame.WriteCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "1,break,0,0,0,0,0,,4,rest", lines[2])

	all := []engine.Record{record("break", 1, engine.Sentinel, engine.Sentinel, engine.Sentinel, 4, "")}
	frame, err = New(fakeRaw{recs: all}).Routes()
	require.NoError(t, err)
	loc = mustNull(t, frame, "location_index")
	assert.Nil(t, loc.Value(0))
	assert.Equal(t, []string{
		"vehicle_id", "type", "arrival", "duration", "setup", "service", "waiting_time",
		"location_index", "id", "description",
	}, frame.Names())
}

func TestRoutesKeepsColumnWithOnePresentValue(t *testing.T) {
	recs := []engine.Record{
		record("start", 1, 0, engine.Sentinel, engine.Sentinel, engine.Sentinel, ""),
		record("break", 1, 0, engine.Sentinel, engine.Sentinel, 4, ""),
		record("end", 1, 0, engine.Sentinel, engine.Sentinel, engine.Sentinel, ""),
	}
	frame, err := New(fakeRaw{recs: recs}).Routes()
	require.NoError(t, err)
	assert.False(t, frame.Has("longitude"))
	id := mustNull(t, frame, "id")
	assert.Equal(t, 2, nullCells(id))
	assert.Equal(t, int64(4), id.Value(1))
}

func TestRoutesCategoricalClosureAndOrder(t *testing.T) {
	tags := []string{"pickup", "start", "delivery", "break", "end", "job"}
	var recs []engine.Record
	for i, tag := range tags {
		recs = append(recs, record(tag, int64(i), int64(i), engine.Sentinel, engine.Sentinel, engine.Sentinel, tag))
	}
	frame, err := New(fakeRaw{recs: recs}).Routes()
	require.NoError(t, err)

	col, _ := frame.Column("type")
	cat := col.(*CategoricalColumn)
	assert.Equal(t, []string{"start", "end", "break", "job", "delivery", "pickup"}, cat.Categories)
	for i, tag := range tags {
		assert.Equal(t, tag, cat.Value(i))
		assert.Contains(t, cat.Categories, cat.Value(i))
	}
	veh, _ := frame.Column("vehicle_id")
	for i := range tags {
		assert.Equal(t, int64(i), veh.Value(i), "row order")
	}
	assert.True(t, Pickup > Delivery)
}

func TestRoutesUnknownTypeIsContractViolation(t *testing.T) {
	recs := []engine.Record{record("teleport", 1, 0, 0, 0, 0, "")}
	_, err := New(fakeRaw{recs: recs}).Routes()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContractViolation))

	var full engine.Record
	copy(full.Type[:], "deliveryx")
	_, err = New(fakeRaw{recs: []engine.Record{full}}).Routes()
	assert.True(t, errors.Is(err, ErrContractViolation))
}

func TestRoutesEmpty(t *testing.T) {
	frame, err := New(&engine.Result{}).Routes()
	require.NoError(t, err)
	assert.Equal(t, 0, frame.Len())
	assert.False(t, frame.Has("id"))
}

func TestRoutesDescriptionFullWidth(t *testing.T) {
	res := exampleResult()
	res.Routes[0].Steps[0].Description = strings.Repeat("d", 60)
	frame, err := New(res).Routes()
	require.NoError(t, err)
	desc, _ := frame.Column("description")
	assert.Equal(t, strings.Repeat("d", 40), desc.Value(0))
}

func TestToDictKeepsIntegerPrecision(t *testing.T) {
	res := exampleResult()
	res.Routes[0].Steps[1].ID = 1<<62 + 1
	dict, err := New(res).ToDict()
	require.NoError(t, err)
	step := dict["routes"].([]any)[0].(map[string]any)["steps"].([]any)[1].(map[string]any)
	assert.Equal(t, json.Number("4611686018427387905"), step["id"])
	_, hasLoc := dict["routes"].([]any)[0].(map[string]any)["steps"].([]any)[0].(map[string]any)["location"]
	assert.False(t, hasLoc)
}

func TestToDictParseError(t *testing.T) {
	_, err := New(fakeRaw{text: `{"routes": [`}).ToDict()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))

	_, err = New(fakeRaw{text: `{} {}`}).ToDict()
	require.True(t, errors.As(err, &pe))

	_, err = New(fakeRaw{text: `[1,2]`}).ToDict()
	require.True(t, errors.As(err, &pe))
}

func TestToDictPropagatesEngineError(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(fakeRaw{err: boom}).ToDict()
	assert.ErrorIs(t, err, boom)
}

func TestSaveJSONCreatesParentsAndIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "c", "solution.json")
	s := New(exampleResult())

	require.NoError(t, s.SaveJSON(path))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, s.SaveJSON(path))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	want, err := exampleResult().JSON()
	require.NoError(t, err)
	assert.Equal(t, want, first)
}

func TestSaveJSONOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("z"), 4096), 0o644))
	require.NoError(t, New(fakeRaw{text: `{"code":0}`}).SaveJSON(path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"code":0}`, string(got))
}

func TestSaveJSONParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := New(exampleResult()).SaveJSON(filepath.Join(blocker, "out.json"))
	require.Error(t, err)
	var pe *fs.PathError
	assert.True(t, errors.As(err, &pe))
}

func TestSaveJSONAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "solution.json")
	s := New(exampleResult())
	require.NoError(t, s.SaveJSONAtomic(path))
	require.NoError(t, s.SaveJSONAtomic(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want, _ := exampleResult().JSON()
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not remain")
}
