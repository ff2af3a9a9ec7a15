package solution

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routeframe/internal/engine"
)

func TestFrameWriteCSV(t *testing.T) {
	frame, err := New(exampleResult()).Routes()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, frame.WriteCSV(&buf))
	want := "vehicle_id,type,arrival,duration,setup,service,waiting_time,location_index,longitude,latitude,id,description\n" +
		"1,start,0,0,0,0,0,0,,,,Start\n" +
		"1,job,0,0,0,0,0,5,10,20,7,Job 7\n"
	assert.Equal(t, want, buf.String())
}

func TestFrameMarshalJSON(t *testing.T) {
	frame, err := New(exampleResult()).Routes()
	require.NoError(t, err)

	b, err := json.Marshal(frame)
	require.NoError(t, err)

	var doc struct {
		Columns    []string `json:"columns"`
		Categories []string `json:"categories"`
		Data       [][]any  `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, frame.Names(), doc.Columns)
	assert.Equal(t, Categories(), doc.Categories)
	require.Len(t, doc.Data, 2)
	assert.Nil(t, doc.Data[0][10], "id of start step")
	assert.Equal(t, 7.0, doc.Data[1][10])
	assert.Equal(t, "job", doc.Data[1][1])
}

func TestFrameRow(t *testing.T) {
	recs := []engine.Record{record("pickup", 3, 2, 1, 2, engine.Sentinel, "p")}
	recs = append(recs, record("delivery", 3, 4, 5, 6, 11, "d"))
	frame, err := New(fakeRaw{recs: recs}).Routes()
	require.NoError(t, err)

	row := frame.Row(0)
	assert.Equal(t, "pickup", row["type"])
	assert.Nil(t, row["id"])
	assert.Equal(t, int64(1), row["longitude"])
	assert.Equal(t, "p", row["description"])
}

func TestCategoriesIsACopy(t *testing.T) {
	c := Categories()
	c[0] = "mutated"
	assert.Equal(t, "start", Categories()[0])
	assert.Equal(t, "start", Start.String())
	assert.Equal(t, "StepType(42)", StepType(42).String())
}

func TestParseStepType(t *testing.T) {
	for i, name := range Categories() {
		st, err := ParseStepType(name)
		require.NoError(t, err)
		assert.Equal(t, StepType(i), st)
	}
	_, err := ParseStepType("START")
	assert.ErrorIs(t, err, ErrContractViolation)
}
