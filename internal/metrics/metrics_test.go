package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefaultIsIdempotent(t *testing.T) {
	RegisterDefault()
	RegisterDefault()

	families, err := Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func counterValue(t *testing.T, mode, status string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, Exports.WithLabelValues(mode, status).Write(&m))
	return m.GetCounter().GetValue()
}

func TestExportsCounter(t *testing.T) {
	RegisterDefault()
	before := counterValue(t, "plain", "ok")
	Exports.WithLabelValues("plain", "ok").Inc()
	assert.Equal(t, before+1, counterValue(t, "plain", "ok"))
}
