package runtime

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordForwarded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	require.NoError(t, m.Register(reg))

	m.RecordForwarded("text", 12)
	m.RecordForwarded("text", 8)
	m.RecordForwarded("bytes", 100)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messagesTotal.WithLabelValues("text")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesTotal.WithLabelValues("bytes")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.bytesTotal))
}

func TestMetrics_RecordDropped(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	require.NoError(t, m.Register(reg))

	m.RecordDropped(DropReasonDecode)
	m.RecordDropped(DropReasonDecode)
	m.RecordDropped(DropReasonUnknownKind)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.droppedTotal.WithLabelValues(DropReasonDecode)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedTotal.WithLabelValues(DropReasonUnknownKind)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.droppedTotal.WithLabelValues(DropReasonSerialize)))
}

func TestMetrics_RecordFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	require.NoError(t, m.Register(reg))

	m.RecordSetupFailure()
	m.RecordSetupFailure()
	m.RecordFault()
	m.RecordPollError()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.setupFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.faultsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pollErrors))
}

func TestMetrics_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	require.NoError(t, m.Register(reg))
	require.NoError(t, m.Register(reg))
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	require.NoError(t, m.Register(prometheus.NewRegistry()))
	m.RecordForwarded("text", 1)
	m.RecordDropped(DropReasonSerialize)
	m.RecordSetupFailure()
	m.RecordFault()
	m.RecordPollError()
}
