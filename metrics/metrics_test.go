package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.FrameReceived("message")
	m.FrameReceived("message")
	m.DecodeFailed()
	m.DispatchDone(OutcomeHandled, 5*time.Millisecond)
	m.PendingAdd(2)
	m.PendingAdd(-1)
	m.RequestDone("send_group_msg", RequestOK)
	m.Reconnected()
	m.ConnectionsAdd(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesReceived.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatched.WithLabelValues(OutcomeHandled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Pending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("send_group_msg", RequestOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reconnects))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Connections))

	n, err := testutil.GatherAndCount(reg, "runbot_dispatch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FrameReceived("notice")
		m.DecodeFailed()
		m.DispatchDone(OutcomeError, time.Second)
		m.PendingAdd(1)
		m.RequestDone("x", RequestTimeout)
		m.Reconnected()
		m.ConnectionsAdd(-1)
	})
}
