package sequence

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsFollowRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	clock := time.Unix(0, 0)
	m.now = func() time.Time { return clock }

	h := newHarness(t)
	c := h.controller(program(group(step(StepGrab, "Handle")), group(step(StepGrab, "Dial"))), m.Hooks())
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveGroups))

	clock = clock.Add(3 * time.Second)
	h.grab("Handle").Grab()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepsCompleted.WithLabelValues("test", "grab")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GroupsCompleted.WithLabelValues("test", "m0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveGroups))

	c.Stop()
	assert.Zero(t, testutil.ToFloat64(m.ActiveGroups))
	assert.Zero(t, testutil.ToFloat64(m.RunsCompleted.WithLabelValues("test")))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "collectors register once per registry")
}
