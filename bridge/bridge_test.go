package bridge

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/interaction"
	"github.com/mughesh/HVAC-VRB-sub000/sequence"
)

type published struct {
	topic   string
	payload []byte
}

type fakeBroker struct {
	out     []published
	fail    error
	handler func(string, []byte)
}

func (f *fakeBroker) Publish(topic string, payload []byte) error {
	f.out = append(f.out, published{topic, payload})
	return f.fail
}

func (f *fakeBroker) Subscribe(_ string, fn func(string, []byte)) error {
	f.handler = fn
	return nil
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestForwardsControllerEvents(t *testing.T) {
	broker := &fakeBroker{}
	names := map[ecs.Entity]string{1: "Valve_A", 2: "Socket_A"}
	b := New(broker, "hvac/bay1/", func(e ecs.Entity) string { return names[e] }, quiet())
	var bus ecs.Bus
	b.Attach(&bus)

	bus.Emit(ecs.Event{Kind: interaction.EventTightened, Source: 1, Other: 2})
	bus.Emit(ecs.Event{Kind: interaction.EventGrabbed, Source: 1})
	require.Len(t, broker.out, 1)
	assert.Equal(t, "hvac/bay1/objects/Valve_A/tightened", broker.out[0].topic)

	var msg Message
	require.NoError(t, json.Unmarshal(broker.out[0].payload, &msg))
	assert.Equal(t, Message{Event: "tightened", Object: "Valve_A", Other: "Socket_A"}, msg)

	assert.Equal(t, len(forwarded), b.Detach(&bus))
	bus.Emit(ecs.Event{Kind: interaction.EventTightened, Source: 1})
	assert.Len(t, broker.out, 1)
}

func TestPublishErrorsAreSwallowed(t *testing.T) {
	broker := &fakeBroker{fail: errors.New("broker down")}
	b := New(broker, "hvac", nil, quiet())
	h := b.Hooks()
	h.OnStepFailed(sequence.StepEvent{RunID: "r1", Name: "tighten", Err: errors.New("boom")})
	require.Len(t, broker.out, 1)
	assert.Equal(t, "hvac/sequence/step", broker.out[0].topic)
	assert.JSONEq(t, `{"event":"step-failed","run":"r1","step":"tighten","error":"boom"}`, string(broker.out[0].payload))
}

func TestInboundCommandsQueue(t *testing.T) {
	broker := &fakeBroker{}
	b := New(broker, "hvac", nil, quiet())
	require.NoError(t, b.Listen(broker))

	broker.handler("hvac/input/Valve_A/grab", nil)
	broker.handler("hvac/input/bad", nil)
	broker.handler("other/input/Valve_A/grab", nil)

	cmds := b.Drain()
	require.Len(t, cmds, 1)
	assert.Equal(t, Command{Object: "Valve_A", Action: "grab"}, cmds[0])
	assert.Empty(t, b.Drain())
}
