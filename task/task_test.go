package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

const fixedDT = 1.0 / 50

func TestTaskStartedMidTickWaitsForNextTick(t *testing.T) {
	r := NewRunner()
	steps := 0
	r.Start(context.Background(), "count", Func(func(Phase, float64) bool {
		steps++
		return false
	}))
	assert.Equal(t, 0, steps)
	r.Tick(PhaseFixed, fixedDT)
	assert.Equal(t, 0, steps, "a task is first resumed on the tick after it starts")
	r.Tick(PhaseFixed, fixedDT)
	assert.Equal(t, 1, steps)
}

func TestPollSucceedsOrTimesOut(t *testing.T) {
	r := NewRunner()
	ready := false
	var results []bool
	r.Start(context.Background(), "settle", &Poll{
		Phase:   PhaseFixed,
		Until:   func() bool { return ready },
		Timeout: 1,
		Done:    func(timedOut bool) { results = append(results, timedOut) },
	})
	r.Tick(PhaseFixed, fixedDT) // promote
	r.Tick(PhaseFixed, fixedDT)
	r.Tick(PhaseFrame, 1)
	assert.Empty(t, results, "frame ticks do not advance a fixed-phase poll")
	ready = true
	r.Tick(PhaseFixed, fixedDT)
	assert.Equal(t, []bool{false}, results)
	assert.Zero(t, r.Len())

	results = nil
	r.Start(context.Background(), "timeout", &Poll{
		Phase:   PhaseFixed,
		Until:   func() bool { return false },
		Timeout: 3 * fixedDT,
		Done:    func(timedOut bool) { results = append(results, timedOut) },
	})
	for i := 0; i < 5; i++ {
		r.Tick(PhaseFixed, fixedDT)
	}
	assert.Equal(t, []bool{true}, results)
}

func TestCancelledContextDropsTask(t *testing.T) {
	r := NewRunner()
	ctx, cancel := context.WithCancel(context.Background())
	fired := false
	cancelled := false
	h := r.Start(ctx, "settle", &Poll{
		Phase:    PhaseFixed,
		Until:    func() bool { return true },
		Done:     func(bool) { fired = true },
		OnCancel: func() { cancelled = true },
	})
	r.Tick(PhaseFixed, fixedDT)
	cancel()
	r.Tick(PhaseFixed, fixedDT)

	assert.False(t, fired)
	assert.True(t, cancelled)
	assert.True(t, h.Done())
	assert.True(t, h.Cancelled())
}

func TestChainWaitsFrameThenFixed(t *testing.T) {
	r := NewRunner()
	ran := false
	r.Start(context.Background(), "unlock", Chain(NextPhase(PhaseFrame), NextPhase(PhaseFixed), Do(func() { ran = true })))

	r.Tick(PhaseFixed, fixedDT) // started between ticks; promoted here
	r.Tick(PhaseFixed, fixedDT)
	assert.False(t, ran, "no frame has passed yet")
	r.Tick(PhaseFrame, 1.0/60)
	assert.False(t, ran)
	r.Tick(PhaseFixed, fixedDT)
	assert.True(t, ran)
}

func TestCancelAll(t *testing.T) {
	r := NewRunner()
	r.Start(context.Background(), "a", NextPhase(PhaseFrame))
	r.Start(context.Background(), "b", NextPhase(PhaseFrame))
	assert.Equal(t, 2, r.Len())
	r.CancelAll()
	assert.Zero(t, r.Len())
}
