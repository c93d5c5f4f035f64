package sequence

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records run progress as prometheus collectors. Attach it to a
// controller with WithHooks(m.Hooks()).
type Metrics struct {
	StepsCompleted  *prometheus.CounterVec
	StepsFailed     *prometheus.CounterVec
	GroupsCompleted *prometheus.CounterVec
	GroupDuration   *prometheus.HistogramVec
	RunsCompleted   *prometheus.CounterVec
	ActiveGroups    prometheus.Gauge

	now     func() time.Time
	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StepsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vrkit_steps_completed_total",
			Help: "Training steps completed, by program and step type.",
		}, []string{"program", "type"}),
		StepsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vrkit_steps_failed_total",
			Help: "Training steps that failed while being applied.",
		}, []string{"program", "type"}),
		GroupsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vrkit_task_groups_completed_total",
			Help: "Task groups completed, by program and module.",
		}, []string{"program", "module"}),
		GroupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vrkit_task_group_duration_seconds",
			Help:    "Wall time from task group start to completion.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"program", "module"}),
		RunsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vrkit_runs_completed_total",
			Help: "Training runs that reached the end of their program.",
		}, []string{"program"}),
		ActiveGroups: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vrkit_active_task_groups",
			Help: "Task groups currently running.",
		}),
		now:     time.Now,
		started: make(map[string]time.Time),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.StepsCompleted, m.StepsFailed, m.GroupsCompleted, m.GroupDuration, m.RunsCompleted, m.ActiveGroups,
		} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func groupKey(e GroupEvent) string {
	return fmt.Sprintf("%s/%d.%d", e.RunID, e.Module, e.Group)
}

// Hooks returns the callbacks feeding the collectors.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnStepCompleted: func(e StepEvent) {
			m.StepsCompleted.WithLabelValues(e.Program, string(e.Type)).Inc()
		},
		OnStepFailed: func(e StepEvent) {
			m.StepsFailed.WithLabelValues(e.Program, string(e.Type)).Inc()
		},
		OnGroupStarted: func(e GroupEvent) {
			m.mu.Lock()
			m.started[groupKey(e)] = m.now()
			m.mu.Unlock()
			m.ActiveGroups.Inc()
		},
		OnGroupCompleted: func(e GroupEvent) {
			m.mu.Lock()
			start, ok := m.started[groupKey(e)]
			delete(m.started, groupKey(e))
			m.mu.Unlock()
			if ok {
				m.GroupDuration.WithLabelValues(e.Program, e.ModuleName).Observe(m.now().Sub(start).Seconds())
			}
			m.GroupsCompleted.WithLabelValues(e.Program, e.ModuleName).Inc()
			m.ActiveGroups.Dec()
		},
		OnSequenceCompleted: func(e RunEvent) {
			m.RunsCompleted.WithLabelValues(e.Program).Inc()
		},
		OnSequenceStopped: func(e RunEvent) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for key := range m.started {
				if strings.HasPrefix(key, e.RunID+"/") {
					delete(m.started, key)
					m.ActiveGroups.Dec()
				}
			}
		},
	}
}
