package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PlannerMetrics 排考运行指标
// 所有方法对 nil 接收者安全，未注册指标时调用方无需判空
type PlannerMetrics struct {
	placed         prometheus.Counter
	unplaced       *prometheus.CounterVec
	commitFailures prometheus.Counter
	conflicts      *prometheus.GaugeVec
	runDuration    prometheus.Histogram
}

// RunStats 单次运行的计数
type RunStats struct {
	Placed         int
	Unplaced       map[string]int // reason -> count
	CommitFailures int
	Conflicts      map[string]int // kind -> count
	Duration       time.Duration
}

// NewPlannerMetrics 在 reg 上注册排考指标；reg 为 nil 时使用默认注册器。
// 重复注册时复用已存在的收集器。
func NewPlannerMetrics(reg prometheus.Registerer) (*PlannerMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PlannerMetrics{
		placed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_exams_placed_total",
			Help: "Total number of exams placed",
		}),
		unplaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_exams_unplaced_total",
			Help: "Total number of group/module pairs left unplaced",
		}, []string{"reason"}),
		commitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_commit_failures_total",
			Help: "Total number of exam inserts rejected by storage",
		}),
		conflicts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "planner_conflicts",
			Help: "Conflicts detected by the audit of the latest run",
		}, []string{"kind"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_run_duration_seconds",
			Help:    "Wall time of a planning run",
			Buckets: prometheus.DefBuckets,
		}),
	}

	var err error
	if m.placed, err = register(reg, m.placed); err != nil {
		return nil, err
	}
	if m.unplaced, err = register(reg, m.unplaced); err != nil {
		return nil, err
	}
	if m.commitFailures, err = register(reg, m.commitFailures); err != nil {
		return nil, err
	}
	if m.conflicts, err = register(reg, m.conflicts); err != nil {
		return nil, err
	}
	if m.runDuration, err = register(reg, m.runDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveRun 记录一次运行
func (m *PlannerMetrics) ObserveRun(s RunStats) {
	if m == nil {
		return
	}
	m.placed.Add(float64(s.Placed))
	for reason, n := range s.Unplaced {
		m.unplaced.WithLabelValues(reason).Add(float64(n))
	}
	m.commitFailures.Add(float64(s.CommitFailures))
	for kind, n := range s.Conflicts {
		m.conflicts.WithLabelValues(kind).Set(float64(n))
	}
	m.runDuration.Observe(s.Duration.Seconds())
}
