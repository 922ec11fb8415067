package client

import (
	"errors"

	"github.com/lunfardo314/statecall/util"
	"github.com/prometheus/client_golang/prometheus"
)

type executorMetrics struct {
	calls         *prometheus.CounterVec
	proofFailures prometheus.Counter
}

const (
	modeLocal  = "local"
	modeRemote = "remote"
)

func newExecutorMetrics(reg *prometheus.Registry) *executorMetrics {
	return &executorMetrics{
		calls: registerOrExisting(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statecall_calls_total",
			Help: "number of executed calls by executor mode and result",
		}, []string{"mode", "result"})),
		proofFailures: registerOrExisting(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statecall_proof_failures_total",
			Help: "number of rejected execution proofs",
		})),
	}
}

// registerOrExisting returns the already registered collector if several executors share the registry
func registerOrExisting[T prometheus.Collector](reg *prometheus.Registry, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			existing, ok := already.ExistingCollector.(T)
			util.Assertf(ok, "wrong type of the existing collector")
			return existing
		}
		util.AssertNoError(err)
	}
	return c
}

func (m *executorMetrics) callDone(mode string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if kind, ok := KindOf(err); ok {
			result = kind.String()
		}
	}
	m.calls.WithLabelValues(mode, result).Inc()
}
