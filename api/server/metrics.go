package server

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	totalRequests prometheus.Counter
}

func (srv *Server) registerMetrics() {
	srv.metrics.totalRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "statecall_api_totalRequests",
		Help: "total API requests",
	})
	if err := srv.MetricsRegistry().Register(srv.metrics.totalRequests); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			panic(err)
		}
		srv.metrics.totalRequests = already.ExistingCollector.(prometheus.Counter)
	}
}
