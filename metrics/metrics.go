package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lunfardo314/statecall/global"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Environment interface {
	global.Logging
	global.Metrics
}

// Start exposes the registry of the environment on '/metrics'. Returns the server, so that it can be shut down
func Start(env Environment, port int) *http.Server {
	if port == 0 {
		env.Log().Warnf("metrics.port not specified. Will use %d for Prometheus metrics exposure", global.DefaultMetricsPort)
		port = global.DefaultMetricsPort
	}
	env.MetricsRegistry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(env))
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.Log().Errorf("metrics server: %v", err)
		}
	}()
	env.Log().Infof("Prometheus metrics exposed on port %d", port)
	return srv
}

func Handler(env global.Metrics) http.Handler {
	return promhttp.HandlerFor(
		env.MetricsRegistry(),
		promhttp.HandlerOpts{
			Registry: env.MetricsRegistry(),
		},
	)
}
