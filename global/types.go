package global

import (
	"github.com/lunfardo314/unitrie/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type (
	// StateStore is the key/value store the trie-based state and the chain index live in
	StateStore interface {
		common.KVReader
		common.BatchedUpdatable
		common.Traversable
	}

	Logging interface {
		Log() *zap.SugaredLogger
		Tracef(tag string, format string, args ...any)
	}

	Metrics interface {
		MetricsRegistry() *prometheus.Registry
	}

	// Environment is what long-living components of the node need from the global object
	Environment interface {
		Logging
		Metrics
	}
)
