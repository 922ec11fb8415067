package global

import "go.uber.org/atomic"

var isShuttingDown atomic.Bool

// IsShuttingDown is checked by the API server before producing an execution proof.
// The flag is set by the node when it starts stopping
func IsShuttingDown() bool {
	return isShuttingDown.Load()
}

func SetShutDown() {
	isShuttingDown.Store(true)
}
