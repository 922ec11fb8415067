// Package client contains the call executors. The local executor runs calls against the state
// kept locally. The remote executor runs calls of the light client: it fetches the proof of the state
// from a full node, verifies it against the locally known header and re-executes the call
package client

import (
	"context"
	"errors"

	"github.com/lunfardo314/statecall/chain"
	"github.com/lunfardo314/statecall/state"
)

const (
	TraceTagLocal  = "local"
	TraceTagRemote = "remote"
)

type (
	// CallExecutor executes runtime calls
	CallExecutor interface {
		Call(ctx context.Context, id chain.BlockID, method string, input []byte) (*CallResult, error)
		CallAtState(ctx context.Context, backend state.Backend, overlay *state.OverlayedChanges, method string, input []byte) ([]byte, error)
	}

	// StateProvider provides state snapshot of the block
	StateProvider interface {
		StateAt(id chain.BlockID) (state.Backend, error)
	}

	// CallResult is returned only by successful call. The caller decides whether to commit the changes
	CallResult struct {
		ReturnData []byte
		Changes    *state.OverlayedChanges
	}
)

// execute runs the call on the fresh externalities. Backend failure is classified as KindBackend,
// everything else as KindExecution
func execute(executor state.CodeExecutor, backend state.Backend, overlay *state.OverlayedChanges, block, method string, input []byte) ([]byte, error) {
	out, err := state.Execute(executor, state.NewExt(overlay, backend), method, input)
	if err == nil {
		return out, nil
	}
	var extErr *state.ExternalitiesError
	if errors.As(err, &extErr) {
		return nil, newError(KindBackend, block, err)
	}
	return nil, newError(KindExecution, block, err)
}

// stateAtError classifies error returned by the state provider
func stateAtError(id chain.BlockID, err error) error {
	switch {
	case errors.Is(err, chain.ErrUnknownBlock):
		return newError(KindUnknownBlock, id.String(), err)
	case errors.Is(err, chain.ErrStateNotAvailable):
		return newError(KindNotAvailableOnLightClient, id.String(), err)
	}
	return newError(KindBackend, id.String(), err)
}
