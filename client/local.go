package client

import (
	"context"

	"github.com/lunfardo314/statecall/chain"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/state"
	"github.com/lunfardo314/statecall/util"
)

// LocalCallExecutor executes calls against the state kept locally
type LocalCallExecutor struct {
	global.Environment
	backend  StateProvider
	executor state.CodeExecutor
	codec    ProofCodec
	metrics  *executorMetrics
}

var _ CallExecutor = &LocalCallExecutor{}

func NewLocalCallExecutor(env global.Environment, backend StateProvider, executor state.CodeExecutor, codec ...ProofCodec) *LocalCallExecutor {
	ret := &LocalCallExecutor{
		Environment: env,
		backend:     backend,
		executor:    executor,
		codec:       DefaultProofCodec,
		metrics:     newExecutorMetrics(env.MetricsRegistry()),
	}
	if len(codec) > 0 {
		ret.codec = codec[0]
	}
	return ret
}

// Call executes method at the state of the block. Nothing is returned on failure
func (e *LocalCallExecutor) Call(ctx context.Context, id chain.BlockID, method string, input []byte) (ret *CallResult, err error) {
	defer func() { e.metrics.callDone(modeLocal, err) }()

	e.Tracef(TraceTagLocal, "call '%s' at %s, input: %s", method, id.String(), func() string { return util.Fmt(input) })

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	backend, err := e.backend.StateAt(id)
	if err != nil {
		return nil, stateAtError(id, err)
	}
	overlay := state.NewOverlayedChanges()
	out, err := execute(e.executor, backend, overlay, id.String(), method, input)
	if err != nil {
		e.Tracef(TraceTagLocal, "call '%s' at %s failed: %v", method, id.String(), err)
		return nil, err
	}
	e.Tracef(TraceTagLocal, "call '%s' at %s: output %s, changes:\n%s",
		method, id.String(), func() string { return util.Fmt(out) }, func() string { return overlay.Lines("    ").String() })
	return &CallResult{ReturnData: out, Changes: overlay}, nil
}

// CallAtState executes method against arbitrary backend and overlay provided by the caller
func (e *LocalCallExecutor) CallAtState(ctx context.Context, backend state.Backend, overlay *state.OverlayedChanges, method string, input []byte) (ret []byte, err error) {
	defer func() { e.metrics.callDone(modeLocal, err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	return execute(e.executor, backend, overlay, "", method, input)
}

// ProveExecution executes the call at the block and returns the output with the proof of the whole state
// of the block. Used by the full node to serve light clients
func (e *LocalCallExecutor) ProveExecution(ctx context.Context, hash chain.Hash, method string, input []byte) ([]byte, [][]byte, error) {
	id := chain.ByHash(hash)
	res, err := e.Call(ctx, id, method, input)
	if err != nil {
		return nil, nil, err
	}
	backend, err := e.backend.StateAt(id)
	if err != nil {
		return nil, nil, stateAtError(id, err)
	}
	proof, err := StateToExecutionProof(backend, e.codec)
	if err != nil {
		return nil, nil, newError(KindBackend, id.String(), err)
	}
	e.Tracef(TraceTagLocal, "proof of '%s' at %s: %d elements", method, id.String(), len(proof))
	return res.ReturnData, proof, nil
}

// AsFetcher makes the executor a proof fetcher. Light client and full node in the same process
func (e *LocalCallExecutor) AsFetcher() Fetcher {
	return FetcherFunc(e.ProveExecution)
}
