package client

import (
	"bytes"
	"context"
	"fmt"

	"github.com/lunfardo314/statecall/chain"
	"github.com/lunfardo314/statecall/commitment"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/state"
	"github.com/lunfardo314/statecall/util"
)

// RemoteCallExecutor executes calls on the light client. The state is taken from the execution proof
// supplied by the full node. The proof is trusted only if its root is equal to the state root
// in the locally known header, and the result is accepted only if the local execution gives the same output
type RemoteCallExecutor struct {
	global.Environment
	blockchain chain.Blockchain
	executor   state.CodeExecutor
	fetcher    Fetcher
	codec      ProofCodec
	metrics    *executorMetrics
}

type remoteStage byte

const (
	stageStart = remoteStage(iota)
	stageProofFetched
	stageStateRebuilt
	stageRootVerified
	stageLocallyExecuted
	stageOutputVerified
	stageDone
	stageFailed
)

var remoteStageNames = [...]string{
	stageStart:           "Start",
	stageProofFetched:    "ProofFetched",
	stageStateRebuilt:    "StateRebuilt",
	stageRootVerified:    "RootVerified",
	stageLocallyExecuted: "LocallyExecuted",
	stageOutputVerified:  "OutputVerified",
	stageDone:            "Done",
	stageFailed:          "Failed",
}

func (s remoteStage) String() string {
	if int(s) < len(remoteStageNames) {
		return remoteStageNames[s]
	}
	return fmt.Sprintf("stage(%d)", s)
}

// remoteCall is the state of one call
type remoteCall struct {
	*RemoteCallExecutor
	ctx          context.Context
	id           chain.BlockID
	method       string
	input        []byte
	stage        remoteStage
	hash         chain.Hash
	remoteOutput []byte
	remoteProof  [][]byte
	rebuilt      *state.InMemory
	overlay      *state.OverlayedChanges
	output       []byte
}

var _ CallExecutor = &RemoteCallExecutor{}

func NewRemoteCallExecutor(env global.Environment, blockchain chain.Blockchain, executor state.CodeExecutor, fetcher Fetcher, codec ...ProofCodec) *RemoteCallExecutor {
	ret := &RemoteCallExecutor{
		Environment: env,
		blockchain:  blockchain,
		executor:    executor,
		fetcher:     fetcher,
		codec:       DefaultProofCodec,
		metrics:     newExecutorMetrics(env.MetricsRegistry()),
	}
	if len(codec) > 0 {
		ret.codec = codec[0]
	}
	return ret
}

func (e *RemoteCallExecutor) Call(ctx context.Context, id chain.BlockID, method string, input []byte) (ret *CallResult, err error) {
	defer func() {
		e.metrics.callDone(modeRemote, err)
		if kind, ok := KindOf(err); ok && kind == KindInvalidExecutionProof {
			e.metrics.proofFailures.Inc()
		}
	}()

	c := &remoteCall{
		RemoteCallExecutor: e,
		ctx:                ctx,
		id:                 id,
		method:             method,
		input:              input,
	}
	e.Tracef(TraceTagRemote, "%s: call '%s', input: %s", c.id.String(), method, func() string { return util.Fmt(input) })

	steps := []func() error{
		c.resolveBlock,
		c.fetchProof,
		c.rebuildState,
		c.verifyRoot,
		c.executeLocally,
		c.verifyOutput,
	}
	for _, step := range steps {
		if err = step(); err != nil {
			c.moveTo(stageFailed, err)
			return nil, err
		}
	}
	c.moveTo(stageDone)
	return &CallResult{ReturnData: c.output, Changes: c.overlay}, nil
}

// CallAtState is not supported: without the proof there is no trusted state
func (e *RemoteCallExecutor) CallAtState(_ context.Context, _ state.Backend, _ *state.OverlayedChanges, method string, _ []byte) (ret []byte, err error) {
	defer func() { e.metrics.callDone(modeRemote, err) }()
	return nil, newError(KindNotAvailableOnLightClient, "", fmt.Errorf("CallAtState('%s')", method))
}

func (c *remoteCall) moveTo(stage remoteStage, reason ...error) {
	if len(reason) > 0 {
		c.Tracef(TraceTagRemote, "%s: %s -> %s(%v)", c.id.String(), c.stage.String(), stage.String(), reason[0])
	} else {
		c.Tracef(TraceTagRemote, "%s: %s -> %s", c.id.String(), c.stage.String(), stage.String())
	}
	c.stage = stage
}

// resolveBlock resolves number to hash
func (c *remoteCall) resolveBlock() error {
	if !c.id.ByNumber {
		c.hash = c.id.Hash
		return nil
	}
	var found bool
	var err error
	c.hash, found, err = c.blockchain.Hash(c.id.Number)
	if err != nil {
		return newError(KindBackend, c.id.String(), err)
	}
	if !found {
		return newError(KindUnknownBlock, c.id.String(), nil)
	}
	return nil
}

// fetchProof returns error of the fetcher as is
func (c *remoteCall) fetchProof() error {
	var err error
	c.remoteOutput, c.remoteProof, err = c.fetcher.ExecutionProof(c.ctx, c.hash, c.method, c.input)
	if err != nil {
		return err
	}
	c.moveTo(stageProofFetched)
	return nil
}

func (c *remoteCall) rebuildState() error {
	var err error
	if c.rebuilt, err = c.codec.Decode(c.remoteProof); err != nil {
		return newError(KindInvalidExecutionProof, c.hash.String(), err)
	}
	c.moveTo(stageStateRebuilt)
	return nil
}

// verifyRoot binds the untrusted proof to the trusted header
func (c *remoteCall) verifyRoot() error {
	header, err := c.blockchain.Header(chain.ByHash(c.hash))
	if err != nil {
		return newError(KindBackend, c.hash.String(), err)
	}
	if header == nil {
		return newError(KindUnknownBlock, c.hash.String(), fmt.Errorf("header not found"))
	}
	root := c.rebuilt.Root()
	if !commitment.EqualBytes(root, header.StateRoot) {
		return newError(KindInvalidExecutionProof, c.hash.String(),
			fmt.Errorf("state root mismatch: header has %x, proof has %s", header.StateRoot, root.String()))
	}
	c.moveTo(stageRootVerified)
	return nil
}

func (c *remoteCall) executeLocally() error {
	c.overlay = state.NewOverlayedChanges()
	var err error
	if c.output, err = execute(c.executor, c.rebuilt, c.overlay, c.hash.String(), c.method, c.input); err != nil {
		return err
	}
	c.moveTo(stageLocallyExecuted)
	return nil
}

func (c *remoteCall) verifyOutput() error {
	if !bytes.Equal(c.output, c.remoteOutput) {
		return newError(KindInvalidExecutionProof, c.hash.String(),
			fmt.Errorf("output mismatch: remote claims %s, local execution gives %s", util.Fmt(c.remoteOutput), util.Fmt(c.output)))
	}
	c.moveTo(stageOutputVerified)
	return nil
}
