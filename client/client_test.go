package client

import (
	"context"
	"errors"
	"testing"

	"github.com/lunfardo314/statecall/chain"
	"github.com/lunfardo314/statecall/commitment"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/runtime"
	"github.com/lunfardo314/statecall/state"
	"github.com/lunfardo314/unitrie/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const methodAnswer = "answer"

func kv(k, v string) state.KVPair {
	return state.KVPair{Key: []byte(k), Value: []byte(v)}
}

// testRuntime is builtins plus 'answer', which reads 'a' and 'b' and returns 42
func testRuntime() *runtime.Dispatcher {
	return runtime.NewWithBuiltins().Register(methodAnswer, func(ext state.Externalities, _ []byte) ([]byte, error) {
		a, _ := ext.Storage([]byte("a"))
		b, _ := ext.Storage([]byte("b"))
		ext.PlaceStorage([]byte("answered"), []byte{1})
		if string(a) == "1" && string(b) == "2" {
			return []byte("42"), nil
		}
		return []byte("??"), nil
	})
}

func testEnv() *global.Global {
	ret := global.NewDefault()
	ret.EnableTraceTags(TraceTagLocal, TraceTagRemote)
	return ret
}

type stateProviderFunc func(id chain.BlockID) (state.Backend, error)

func (f stateProviderFunc) StateAt(id chain.BlockID) (state.Backend, error) {
	return f(id)
}

type failingBackend struct{}

func (failingBackend) Storage(_ []byte) ([]byte, bool, error) {
	return nil, false, errors.New("i/o error")
}

func (failingBackend) Pairs() ([]state.KVPair, error) {
	return nil, errors.New("i/o error")
}

// newFullNode creates local backend with genesis state
func newFullNode(t *testing.T, pairs ...state.KVPair) (*chain.LocalBackend, *chain.Header) {
	b := chain.NewLocalBackend(common.NewInMemoryKVStore())
	op, err := b.BeginGenesisOperation()
	require.NoError(t, err)
	h := &chain.Header{StateRoot: state.NewInMemory(pairs...).Root().Bytes()}
	op.ResetStorage(pairs)
	op.SetBlockData(h, true)
	require.NoError(t, b.CommitOperation(op))
	return b, h
}

func TestErrors(t *testing.T) {
	cause := errors.New("cause")
	err := error(newError(KindInvalidExecutionProof, "#1", cause))
	require.ErrorIs(t, err, ErrInvalidExecutionProof)
	require.ErrorIs(t, err, cause)
	require.False(t, errors.Is(err, ErrExecution))
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.EqualValues(t, KindInvalidExecutionProof, kind)
	require.Contains(t, err.Error(), "#1")

	err = newError(KindUnknownBlock, "", nil)
	require.ErrorIs(t, err, ErrUnknownBlock)
	require.EqualValues(t, ErrUnknownBlock.Error(), err.Error())

	_, ok = KindOf(cause)
	require.False(t, ok)
}

func TestProofCodec(t *testing.T) {
	codec := FlatProofCodec{}
	t.Run("round trip", func(t *testing.T) {
		pairs := []state.KVPair{kv("a", "1"), kv("b", "2"), kv("e", "")}
		proof := codec.Encode(pairs)
		require.EqualValues(t, 6, len(proof))
		require.EqualValues(t, "a", string(proof[0]))
		require.EqualValues(t, "1", string(proof[1]))

		rebuilt, err := codec.Decode(proof)
		require.NoError(t, err)
		back, err := rebuilt.Pairs()
		require.NoError(t, err)
		require.EqualValues(t, pairs, back)
	})
	t.Run("last value wins", func(t *testing.T) {
		rebuilt, err := codec.Decode(ExecutionProof{[]byte("a"), []byte("1"), []byte("a"), []byte("2")})
		require.NoError(t, err)
		require.EqualValues(t, 1, rebuilt.Len())
		v, _, _ := rebuilt.Storage([]byte("a"))
		require.EqualValues(t, "2", string(v))
	})
	t.Run("odd length", func(t *testing.T) {
		_, err := codec.Decode(ExecutionProof{[]byte("a"), []byte("1"), []byte("b")})
		require.ErrorIs(t, err, ErrMalformedProof)
	})
	t.Run("nil value is empty value", func(t *testing.T) {
		rebuilt, err := codec.Decode(ExecutionProof{[]byte("a"), nil})
		require.NoError(t, err)
		v, found, _ := rebuilt.Storage([]byte("a"))
		require.True(t, found)
		require.EqualValues(t, 0, len(v))
	})
	t.Run("state to proof", func(t *testing.T) {
		proof, err := StateToExecutionProof(state.NewInMemory(kv("b", "2"), kv("a", "1")), codec)
		require.NoError(t, err)
		require.EqualValues(t, ExecutionProof{[]byte("a"), []byte("1"), []byte("b"), []byte("2")}, proof)

		_, err = StateToExecutionProof(failingBackend{}, codec)
		require.Error(t, err)
	})
}

func TestLocalCallExecutor(t *testing.T) {
	env := testEnv()
	backend, _ := newFullNode(t, kv("a", "1"))
	exec := NewLocalCallExecutor(env, backend, testRuntime())
	ctx := context.Background()

	t.Run("write is in the prospective changes", func(t *testing.T) {
		res, err := exec.Call(ctx, chain.ByNumber(0), runtime.MethodStorageSet, runtime.EncodeSetInput([]byte("a"), []byte("2")))
		require.NoError(t, err)
		require.EqualValues(t, map[string][]byte{"a": []byte("2")}, res.Changes.Prospective())
		require.EqualValues(t, 0, res.Changes.CommittedLen())

		st, err := backend.StateAt(chain.ByNumber(0))
		require.NoError(t, err)
		v, found := state.NewExt(res.Changes, st).Storage([]byte("a"))
		require.True(t, found)
		require.EqualValues(t, "2", string(v))

		// backend does not change
		v, _, err = st.Storage([]byte("a"))
		require.NoError(t, err)
		require.EqualValues(t, "1", string(v))
	})
	t.Run("unknown block", func(t *testing.T) {
		_, err := exec.Call(ctx, chain.ByNumber(5), runtime.MethodChainID, nil)
		require.ErrorIs(t, err, ErrUnknownBlock)
		_, err = exec.Call(ctx, chain.ByHash(chain.Hash{}), runtime.MethodChainID, nil)
		require.ErrorIs(t, err, ErrUnknownBlock)
	})
	t.Run("execution error", func(t *testing.T) {
		_, err := exec.Call(ctx, chain.ByNumber(0), runtime.MethodStorageGet, []byte("zzz"))
		require.ErrorIs(t, err, ErrExecution)
		require.ErrorIs(t, err, runtime.ErrKeyNotFound)

		_, err = exec.Call(ctx, chain.ByNumber(0), "no_such_method", nil)
		require.ErrorIs(t, err, ErrExecution)
	})
	t.Run("runtime panic", func(t *testing.T) {
		e := NewLocalCallExecutor(env, backend, state.CodeExecutorFunc(func(_ state.Externalities, _ string, _ []byte) ([]byte, error) {
			panic("trap")
		}))
		_, err := e.Call(ctx, chain.ByNumber(0), "m", nil)
		require.ErrorIs(t, err, ErrExecution)
		require.ErrorIs(t, err, state.ErrRuntimePanic)
	})
	t.Run("backend failure", func(t *testing.T) {
		e := NewLocalCallExecutor(env, stateProviderFunc(func(_ chain.BlockID) (state.Backend, error) {
			return failingBackend{}, nil
		}), testRuntime())
		_, err := e.Call(ctx, chain.ByNumber(0), runtime.MethodStorageGet, []byte("a"))
		require.ErrorIs(t, err, ErrBackend)
		require.ErrorIs(t, err, state.ErrExternalitiesViolated)
	})
	t.Run("state not available", func(t *testing.T) {
		light := chain.NewLightBackend(common.NewInMemoryKVStore())
		e := NewLocalCallExecutor(env, light, testRuntime())
		_, err := e.Call(ctx, chain.ByNumber(0), runtime.MethodChainID, nil)
		require.ErrorIs(t, err, ErrNotAvailableOnLightClient)
	})
	t.Run("call at state", func(t *testing.T) {
		overlay := state.NewOverlayedChanges()
		overlay.SetStorage([]byte("x"), []byte("overlay"))
		out, err := exec.CallAtState(ctx, state.NewInMemory(kv("x", "backend")), overlay, runtime.MethodStorageGet, []byte("x"))
		require.NoError(t, err)
		require.EqualValues(t, "overlay", string(out))
	})
	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := exec.Call(cctx, chain.ByNumber(0), runtime.MethodChainID, nil)
		require.ErrorIs(t, err, context.Canceled)
	})
	t.Run("prove execution", func(t *testing.T) {
		h, found, err := backend.Hash(0)
		require.NoError(t, err)
		require.True(t, found)
		out, proof, err := exec.ProveExecution(ctx, h, runtime.MethodStorageGet, []byte("a"))
		require.NoError(t, err)
		require.EqualValues(t, "1", string(out))
		require.EqualValues(t, [][]byte{[]byte("a"), []byte("1")}, proof)
	})
}

func TestRemoteCallExecutor(t *testing.T) {
	validPairs := []state.KVPair{kv("a", "1"), kv("b", "2")}
	header := &chain.Header{StateRoot: state.NewInMemory(validPairs...).Root().Bytes()}
	hash := header.Hash()
	validProof := [][]byte(FlatProofCodec{}.Encode(validPairs))
	ctx := context.Background()

	setup := func(t *testing.T) (*RemoteCallExecutor, *MockBlockchain, *MockFetcher) {
		ctrl := gomock.NewController(t)
		bc := NewMockBlockchain(ctrl)
		fetcher := NewMockFetcher(ctrl)
		any := gomock.Any()
		bc.EXPECT().Hash(uint64(0)).Return(hash, true, nil).AnyTimes()
		bc.EXPECT().Header(chain.ByHash(hash)).Return(header, nil).AnyTimes()
		bc.EXPECT().Hash(any).Return(chain.Hash{}, false, nil).AnyTimes()
		bc.EXPECT().Header(any).Return(nil, nil).AnyTimes()
		return NewRemoteCallExecutor(testEnv(), bc, testRuntime(), fetcher), bc, fetcher
	}

	t.Run("valid proof", func(t *testing.T) {
		exec, _, fetcher := setup(t)
		fetcher.EXPECT().ExecutionProof(gomock.Any(), hash, methodAnswer, nil).Return([]byte("42"), validProof, nil).Times(1)

		res, err := exec.Call(ctx, chain.ByNumber(0), methodAnswer, nil)
		require.NoError(t, err)
		require.EqualValues(t, "42", string(res.ReturnData))
		require.EqualValues(t, map[string][]byte{"answered": {1}}, res.Changes.Prospective())
	})
	t.Run("valid proof by hash", func(t *testing.T) {
		exec, _, fetcher := setup(t)
		fetcher.EXPECT().ExecutionProof(gomock.Any(), hash, methodAnswer, nil).Return([]byte("42"), validProof, nil).Times(1)

		res, err := exec.Call(ctx, chain.ByHash(hash), methodAnswer, nil)
		require.NoError(t, err)
		require.EqualValues(t, "42", string(res.ReturnData))
	})
	t.Run("tampered proof", func(t *testing.T) {
		exec, _, fetcher := setup(t)
		tampered := [][]byte(FlatProofCodec{}.Encode([]state.KVPair{kv("a", "9")}))
		fetcher.EXPECT().ExecutionProof(gomock.Any(), hash, methodAnswer, nil).Return([]byte("42"), tampered, nil).Times(1)

		res, err := exec.Call(ctx, chain.ByNumber(0), methodAnswer, nil)
		require.ErrorIs(t, err, ErrInvalidExecutionProof)
		require.Nil(t, res)
		require.EqualValues(t, 1, testutil.ToFloat64(exec.metrics.proofFailures))
	})
	t.Run("tampered claim", func(t *testing.T) {
		exec, _, fetcher := setup(t)
		fetcher.EXPECT().ExecutionProof(gomock.Any(), hash, methodAnswer, nil).Return([]byte("43"), validProof, nil).Times(1)

		res, err := exec.Call(ctx, chain.ByNumber(0), methodAnswer, nil)
		require.ErrorIs(t, err, ErrInvalidExecutionProof)
		require.Nil(t, res)
	})
	t.Run("odd length proof", func(t *testing.T) {
		exec, _, fetcher := setup(t)
		odd := append(validProof[:len(validProof):len(validProof)], []byte("c"))
		fetcher.EXPECT().ExecutionProof(gomock.Any(), hash, methodAnswer, nil).Return([]byte("42"), odd, nil).Times(1)

		_, err := exec.Call(ctx, chain.ByNumber(0), methodAnswer, nil)
		require.ErrorIs(t, err, ErrInvalidExecutionProof)
		require.ErrorIs(t, err, ErrMalformedProof)
	})
	t.Run("unknown block number", func(t *testing.T) {
		exec, _, _ := setup(t)
		_, err := exec.Call(ctx, chain.ByNumber(7), methodAnswer, nil)
		require.ErrorIs(t, err, ErrUnknownBlock)
	})
	t.Run("unknown block hash", func(t *testing.T) {
		exec, _, fetcher := setup(t)
		unknown := chain.Hash{1, 2, 3}
		fetcher.EXPECT().ExecutionProof(gomock.Any(), unknown, methodAnswer, nil).Return([]byte("42"), validProof, nil).Times(1)

		_, err := exec.Call(ctx, chain.ByHash(unknown), methodAnswer, nil)
		require.ErrorIs(t, err, ErrUnknownBlock)
	})
	t.Run("fetch failure is returned as is", func(t *testing.T) {
		exec, _, fetcher := setup(t)
		errFetch := errors.New("no peers")
		fetcher.EXPECT().ExecutionProof(gomock.Any(), hash, methodAnswer, nil).Return(nil, nil, errFetch).Times(1)

		_, err := exec.Call(ctx, chain.ByNumber(0), methodAnswer, nil)
		require.Equal(t, errFetch, err)
	})
	t.Run("execution error", func(t *testing.T) {
		exec, _, fetcher := setup(t)
		fetcher.EXPECT().ExecutionProof(gomock.Any(), hash, runtime.MethodStorageGet, []byte("zzz")).Return(nil, validProof, nil).Times(1)

		_, err := exec.Call(ctx, chain.ByNumber(0), runtime.MethodStorageGet, []byte("zzz"))
		require.ErrorIs(t, err, ErrExecution)
	})
	t.Run("call at state", func(t *testing.T) {
		exec, _, _ := setup(t)
		_, err := exec.CallAtState(ctx, state.NewInMemory(), state.NewOverlayedChanges(), methodAnswer, nil)
		require.ErrorIs(t, err, ErrNotAvailableOnLightClient)
	})
}

// TestFullAndLight runs the light client against the full node in the same process
func TestFullAndLight(t *testing.T) {
	env := testEnv()
	full, genesis := newFullNode(t, kv("a", "1"), kv("b", "2"))
	fullExec := NewLocalCallExecutor(env, full, testRuntime())

	light := chain.NewLightBackend(common.NewInMemoryKVStore())
	require.NoError(t, light.ImportHeader(genesis, true))

	lightExec := NewRemoteCallExecutor(env, light, testRuntime(), fullExec.AsFetcher())
	ctx := context.Background()

	res, err := lightExec.Call(ctx, chain.ByNumber(0), methodAnswer, nil)
	require.NoError(t, err)
	require.EqualValues(t, "42", string(res.ReturnData))

	res, err = lightExec.Call(ctx, chain.ByNumber(0), runtime.MethodStorageRoot, nil)
	require.NoError(t, err)
	require.True(t, commitment.EqualBytes(state.NewInMemory(kv("a", "1"), kv("b", "2")).Root(), res.ReturnData))

	_, err = lightExec.Call(ctx, chain.ByNumber(1), methodAnswer, nil)
	require.ErrorIs(t, err, ErrUnknownBlock)

	lightFetcherWithLie := FetcherFunc(func(ctx context.Context, hash chain.Hash, method string, input []byte) ([]byte, [][]byte, error) {
		_, proof, err := fullExec.ProveExecution(ctx, hash, method, input)
		return []byte("lie"), proof, err
	})
	liar := NewRemoteCallExecutor(env, light, testRuntime(), lightFetcherWithLie)
	_, err = liar.Call(ctx, chain.ByNumber(0), methodAnswer, nil)
	require.ErrorIs(t, err, ErrInvalidExecutionProof)
}
