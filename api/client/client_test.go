package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/lunfardo314/statecall/api/server"
	"github.com/lunfardo314/statecall/chain"
	statecall "github.com/lunfardo314/statecall/client"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/runtime"
	"github.com/lunfardo314/statecall/state"
	"github.com/lunfardo314/unitrie/common"
	"github.com/stretchr/testify/require"
)

type fullNode struct {
	*global.Global
	backend *chain.LocalBackend
	exec    *statecall.LocalCallExecutor
}

func (n *fullNode) ProveExecution(ctx context.Context, hash chain.Hash, method string, input []byte) ([]byte, [][]byte, error) {
	return n.exec.ProveExecution(ctx, hash, method, input)
}

func (n *fullNode) Header(id chain.BlockID) (*chain.Header, error) {
	return n.backend.Header(id)
}

func (n *fullNode) BestHeader() (*chain.Header, error) {
	return n.backend.BestHeader()
}

// newFullNode makes chain of 2 blocks
func newFullNode(t *testing.T) *fullNode {
	glb := global.NewDefault()
	glb.EnableTraceTags(server.TraceTag)
	backend := chain.NewLocalBackend(common.NewInMemoryKVStore())

	pairs := []state.KVPair{{Key: []byte("a"), Value: []byte("1")}}
	op, err := backend.BeginGenesisOperation()
	require.NoError(t, err)
	genesis := &chain.Header{StateRoot: state.NewInMemory(pairs...).Root().Bytes()}
	op.ResetStorage(pairs)
	op.SetBlockData(genesis, true)
	require.NoError(t, backend.CommitOperation(op))

	ret := &fullNode{
		Global:  glb,
		backend: backend,
		exec:    statecall.NewLocalCallExecutor(glb, backend, runtime.NewWithBuiltins()),
	}
	// block 1 is the result of the call
	res, err := ret.exec.Call(context.Background(), chain.ByNumber(0), runtime.MethodStorageSet, runtime.EncodeSetInput([]byte("b"), []byte("2")))
	require.NoError(t, err)
	op, err = backend.BeginOperation(chain.ByNumber(0))
	require.NoError(t, err)
	root := state.NewExt(res.Changes, op.State()).StorageRoot()
	op.SetStorage(res.Changes.Changes())
	op.SetBlockData(&chain.Header{ParentHash: genesis.Hash(), Number: 1, StateRoot: root.Bytes()}, true)
	require.NoError(t, backend.CommitOperation(op))
	return ret
}

func TestAPIClient(t *testing.T) {
	node := newFullNode(t)
	srv := httptest.NewServer(server.New("", node).HTTPHandler())
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	t.Run("node info", func(t *testing.T) {
		info, err := c.GetNodeInfo(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 1, info.BestNumber)
		require.EqualValues(t, global.ChainID, info.ChainID)
	})
	t.Run("get header", func(t *testing.T) {
		h1, err := c.GetHeader(ctx, chain.ByNumber(1))
		require.NoError(t, err)
		require.EqualValues(t, 1, h1.Number)

		h1back, err := c.GetHeader(ctx, chain.ByHash(h1.Hash()))
		require.NoError(t, err)
		require.EqualValues(t, h1.Hash(), h1back.Hash())

		_, err = c.GetHeader(ctx, chain.ByNumber(100))
		require.Error(t, err)
	})
	t.Run("execution proof", func(t *testing.T) {
		h1, err := c.GetHeader(ctx, chain.ByNumber(1))
		require.NoError(t, err)
		out, proof, err := c.ExecutionProof(ctx, h1.Hash(), runtime.MethodStorageGet, []byte("b"))
		require.NoError(t, err)
		require.EqualValues(t, "2", string(out))
		require.EqualValues(t, 4, len(proof))

		_, _, err = c.ExecutionProof(ctx, chain.Hash{}, runtime.MethodStorageGet, []byte("b"))
		require.Error(t, err)
	})
	t.Run("light client over http", func(t *testing.T) {
		light := chain.NewLightBackend(common.NewInMemoryKVStore())
		n, err := c.SyncHeaders(ctx, light.Store)
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		n, err = c.SyncHeaders(ctx, light.Store)
		require.NoError(t, err)
		require.EqualValues(t, 0, n)

		exec := statecall.NewRemoteCallExecutor(node.Global, light, runtime.NewWithBuiltins(), c)
		res, err := exec.Call(ctx, chain.ByNumber(1), runtime.MethodStorageGet, []byte("a"))
		require.NoError(t, err)
		require.EqualValues(t, "1", string(res.ReturnData))

		_, err = exec.Call(ctx, chain.ByNumber(1), runtime.MethodStorageGet, []byte("zzz"))
		require.Error(t, err)
	})
	t.Run("light store anchored at other genesis", func(t *testing.T) {
		light := chain.NewLightBackend(common.NewInMemoryKVStore())
		otherGenesis := &chain.Header{StateRoot: state.NewInMemory().Root().Bytes(), Extra: []byte("other")}
		require.NoError(t, light.ImportHeader(otherGenesis, true))

		n, err := c.SyncHeaders(ctx, light.Store)
		require.ErrorIs(t, err, chain.ErrUnknownBlock)
		require.EqualValues(t, 0, n)

		best, err := light.BestHeader()
		require.NoError(t, err)
		require.EqualValues(t, otherGenesis.Hash(), best.Hash())
	})
}
