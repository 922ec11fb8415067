package client

import (
	"context"

	"github.com/lunfardo314/statecall/chain"
)

//go:generate mockgen -source fetcher.go -destination fetcher_mock.go -package client
//go:generate mockgen -destination blockchain_mock.go -package client github.com/lunfardo314/statecall/chain Blockchain

// Fetcher requests the execution proof of the call from a full node.
// It returns the output claimed by the remote node and the proof of the state
type Fetcher interface {
	ExecutionProof(ctx context.Context, hash chain.Hash, method string, input []byte) (output []byte, proof [][]byte, err error)
}

type FetcherFunc func(ctx context.Context, hash chain.Hash, method string, input []byte) ([]byte, [][]byte, error)

func (f FetcherFunc) ExecutionProof(ctx context.Context, hash chain.Hash, method string, input []byte) ([]byte, [][]byte, error) {
	return f(ctx, hash, method, input)
}
