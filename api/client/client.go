package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lunfardo314/statecall/api"
	"github.com/lunfardo314/statecall/chain"
)

const apiDefaultClientTimeout = 7 * time.Second

type APIClient struct {
	c      http.Client
	prefix string
}

func New(serverURL string, timeout ...time.Duration) *APIClient {
	var to time.Duration
	if len(timeout) > 0 {
		to = timeout[0]
	} else {
		to = apiDefaultClientTimeout
	}
	return &APIClient{
		c:      http.Client{Timeout: to},
		prefix: serverURL,
	}
}

// ExecutionProof requests the output and the proof of the call from the full node
func (c *APIClient) ExecutionProof(ctx context.Context, hash chain.Hash, method string, input []byte) ([]byte, [][]byte, error) {
	q := url.Values{}
	q.Set("block", hash.String())
	q.Set("method", method)
	if len(input) > 0 {
		q.Set("input", hexutil.Encode(input))
	}
	body, err := c.getBody(ctx, api.PathGetExecutionProof+"?"+q.Encode())
	if err != nil {
		return nil, nil, err
	}
	var res api.ExecutionProof
	if err = json.Unmarshal(body, &res); err != nil {
		return nil, nil, err
	}
	if res.Error.Error != "" {
		return nil, nil, fmt.Errorf("ExecutionProof: from server: %s", res.Error.Error)
	}
	proof, err := api.DecodeProof(res.Proof)
	if err != nil {
		return nil, nil, err
	}
	return res.Output, proof, nil
}

// GetHeader fetches header from the server. The hash of the received header is checked if requested by hash
func (c *APIClient) GetHeader(ctx context.Context, id chain.BlockID) (*chain.Header, error) {
	body, err := c.getBody(ctx, api.PathGetHeader+"?block="+url.QueryEscape(blockParam(id)))
	if err != nil {
		return nil, err
	}
	var res api.Header
	if err = json.Unmarshal(body, &res); err != nil {
		return nil, err
	}
	if res.Error.Error != "" {
		return nil, fmt.Errorf("GetHeader: from server: %s", res.Error.Error)
	}
	ret, err := chain.HeaderFromBytes(res.HeaderBytes)
	if err != nil {
		return nil, err
	}
	if !id.ByNumber && ret.Hash() != id.Hash {
		return nil, fmt.Errorf("GetHeader: wrong header received for %s", id.String())
	}
	if id.ByNumber && ret.Number != id.Number {
		return nil, fmt.Errorf("GetHeader: wrong header received for %s: number is %d", id.String(), ret.Number)
	}
	return ret, nil
}

func (c *APIClient) GetNodeInfo(ctx context.Context) (*api.NodeInfo, error) {
	body, err := c.getBody(ctx, api.PathGetNodeInfo)
	if err != nil {
		return nil, err
	}
	var res api.NodeInfo
	if err = json.Unmarshal(body, &res); err != nil {
		return nil, err
	}
	if res.Error.Error != "" {
		return nil, fmt.Errorf("GetNodeInfo: from server: %s", res.Error.Error)
	}
	return &res, nil
}

// SyncHeaders imports into the store headers from the local best block up to the best block of the server.
// Returns number of imported headers.
// Headers are trusted as served: the only checks are the requested number and hash, and the link to the
// parent already in the store. If the same server later provides execution proofs, the state roots the proofs
// are verified against come from that server too. Seed the store with a trusted genesis header
// (or sync from a trusted node) to anchor the chain
func (c *APIClient) SyncHeaders(ctx context.Context, store *chain.Store) (int, error) {
	info, err := c.GetNodeInfo(ctx)
	if err != nil {
		return 0, err
	}
	from := uint64(0)
	best, err := store.BestHeader()
	if err != nil {
		return 0, err
	}
	if best != nil {
		from = best.Number + 1
	}
	count := 0
	for n := from; n <= info.BestNumber; n++ {
		if info.BestHash == "" {
			break
		}
		h, err := c.GetHeader(ctx, chain.ByNumber(n))
		if err != nil {
			return count, err
		}
		if err = store.ImportHeader(h, true); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func blockParam(id chain.BlockID) string {
	if id.ByNumber {
		return fmt.Sprintf("%d", id.Number)
	}
	return id.Hash.String()
}

func (c *APIClient) getBody(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.prefix+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}
