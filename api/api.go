package api

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
)

const (
	PrefixAPIV1 = "/api/v1"

	PathGetExecutionProof = PrefixAPIV1 + "/execution_proof"
	PathGetHeader         = PrefixAPIV1 + "/get_header"
	PathGetNodeInfo       = PrefixAPIV1 + "/node_info"
)

type (
	Error struct {
		// empty string when no error
		Error string `json:"error,omitempty"`
	}

	// ExecutionProof is returned by 'execution_proof'
	ExecutionProof struct {
		Error
		// output of the call claimed by the node
		Output hexutil.Bytes `json:"output,omitempty"`
		// snappy-compressed RLP encoding of the sequence of byte strings
		Proof hexutil.Bytes `json:"proof,omitempty"`
	}

	// Header is returned by 'get_header'
	Header struct {
		Error
		Hash string `json:"hash,omitempty"`
		// RLP-encoded header
		HeaderBytes hexutil.Bytes `json:"header,omitempty"`
	}

	NodeInfo struct {
		Error
		Version    string `json:"version"`
		ChainID    uint64 `json:"chain_id"`
		BestNumber uint64 `json:"best_number"`
		BestHash   string `json:"best_hash"`
	}
)

// EncodeProof encodes the proof for the wire
func EncodeProof(proof [][]byte) ([]byte, error) {
	data, err := rlp.EncodeToBytes(proof)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, data), nil
}

func DecodeProof(data []byte) ([][]byte, error) {
	decompressed, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("DecodeProof: %w", err)
	}
	var ret [][]byte
	if err = rlp.DecodeBytes(decompressed, &ret); err != nil {
		return nil, fmt.Errorf("DecodeProof: %w", err)
	}
	return ret, nil
}
