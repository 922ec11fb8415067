// Package genesis creates the genesis block: the initial state from the YAML file and the header of block 0
package genesis

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lunfardo314/statecall/chain"
	"github.com/lunfardo314/statecall/state"
	"github.com/lunfardo314/statecall/util"
	"github.com/lunfardo314/statecall/util/lines"
	"gopkg.in/yaml.v2"
)

type (
	// DataYAML is the content of the genesis file. Keys and values are either plain strings
	// or 0x-prefixed hex
	DataYAML struct {
		Description string       `yaml:"description"`
		Extra       string       `yaml:"extra"`
		Storage     []KVPairYAML `yaml:"storage"`
	}

	KVPairYAML struct {
		Key   string `yaml:"key"`
		Value string `yaml:"value"`
	}

	// Importer is implemented by both local and light backends
	Importer interface {
		BeginGenesisOperation() (*chain.BlockImportOperation, error)
		CommitOperation(op *chain.BlockImportOperation) error
	}
)

const DefaultFileName = "genesis.yaml"

func DefaultData() *DataYAML {
	return &DataYAML{
		Description: "statecall genesis",
		Storage: []KVPairYAML{
			{Key: "greeting", Value: "hello"},
		},
	}
}

func FromYAML(data []byte) (*DataYAML, error) {
	ret := &DataYAML{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("genesis.FromYAML: %w", err)
	}
	return ret, nil
}

func ReadFile(fname string) (*DataYAML, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

func (d *DataYAML) YAML() []byte {
	ret, err := yaml.Marshal(d)
	util.AssertNoError(err)
	return ret
}

// Pairs decodes the storage. Repeating keys are not allowed
func (d *DataYAML) Pairs() ([]state.KVPair, error) {
	ret := make([]state.KVPair, 0, len(d.Storage))
	seen := make(map[string]struct{})
	for i, p := range d.Storage {
		key, err := decodeString(p.Key)
		if err != nil {
			return nil, fmt.Errorf("genesis storage #%d: wrong key: %w", i, err)
		}
		if _, already := seen[string(key)]; already {
			return nil, fmt.Errorf("genesis storage #%d: repeating key '%s'", i, p.Key)
		}
		seen[string(key)] = struct{}{}
		value, err := decodeString(p.Value)
		if err != nil {
			return nil, fmt.Errorf("genesis storage #%d: wrong value: %w", i, err)
		}
		ret = append(ret, state.KVPair{Key: key, Value: value})
	}
	return ret, nil
}

// Header returns genesis header. It does not depend on the order of the storage pairs
func (d *DataYAML) Header() (*chain.Header, error) {
	pairs, err := d.Pairs()
	if err != nil {
		return nil, err
	}
	extra, err := decodeString(d.Extra)
	if err != nil {
		return nil, err
	}
	return &chain.Header{
		Number:    0,
		StateRoot: state.NewInMemory(pairs...).Root().Bytes(),
		Extra:     extra,
	}, nil
}

func (d *DataYAML) Lines(prefix ...string) *lines.Lines {
	ret := lines.New(prefix...).
		Add("description: %s", d.Description).
		Add("extra: %s", d.Extra).
		Add("storage (%d pairs):", len(d.Storage))
	for _, p := range d.Storage {
		ret.Add("    %s: %s", p.Key, p.Value)
	}
	return ret
}

// InitGenesis imports genesis block into the backend. The light backend imports the header only
func InitGenesis(backend Importer, d *DataYAML) (*chain.Header, error) {
	header, err := d.Header()
	if err != nil {
		return nil, err
	}
	op, err := backend.BeginGenesisOperation()
	if err != nil {
		return nil, err
	}
	if op.State() != nil {
		pairs, err := d.Pairs()
		if err != nil {
			return nil, err
		}
		op.ResetStorage(pairs)
	}
	op.SetBlockData(header, true)
	if err = backend.CommitOperation(op); err != nil {
		return nil, err
	}
	return header, nil
}

func decodeString(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") {
		return hexutil.Decode(s)
	}
	return []byte(s), nil
}
