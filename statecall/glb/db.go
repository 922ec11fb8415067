package glb

import (
	"encoding/hex"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lunfardo314/statecall/api/client"
	"github.com/lunfardo314/statecall/chain"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/kvstore"
	"github.com/spf13/viper"
)

var db kvstore.DB

func DBType() string {
	return viper.GetString(global.ConfigKeyDBType)
}

func DBDir() string {
	if ret := viper.GetString(global.ConfigKeyDBDir); ret != "" {
		return ret
	}
	return global.StateDBName
}

// OpenDB opens the database. If mustExist, the directory of the database must exist
func OpenDB(mustExist bool) kvstore.DB {
	dir := DBDir()
	if mustExist {
		_, err := os.Stat(dir)
		Assertf(err == nil, "database directory '%s' does not exist", dir)
	}
	Verbosef("%s database: %s", DBType(), dir)
	var err error
	db, err = kvstore.Open(DBType(), dir)
	AssertNoError(err)
	return db
}

func CloseDB() {
	if stopCtx != nil {
		stopCtx()
	}
	if db != nil {
		_ = db.Close()
	}
}

func LocalBackend() *chain.LocalBackend {
	return chain.NewLocalBackend(OpenDB(true))
}

func LightBackend() *chain.LightBackend {
	return chain.NewLightBackend(OpenDB(true))
}

// NewGlobal creates global object for the command. Logger and trace tags are taken from the config
func NewGlobal() *global.Global {
	return global.NewFromConfig()
}

func APIClient() *client.APIClient {
	url := viper.GetString(global.ConfigKeyRemoteURL)
	Assertf(url != "", "remote.url is not specified")
	timeout := viper.GetInt(global.ConfigKeyRemoteTimeout)
	if timeout <= 0 {
		timeout = global.DefaultRemoteTimeoutSec
	}
	return client.New(url, time.Duration(timeout)*time.Second)
}

func MustBlockID(s string) chain.BlockID {
	ret, err := chain.ParseBlockID(s)
	AssertNoError(err)
	return ret
}

// ParseBytes parses 0x-prefixed hex or takes the string as is
func ParseBytes(s string) []byte {
	if strings.HasPrefix(s, "0x") {
		ret, err := hexutil.Decode(s)
		AssertNoError(err)
		return ret
	}
	return []byte(s)
}

// FormatBytes returns printable string or hex
func FormatBytes(data []byte) string {
	for _, b := range data {
		if b < 0x20 || b > 0x7e {
			return "0x" + hex.EncodeToString(data)
		}
	}
	return string(data)
}
