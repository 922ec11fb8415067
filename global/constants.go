package global

const (
	// ChainID is the protocol identifying constant returned to the runtime by the externalities
	ChainID = uint64(42)

	StateDBName = "statecalldb"

	ConfigKeyDBType         = "db.type"
	ConfigKeyDBDir          = "db.dir"
	ConfigKeyAPIPort        = "api.server.port"
	ConfigKeyMetricsEnable  = "metrics.enable"
	ConfigKeyMetricsPort    = "metrics.port"
	ConfigKeyRemoteURL      = "remote.url"
	ConfigKeyRemoteTimeout  = "remote.timeout"
	ConfigKeyTraceTags      = "trace.tags"
	ConfigKeyGenesisFile    = "genesis.file"
	ConfigKeyLoggerLevel    = "logger.level"
	ConfigKeyLoggerOutput   = "logger.output"
	ConfigKeyLoggerTimeLyt  = "logger.timelayout"
	DBTypeBadger            = "badger"
	DBTypeLevelDB           = "leveldb"
	DefaultAPIPort          = 8000
	DefaultMetricsPort      = 14000
	DefaultRemoteTimeoutSec = 7
)
