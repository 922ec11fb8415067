package node

import (
	"errors"

	"github.com/lunfardo314/statecall/genesis"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/util"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const ConfigFileName = "statecall"

func init() {
	pflag.String(global.ConfigKeyLoggerLevel, "info", "log level")
	pflag.String(global.ConfigKeyLoggerTimeLyt, global.TimeLayoutDefault, "time format")
	pflag.String(global.ConfigKeyLoggerOutput, "stdout", "a list where to write log")

	pflag.String(global.ConfigKeyDBType, global.DBTypeBadger, "one of: badger | leveldb")
	pflag.String(global.ConfigKeyDBDir, global.StateDBName, "directory of the state database")
	pflag.String(global.ConfigKeyGenesisFile, genesis.DefaultFileName, "genesis file used when the database is empty")
	pflag.Int(global.ConfigKeyAPIPort, global.DefaultAPIPort, "port of the API server")
	pflag.Bool(global.ConfigKeyMetricsEnable, false, "expose Prometheus metrics")
	pflag.Int(global.ConfigKeyMetricsPort, global.DefaultMetricsPort, "port of the Prometheus metrics")
	pflag.StringSlice(global.ConfigKeyTraceTags, nil, "enabled trace tags")
}

// initConfig reads flags and the optional config file 'statecall.yaml' in the current directory
func initConfig() {
	pflag.Parse()
	err := viper.BindPFlags(pflag.CommandLine)
	util.AssertNoError(err)

	viper.SetConfigName(ConfigFileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err = viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		util.Assertf(errors.As(err, &notFound), "can't read config: %v", err)
	}
}
