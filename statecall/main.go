package main

import (
	"os"

	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/statecall/call_cmd"
	"github.com/lunfardo314/statecall/statecall/db_cmd"
	"github.com/lunfardo314/statecall/statecall/glb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configName string

func main() {
	rootCmd := &cobra.Command{
		Use:   "statecall",
		Short: "a simple CLI for the state call node and the light client",
		Long: `statecall is a CLI tool for the statecall node database and for remote calls.
It executes runtime methods locally against the state of the block or remotely,
by verifying the execution proof fetched from the full node`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			initConfig()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configName, "config", "c", "", "config file name without extension (default is statecall)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	glb.AssertNoError(err)

	rootCmd.PersistentFlags().String("db", "", "database directory")
	err = viper.BindPFlag(global.ConfigKeyDBDir, rootCmd.PersistentFlags().Lookup("db"))
	glb.AssertNoError(err)

	rootCmd.PersistentFlags().String("remote", "", "API endpoint of the full node")
	err = viper.BindPFlag(global.ConfigKeyRemoteURL, rootCmd.PersistentFlags().Lookup("remote"))
	glb.AssertNoError(err)

	viper.SetDefault(global.ConfigKeyDBType, global.DBTypeBadger)
	viper.SetDefault(global.ConfigKeyRemoteTimeout, global.DefaultRemoteTimeoutSec)
	viper.SetDefault(global.ConfigKeyLoggerLevel, "info")

	rootCmd.AddCommand(
		db_cmd.Init(),
		call_cmd.InitCallCmd(),
		call_cmd.InitRemoteCallCmd(),
		call_cmd.InitSyncCmd(),
	)
	rootCmd.InitDefaultHelpCmd()

	defer glb.CloseDB()
	if err = rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	if configName == "" {
		configName = "statecall"
	}
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName(configName)
	viper.SetConfigFile("./" + configName + ".yaml")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		glb.Verbosef("using profile: %s", viper.ConfigFileUsed())
	} else {
		glb.Verbosef("profile has not been read: %v", err)
	}
}
