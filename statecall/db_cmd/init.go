package db_cmd

import (
	"os"

	"github.com/lunfardo314/statecall/chain"
	"github.com/lunfardo314/statecall/genesis"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/statecall/glb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Init returns the 'db' command with its subcommands
func Init() *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "specifies subcommands on the database",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	dbCmd.AddCommand(
		initGenesisCmd(),
		initInfoCmd(),
		initDumpCmd(),
	)
	dbCmd.InitDefaultHelpCmd()
	return dbCmd
}

var light bool

func initGenesisCmd() *cobra.Command {
	genesisCmd := &cobra.Command{
		Use:   "init [<genesis file>]",
		Short: "creates database and imports genesis block. Without file the default genesis is used",
		Args:  cobra.MaximumNArgs(1),
		Run:   runGenesisCmd,
	}
	genesisCmd.Flags().BoolVar(&light, "light", false, "import genesis header only")

	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "writes template of the genesis file",
		Args:  cobra.NoArgs,
		Run:   runTemplateCmd,
	}
	genesisCmd.AddCommand(templateCmd)
	genesisCmd.InitDefaultHelpCmd()
	return genesisCmd
}

func runGenesisCmd(_ *cobra.Command, args []string) {
	var d *genesis.DataYAML
	var err error
	fname := viper.GetString(global.ConfigKeyGenesisFile)
	if len(args) > 0 {
		fname = args[0]
	}
	if fname == "" {
		d = genesis.DefaultData()
	} else {
		d, err = genesis.ReadFile(fname)
		glb.AssertNoError(err)
	}
	glb.Verbosef("genesis:\n%s", d.Lines("    ").String())

	dir := glb.DBDir()
	_, err = os.Stat(dir)
	glb.Assertf(os.IsNotExist(err), "database directory '%s' already exists", dir)

	db := glb.OpenDB(false)
	var imp genesis.Importer = chain.NewLocalBackend(db)
	if light {
		imp = chain.NewLightBackend(db)
	}
	h, err := genesis.InitGenesis(imp, d)
	glb.AssertNoError(err)
	glb.Infof("genesis block %s imported into '%s'. Light: %v", h.Hash().String(), dir, light)
}

func runTemplateCmd(_ *cobra.Command, _ []string) {
	_, err := os.Stat(genesis.DefaultFileName)
	glb.Assertf(os.IsNotExist(err), "file '%s' already exists", genesis.DefaultFileName)
	err = os.WriteFile(genesis.DefaultFileName, genesis.DefaultData().YAML(), 0o644)
	glb.AssertNoError(err)
	glb.Infof("genesis template has been written to '%s'", genesis.DefaultFileName)
}
