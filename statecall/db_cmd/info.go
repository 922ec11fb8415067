package db_cmd

import (
	"github.com/lunfardo314/statecall/chain"
	"github.com/lunfardo314/statecall/statecall/glb"
	"github.com/spf13/cobra"
)

func initInfoCmd() *cobra.Command {
	dbInfoCmd := &cobra.Command{
		Use:   "info [<block>]",
		Short: "displays header of the block. Default is the best block",
		Args:  cobra.MaximumNArgs(1),
		Run:   runDbInfoCmd,
	}
	dbInfoCmd.InitDefaultHelpCmd()
	return dbInfoCmd
}

func runDbInfoCmd(_ *cobra.Command, args []string) {
	store := chain.NewStore(glb.OpenDB(true))

	var h *chain.Header
	var err error
	if len(args) == 0 {
		h, err = store.BestHeader()
		glb.AssertNoError(err)
		glb.Assertf(h != nil, "database is empty")
	} else {
		h, err = store.MustHeader(glb.MustBlockID(args[0]))
		glb.AssertNoError(err)
	}
	glb.Infof("database: %s", glb.DBDir())
	glb.Infof("%s", h.Lines("    ").String())
}

func initDumpCmd() *cobra.Command {
	dumpCmd := &cobra.Command{
		Use:   "dump [<block>]",
		Short: "lists storage of the block. Default is the best block",
		Args:  cobra.MaximumNArgs(1),
		Run:   runDumpCmd,
	}
	dumpCmd.InitDefaultHelpCmd()
	return dumpCmd
}

func runDumpCmd(_ *cobra.Command, args []string) {
	backend := glb.LocalBackend()

	var id chain.BlockID
	if len(args) == 0 {
		best, err := backend.BestHeader()
		glb.AssertNoError(err)
		glb.Assertf(best != nil, "database is empty")
		id = chain.ByHash(best.Hash())
	} else {
		id = glb.MustBlockID(args[0])
	}
	st, err := backend.StateAt(id)
	glb.AssertNoError(err)
	pairs, err := st.Pairs()
	glb.AssertNoError(err)

	glb.Infof("storage of the block %s (%d keys):", id.String(), len(pairs))
	for _, p := range pairs {
		glb.Infof("    %s: %s", glb.FormatBytes(p.Key), glb.FormatBytes(p.Value))
	}
}
