package call_cmd

import (
	"github.com/lunfardo314/statecall/chain"
	"github.com/lunfardo314/statecall/client"
	"github.com/lunfardo314/statecall/runtime"
	"github.com/lunfardo314/statecall/statecall/glb"
	"github.com/lunfardo314/statecall/util"
	"github.com/spf13/cobra"
)

var syncFirst bool

func InitRemoteCallCmd() *cobra.Command {
	rcallCmd := &cobra.Command{
		Use:   "rcall <block> <method> [<input>...]",
		Short: "executes runtime method remotely: fetches execution proof from the full node and verifies it",
		Long: `executes runtime method remotely. The execution proof is fetched from the full node
at 'remote.url' and checked against the state root in the header of the block in the local (light) database.
The method is re-executed on the proof and the output is compared with the output claimed by the full node`,
		Args: cobra.MinimumNArgs(2),
		Run:  runRemoteCallCmd,
	}
	rcallCmd.Flags().BoolVar(&syncFirst, "sync", false, "sync headers from the full node before the call")
	rcallCmd.InitDefaultHelpCmd()
	return rcallCmd
}

func runRemoteCallCmd(_ *cobra.Command, args []string) {
	id := glb.MustBlockID(args[0])
	method, input := methodAndInput(args[1:])

	backend := glb.LightBackend()
	apiClient := glb.APIClient()
	if syncFirst {
		n, err := apiClient.SyncHeaders(glb.Context(), backend.Store)
		glb.AssertNoError(err)
		glb.Verbosef("%d headers synced", n)
	}

	executor := client.NewRemoteCallExecutor(glb.NewGlobal(), backend.Blockchain(), runtime.NewWithBuiltins(), apiClient)
	res, err := executor.Call(glb.Context(), id, method, input)
	if kind, ok := client.KindOf(err); ok && kind == client.KindUnknownBlock {
		glb.Infof("block %s is not known locally. Try --sync", id.String())
	}
	glb.AssertNoError(err)

	glb.Infof("verified output: %s", glb.FormatBytes(res.ReturnData))
	if !res.Changes.IsEmpty() {
		glb.Infof("storage changes (not committed):\n%s", res.Changes.Lines("    ").String())
	}
}

func InitSyncCmd() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "imports headers from the full node at 'remote.url' into the light database",
		Args:  cobra.NoArgs,
		Run:   runSyncCmd,
	}
	syncCmd.InitDefaultHelpCmd()
	return syncCmd
}

func runSyncCmd(_ *cobra.Command, _ []string) {
	store := chain.NewStore(glb.OpenDB(true))
	apiClient := glb.APIClient()

	info, err := apiClient.GetNodeInfo(glb.Context())
	glb.AssertNoError(err)
	glb.Infof("remote node: version %s, chain id %d, best block #%d", info.Version, info.ChainID, info.BestNumber)

	n, err := apiClient.SyncHeaders(glb.Context(), store)
	glb.AssertNoError(err)
	best, err := store.BestHeader()
	glb.AssertNoError(err)
	if best == nil {
		glb.Infof("%s headers imported", util.Thousands(n))
		return
	}
	glb.Infof("%s headers imported. Best block is #%d %s", util.Thousands(n), best.Number, best.Hash().String())
}
