package call_cmd

import (
	"github.com/lunfardo314/statecall/chain"
	"github.com/lunfardo314/statecall/client"
	"github.com/lunfardo314/statecall/runtime"
	"github.com/lunfardo314/statecall/state"
	"github.com/lunfardo314/statecall/statecall/glb"
	"github.com/spf13/cobra"
)

var commit bool

func InitCallCmd() *cobra.Command {
	callCmd := &cobra.Command{
		Use:   "call <block> <method> [<input>...]",
		Short: "executes runtime method against the state of the block in the local database",
		Long: `executes runtime method against the state of the block in the local database.
Block is either a number or a hash. Input is a string or 0x-prefixed hex.
Method 'storage_set' takes key and value as two inputs`,
		Args: cobra.MinimumNArgs(2),
		Run:  runCallCmd,
	}
	callCmd.Flags().BoolVar(&commit, "commit", false, "import the changes of the call as a new best block on top of the block")
	callCmd.InitDefaultHelpCmd()
	return callCmd
}

func runCallCmd(_ *cobra.Command, args []string) {
	id := glb.MustBlockID(args[0])
	method, input := methodAndInput(args[1:])

	backend := glb.LocalBackend()

	rt := runtime.NewWithBuiltins()
	glb.Assertf(containsMethod(rt, method), "unknown method '%s'. Available: %v", method, rt.Methods())

	executor := client.NewLocalCallExecutor(glb.NewGlobal(), backend, rt)
	res, err := executor.Call(glb.Context(), id, method, input)
	glb.AssertNoError(err)

	glb.Infof("output: %s", glb.FormatBytes(res.ReturnData))
	if res.Changes.IsEmpty() {
		glb.Verbosef("no storage changes")
		return
	}
	glb.Infof("storage changes:\n%s", res.Changes.Lines("    ").String())
	if !commit {
		return
	}
	h, err := commitChanges(backend, id, res.Changes)
	glb.AssertNoError(err)
	glb.Infof("new block imported:\n%s", h.Lines("    ").String())
}

// commitChanges imports child block of the parent with the changes applied to the parent state
func commitChanges(backend *chain.LocalBackend, parentID chain.BlockID, changes *state.OverlayedChanges) (*chain.Header, error) {
	parent, err := backend.MustHeader(parentID)
	if err != nil {
		return nil, err
	}
	op, err := backend.BeginOperation(chain.ByHash(parent.Hash()))
	if err != nil {
		return nil, err
	}
	newRoot := state.NewExt(changes, op.State()).StorageRoot()
	header := &chain.Header{
		ParentHash: parent.Hash(),
		Number:     parent.Number + 1,
		StateRoot:  newRoot.Bytes(),
	}
	op.SetBlockData(header, true)
	op.SetStorage(changes.Changes())
	if err = backend.CommitOperation(op); err != nil {
		return nil, err
	}
	return header, nil
}

func methodAndInput(args []string) (string, []byte) {
	method := args[0]
	switch {
	case len(args) == 1:
		return method, nil
	case method == runtime.MethodStorageSet && len(args) == 3:
		return method, runtime.EncodeSetInput(glb.ParseBytes(args[1]), glb.ParseBytes(args[2]))
	}
	glb.Assertf(len(args) == 2, "wrong number of inputs")
	return method, glb.ParseBytes(args[1])
}

func containsMethod(rt *runtime.Dispatcher, method string) bool {
	for _, m := range rt.Methods() {
		if m == method {
			return true
		}
	}
	return false
}
