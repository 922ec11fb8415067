package state

import (
	"errors"
	"fmt"

	"github.com/lunfardo314/statecall/util"
)

// CodeExecutor runs the method of the runtime against externalities.
// Runtime faults must surface as errors
type CodeExecutor interface {
	Run(ext Externalities, method string, input []byte) ([]byte, error)
}

type CodeExecutorFunc func(ext Externalities, method string, input []byte) ([]byte, error)

func (f CodeExecutorFunc) Run(ext Externalities, method string, input []byte) ([]byte, error) {
	return f(ext, method, input)
}

// Execute runs the executor and recovers from panics. Backend failure is returned as *ExternalitiesError,
// any other panic is wrapped into ErrRuntimePanic. Errors returned by the executor are returned as is
func Execute(executor CodeExecutor, ext Externalities, method string, input []byte) ([]byte, error) {
	var output []byte
	var errRun error
	errPanic := util.CatchPanicOrError(func() error {
		output, errRun = executor.Run(ext, method, input)
		return nil
	})
	if errPanic != nil {
		var extErr *ExternalitiesError
		if errors.As(errPanic, &extErr) {
			return nil, extErr
		}
		return nil, fmt.Errorf("%w: method '%s': %v", ErrRuntimePanic, method, errPanic)
	}
	if errRun != nil {
		return nil, errRun
	}
	return output, nil
}
