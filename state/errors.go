package state

import (
	"errors"
	"fmt"

	"github.com/lunfardo314/statecall/util"
)

var (
	// ErrExternalitiesViolated means the backend failed during execution, which the runtime cannot handle
	ErrExternalitiesViolated = errors.New("externalities violated the no-fail contract")
	ErrRuntimePanic          = errors.New("runtime panicked")
)

// ExternalitiesError is the panic value raised by Ext when the backend fails.
// The execution is aborted and Execute returns it as an error
type ExternalitiesError struct {
	Op    string
	Key   []byte
	Cause error
}

func (e *ExternalitiesError) Error() string {
	if e.Key == nil {
		return fmt.Sprintf("%v: %s: %v", ErrExternalitiesViolated, e.Op, e.Cause)
	}
	return fmt.Sprintf("%v: %s(%s): %v", ErrExternalitiesViolated, e.Op, util.Fmt(e.Key), e.Cause)
}

func (e *ExternalitiesError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrExternalitiesViolated}
	}
	return []error{ErrExternalitiesViolated, e.Cause}
}
