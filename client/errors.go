package client

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error conditions of call executors
type Kind byte

const (
	KindBackend = Kind(iota)
	KindUnknownBlock
	KindInvalidExecutionProof
	KindExecution
	KindNotAvailableOnLightClient
)

var (
	ErrBackend                   = errors.New("backend error")
	ErrUnknownBlock              = errors.New("unknown block")
	ErrInvalidExecutionProof     = errors.New("invalid execution proof")
	ErrExecution                 = errors.New("execution error")
	ErrNotAvailableOnLightClient = errors.New("not available on light client")
)

var kindSentinels = [...]error{
	KindBackend:                   ErrBackend,
	KindUnknownBlock:              ErrUnknownBlock,
	KindInvalidExecutionProof:     ErrInvalidExecutionProof,
	KindExecution:                 ErrExecution,
	KindNotAvailableOnLightClient: ErrNotAvailableOnLightClient,
}

func (k Kind) Sentinel() error {
	if int(k) >= len(kindSentinels) {
		return fmt.Errorf("wrong error kind %d", k)
	}
	return kindSentinels[k]
}

func (k Kind) String() string {
	return k.Sentinel().Error()
}

// Error is the error returned by call executors. It matches with errors.Is both the sentinel of its kind
// and the wrapped cause
type Error struct {
	Kind  Kind
	Block string
	Cause error
}

func newError(kind Kind, block string, cause error) *Error {
	return &Error{Kind: kind, Block: block, Cause: cause}
}

func (e *Error) Error() string {
	ret := e.Kind.String()
	if e.Block != "" {
		ret += " at block " + e.Block
	}
	if e.Cause != nil {
		ret += ": " + e.Cause.Error()
	}
	return ret
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind.Sentinel()}
	}
	return []error{e.Kind.Sentinel(), e.Cause}
}

// KindOf returns kind of the executor error in the chain of err
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
