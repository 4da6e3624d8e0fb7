package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrIdentityNotFound = errors.New("identity not found in wallet")
	ErrEmptyResult      = errors.New("transaction returned an empty result")
)

// ConnectionError reports a failure while establishing a Session.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("ledger connection: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransactionError reports a failed submit or evaluate. An empty result is
// reported as a TransactionError wrapping ErrEmptyResult.
type TransactionError struct {
	Name string
	Kind CallKind
	Err  error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s (%s): %v", e.Name, e.Kind, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
