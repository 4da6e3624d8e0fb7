package fabric

import (
	"fmt"
	"strings"

	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"google.golang.org/grpc/status"
)

// ledgerError adds the per-peer details the gateway attaches to a failed
// call, which is where chaincode messages end up.
type ledgerError struct {
	err     error
	details []string
}

func (e *ledgerError) Error() string {
	if len(e.details) == 0 {
		return e.err.Error()
	}
	return e.err.Error() + " [" + strings.Join(e.details, "; ") + "]"
}

func (e *ledgerError) Unwrap() error { return e.err }

func describe(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var details []string
	for _, d := range st.Details() {
		if ed, ok := d.(*gateway.ErrorDetail); ok {
			details = append(details, fmt.Sprintf("%s (%s): %s", ed.GetAddress(), ed.GetMspId(), ed.GetMessage()))
		}
	}
	if len(details) == 0 {
		return err
	}
	return &ledgerError{err: err, details: details}
}
