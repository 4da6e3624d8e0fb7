package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/accordsai/eventledger/pkg/httpx"
)

// Shape is how a successful result is presented to the HTTP client.
type Shape int

const (
	// Acknowledge answers 204 with no body.
	Acknowledge Shape = iota + 1
	// Record answers 200 with the raw ledger payload.
	Record
	// List answers 200 with the payload parsed as JSON.
	List
	// Passthrough answers 200 with the raw payload, used by deletes.
	Passthrough
)

type Outcome struct {
	Kind   CallKind
	Shape  Shape
	Result []byte
	Err    error
}

type Response struct {
	Status  int
	Body    []byte
	Value   any
	Code    string
	Message string
}

func (r Response) Failed() bool { return r.Status >= 400 }

// Normalize maps a dispatch outcome to an HTTP status and body.
//
//	submit ok          -> 204 (delete: 200 raw passthrough)
//	evaluate ok        -> 200 raw, list queries 200 parsed JSON
//	evaluate failure   -> 404
//	submit failure     -> 500
//	list failure       -> 500
//	connection failure -> 500 on every path
func Normalize(o Outcome) Response {
	if o.Err != nil {
		return failure(o)
	}
	switch o.Shape {
	case Acknowledge:
		return Response{Status: http.StatusNoContent}
	case List:
		var v any
		if err := json.Unmarshal(o.Result, &v); err != nil {
			return failure(Outcome{Kind: o.Kind, Shape: o.Shape, Err: fmt.Errorf("decode list result: %w", err)})
		}
		if v == nil {
			v = []any{}
		}
		return Response{Status: http.StatusOK, Value: v}
	default:
		return Response{Status: http.StatusOK, Body: o.Result}
	}
}

func failure(o Outcome) Response {
	var connErr *ConnectionError
	switch {
	case errors.As(o.Err, &connErr):
		return Response{Status: http.StatusInternalServerError, Code: "LEDGER_UNAVAILABLE", Message: verb(o) + ": " + o.Err.Error()}
	case o.Shape == List:
		return Response{Status: http.StatusInternalServerError, Code: "FETCH_FAILED", Message: "failed to fetch records: " + o.Err.Error()}
	case o.Kind == Evaluate:
		return Response{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "failed to evaluate transaction: " + o.Err.Error()}
	default:
		return Response{Status: http.StatusInternalServerError, Code: "TRANSACTION_FAILED", Message: "failed to submit transaction: " + o.Err.Error()}
	}
}

func verb(o Outcome) string {
	if o.Kind == Evaluate {
		return "failed to evaluate transaction"
	}
	return "failed to submit transaction"
}

func (r Response) Write(w http.ResponseWriter) {
	switch {
	case r.Failed():
		httpx.WriteError(w, r.Status, r.Code, r.Message, nil)
	case r.Status == http.StatusNoContent:
		w.WriteHeader(http.StatusNoContent)
	case r.Value != nil:
		httpx.WriteJSON(w, r.Status, r.Value)
	default:
		httpx.WriteRaw(w, r.Status, r.Body)
	}
}
