package routes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/accordsai/eventledger/pkg/gateway"
	"github.com/accordsai/eventledger/pkg/httpx"

	"github.com/go-chi/chi/v5"
)

// Caller runs one transaction in a fresh ledger session.
type Caller interface {
	Call(ctx context.Context, kind gateway.CallKind, req gateway.TransactionRequest) ([]byte, error)
}

type Handler struct {
	caller Caller
	logger *slog.Logger
}

func NewHandler(caller Caller, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{caller: caller, logger: logger}
}

// Mount registers every row of Table on r.
func (h *Handler) Mount(r chi.Router) {
	for _, rt := range Table {
		r.Method(rt.Method, rt.Pattern, h.serve(rt))
	}
}

func (h *Handler) serve(rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := rt.request(r)
		if err != nil {
			var bad *badRequest
			if !errors.As(err, &bad) {
				bad = &badRequest{code: "BAD_JSON", err: err}
			}
			httpx.WriteError(w, http.StatusBadRequest, bad.code, bad.Error(), nil)
			return
		}

		result, err := h.caller.Call(r.Context(), rt.Kind, req)
		resp := gateway.Normalize(gateway.Outcome{Kind: rt.Kind, Shape: rt.Shape, Result: result, Err: err})
		if resp.Failed() {
			h.logger.Error("ledger transaction failed",
				"transaction", rt.Transaction,
				"kind", rt.Kind.String(),
				"status", resp.Status,
				"error", resp.Message,
			)
		}
		resp.Write(w)
	}
}

// request extracts the positional arguments in table order. Missing body
// fields become "" and are left for the chaincode to reject.
func (rt Route) request(r *http.Request) (gateway.TransactionRequest, error) {
	var fields map[string]string
	if rt.readsBody() {
		var err error
		if fields, err = httpx.ReadFields(r); err != nil {
			return gateway.TransactionRequest{}, err
		}
	}
	args := make([]string, 0, len(rt.Args))
	for _, a := range rt.Args {
		if a.Param != "" {
			v, err := pathParam(r, a.Param)
			if err != nil {
				return gateway.TransactionRequest{}, &badRequest{code: "BAD_PATH", err: err}
			}
			args = append(args, v)
			continue
		}
		args = append(args, fields[a.Field])
	}
	return gateway.TransactionRequest{Name: rt.Transaction, Args: args}, nil
}

// pathParam returns the decoded value of a URL param. chi routes on RawPath
// whenever the request carries one, and its params are then still escaped.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

type badRequest struct {
	code string
	err  error
}

func (e *badRequest) Error() string { return e.err.Error() }

func (e *badRequest) Unwrap() error { return e.err }
