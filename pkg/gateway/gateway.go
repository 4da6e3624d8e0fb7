// Package gateway turns REST requests into ledger transactions.
//
// Every call builds its own Session through a Resolver, dispatches exactly
// one submit or evaluate on it and closes it again, whatever the outcome.
// Nothing is pooled or shared between calls.
package gateway

import (
	"context"
	"log/slog"
)

type CallKind int

const (
	Submit CallKind = iota + 1
	Evaluate
)

func (k CallKind) String() string {
	switch k {
	case Submit:
		return "submit"
	case Evaluate:
		return "evaluate"
	default:
		return "unknown"
	}
}

// TransactionRequest names a chaincode function and its positional arguments.
// Arguments are forwarded verbatim; an absent value is sent as "".
type TransactionRequest struct {
	Name string
	Args []string
}

// Contract is the ledger's per-chaincode call surface.
type Contract interface {
	SubmitTransaction(name string, args ...string) ([]byte, error)
	EvaluateTransaction(name string, args ...string) ([]byte, error)
}

// Session is an authenticated handle on one channel/contract pair. It is
// used for a single dispatch and must be closed afterwards.
type Session interface {
	Contract
	Close() error
}

type Resolver interface {
	Resolve(ctx context.Context, identity, channel, contract string) (Session, error)
}

// Scope is the fixed identity/channel/contract triple a Gateway works in.
type Scope struct {
	Identity string
	Channel  string
	Contract string
}

type Gateway struct {
	Resolver   Resolver
	Scope      Scope
	Dispatcher *Dispatcher
	Logger     *slog.Logger
}

func New(resolver Resolver, scope Scope, dispatcher *Dispatcher, logger *slog.Logger) *Gateway {
	if dispatcher == nil {
		dispatcher = &Dispatcher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{Resolver: resolver, Scope: scope, Dispatcher: dispatcher, Logger: logger}
}

func (g *Gateway) Submit(ctx context.Context, req TransactionRequest) ([]byte, error) {
	return g.call(ctx, Submit, req)
}

func (g *Gateway) Evaluate(ctx context.Context, req TransactionRequest) ([]byte, error) {
	return g.call(ctx, Evaluate, req)
}

// Call runs req as the given kind inside a fresh session.
func (g *Gateway) Call(ctx context.Context, kind CallKind, req TransactionRequest) ([]byte, error) {
	return g.call(ctx, kind, req)
}

func (g *Gateway) call(ctx context.Context, kind CallKind, req TransactionRequest) ([]byte, error) {
	session, err := g.Resolver.Resolve(ctx, g.Scope.Identity, g.Scope.Channel, g.Scope.Contract)
	if err != nil {
		return nil, err
	}
	g.Dispatcher.Metrics.sessionOpened()
	defer func() {
		if cerr := session.Close(); cerr != nil {
			g.Logger.Warn("close ledger session", "transaction", req.Name, "error", cerr)
		}
		g.Dispatcher.Metrics.sessionClosed()
	}()

	if kind == Submit {
		return g.Dispatcher.Submit(ctx, session, req)
	}
	return g.Dispatcher.Evaluate(ctx, session, req)
}
