package gateway

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/accordsai/eventledger/pkg/gateway"

// Dispatcher runs one transaction on a resolved Session. It never retries.
type Dispatcher struct {
	// AllowEmptyResult accepts a zero-length payload as success. By default
	// an empty payload is a protocol anomaly and fails with ErrEmptyResult.
	AllowEmptyResult bool
	Metrics          *Metrics
	Logger           *slog.Logger
	Tracer           trace.Tracer
}

func (d *Dispatcher) Submit(ctx context.Context, c Contract, req TransactionRequest) ([]byte, error) {
	return d.dispatch(ctx, Submit, c, req)
}

func (d *Dispatcher) Evaluate(ctx context.Context, c Contract, req TransactionRequest) ([]byte, error) {
	return d.dispatch(ctx, Evaluate, c, req)
}

func (d *Dispatcher) dispatch(ctx context.Context, kind CallKind, c Contract, req TransactionRequest) ([]byte, error) {
	_, span := d.tracer().Start(ctx, "ledger."+kind.String(), trace.WithAttributes(
		attribute.String("ledger.transaction", req.Name),
		attribute.Int("ledger.args", len(req.Args)),
	))
	defer span.End()

	start := time.Now()
	var (
		result []byte
		err    error
	)
	if kind == Submit {
		result, err = c.SubmitTransaction(req.Name, req.Args...)
	} else {
		result, err = c.EvaluateTransaction(req.Name, req.Args...)
	}
	if err == nil && len(result) == 0 && !d.AllowEmptyResult {
		err = ErrEmptyResult
	}
	if err != nil {
		err = &TransactionError{Name: req.Name, Kind: kind, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	d.Metrics.observe(req.Name, kind, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	d.logger().Debug("transaction complete", "transaction", req.Name, "kind", kind.String(), "bytes", len(result))
	span.SetAttributes(attribute.Int("ledger.result_bytes", len(result)))
	return result, nil
}

func (d *Dispatcher) tracer() trace.Tracer {
	if d.Tracer != nil {
		return d.Tracer
	}
	return otel.Tracer(tracerName)
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
