package transaction

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/workshop-pos/internal/domain/cart"
	"github.com/xenking/workshop-pos/internal/domain/pricing"
)

// FinalizeRequest holds the checkout parameters that are not part of the cart.
type FinalizeRequest struct {
	PaymentMethod PaymentMethod
	CustomerRef   string
	// Status is the initial status. Empty means StatusCompleted.
	Status  Status
	TaxRate pricing.TaxRate
}

// Option configures a Finalizer.
type Option func(*Finalizer)

// WithSink registers a collaborator that receives persisted transactions.
func WithSink(s Sink) Option {
	return func(f *Finalizer) { f.sinks = append(f.sinks, s) }
}

// WithTracerProvider enables tracing of Finalize.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(f *Finalizer) { f.tracer = tp.Tracer("workshop-pos/transaction") }
}

// WithMeterProvider enables finalize counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(f *Finalizer) { f.meter = mp.Meter("workshop-pos/transaction") }
}

// Finalizer turns a cart into a persisted Transaction.
type Finalizer struct {
	repo  Creator
	sinks []Sink
	now   func() time.Time

	tracer    trace.Tracer
	meter     metric.Meter
	finalized metric.Int64Counter
	failed    metric.Int64Counter
}

// NewFinalizer creates a Finalizer persisting through repo.
func NewFinalizer(repo Creator, opts ...Option) (*Finalizer, error) {
	f := &Finalizer{
		repo:   repo,
		now:    time.Now,
		tracer: tracenoop.NewTracerProvider().Tracer(""),
		meter:  metricnoop.NewMeterProvider().Meter(""),
	}
	for _, opt := range opts {
		opt(f)
	}

	var err error
	if f.finalized, err = f.meter.Int64Counter("pos.transactions.finalized",
		metric.WithDescription("Transactions persisted by checkout"),
	); err != nil {
		return nil, errors.Wrap(err, "create finalized counter")
	}
	if f.failed, err = f.meter.Int64Counter("pos.transactions.failed",
		metric.WithDescription("Checkouts rejected by the persistence collaborator"),
	); err != nil {
		return nil, errors.Wrap(err, "create failed counter")
	}

	return f, nil
}

// Finalize validates c, computes its totals and persists the resulting
// Transaction. The cart is never modified: on success the caller clears it,
// on failure it is left as it was so the checkout can be retried.
//
// If c is not already frozen, Finalize freezes it for the duration of the
// call. Persistence failures are returned as *PersistenceError.
func (f *Finalizer) Finalize(ctx context.Context, c *cart.Cart, req FinalizeRequest) (*Transaction, error) {
	ctx, span := f.tracer.Start(ctx, "transaction.Finalize")
	defer span.End()

	if err := c.Freeze(); err == nil {
		defer c.Unfreeze()
	}

	items := c.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	method, err := ParsePaymentMethod(string(req.PaymentMethod))
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusCompleted
	}
	if status, err = ParseStatus(string(status)); err != nil {
		return nil, err
	}

	discount := c.DiscountPercentage()
	totals := req.TaxRate.Apply(items, discount)

	tx := &Transaction{
		CustomerRef:         req.CustomerRef,
		Items:               items,
		Subtotal:            totals.Subtotal,
		Tax:                 totals.Tax,
		VATRate:             totals.VATRate,
		TotalBeforeDiscount: totals.TotalBeforeDiscount,
		DiscountPercentage:  discount,
		DiscountAmount:      totals.DiscountAmount,
		Total:               totals.Total,
		PaymentMethod:       method,
		Status:              status,
		CreatedAt:           f.now().UTC(),
	}

	lg := zctx.From(ctx)
	if totals.DefaultTaxRate {
		lg.Warn("Finalizing with default tax rate",
			zap.Stringer("vat_rate", totals.VATRate),
			zap.NamedError("reason", req.TaxRate.Reason),
		)
	}

	id, err := f.repo.Create(ctx, tx)
	if err != nil {
		f.failed.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist transaction")
		return nil, &PersistenceError{Err: err}
	}
	tx.ID = id

	f.finalized.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", string(method))))
	span.SetAttributes(
		attribute.String("transaction.id", id),
		attribute.Int("transaction.lines", len(items)),
	)
	lg.Info("Transaction finalized",
		zap.String("transaction_id", id),
		zap.Stringer("total", tx.Total),
		zap.String("payment_method", string(method)),
	)

	for _, s := range f.sinks {
		if err := s.Deliver(ctx, tx); err != nil {
			lg.Error("Transaction delivery failed",
				zap.String("transaction_id", id),
				zap.Error(err),
			)
		}
	}

	return tx, nil
}
