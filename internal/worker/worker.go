// Package worker implements the Worker (C8, spec.md §4.8): a long-running
// AMQP consumer that drives each delivery through the Ingestor and applies
// the ack/nack/dead-letter decision matrix. Grounded on the consumer loop
// shape found in the retrieval pack's worker examples
// (other_examples' ahsansalaldaha-image-processor consumer.go), adapted to
// this spec's claim-based idempotency instead of a job-queue table.
package worker

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mediaforge/internal/bus"
	"mediaforge/internal/ingest"
)

var tracer = otel.Tracer("mediaforge-worker")

// Config controls retry accounting. RetryMax is read from the bus
// configuration (spec.md §6 `rabbit.retry_max`).
type Config struct {
	RetryMax int
}

// Worker owns no state beyond its bus connection and the Ingestor it
// drives (spec.md §4.8 — "the worker owns no state beyond the connection").
type Worker struct {
	bus      *bus.Bus
	ingestor *ingest.Ingestor
	cfg      Config
}

// New builds a Worker.
func New(b *bus.Bus, ingestor *ingest.Ingestor, cfg Config) *Worker {
	return &Worker{bus: b, ingestor: ingestor, cfg: cfg}
}

// Run consumes deliveries until ctx is cancelled, finishing the in-flight
// delivery (ack or nack) before returning — cooperative shutdown per
// spec.md §5.
func (w *Worker) Run(ctx context.Context) error {
	deliveries, err := w.bus.Consume(ctx)
	if err != nil {
		return err
	}

	for d := range deliveries {
		w.handle(ctx, d)
	}
	return nil
}

// action is the outcome of the spec.md §4.8 decision matrix, kept separate
// from the side effects so the matrix itself is a pure, testable function.
type action int

const (
	actionAck action = iota
	actionNack
	actionDeadLetterThenAck
)

func decide(result ingest.ProcessResult) action {
	switch {
	case result.Success:
		return actionAck
	case result.ExceededRetries:
		return actionDeadLetterThenAck
	default:
		return actionNack
	}
}

func (w *Worker) handle(ctx context.Context, d bus.Delivery) {
	ctx, span := tracer.Start(ctx, "processAsset", trace.WithAttributes(
		attribute.Int64("asset.id", d.Job.AssetID),
		attribute.String("correlation.id", d.Job.CorrelationID),
	))
	defer span.End()

	result, err := w.ingestor.ProcessAsset(ctx, d.Job.AssetID, w.cfg.RetryMax, d.Job.TempFilePath)
	if err != nil {
		slog.Error("worker: process asset failed", "assetId", d.Job.AssetID, "correlationId", d.Job.CorrelationID, "error", err)
		if nackErr := d.Nack(true); nackErr != nil {
			slog.Error("worker: nack failed", "assetId", d.Job.AssetID, "error", nackErr)
		}
		return
	}

	switch decide(result) {
	case actionAck:
		if ackErr := d.Ack(); ackErr != nil {
			slog.Error("worker: ack failed", "assetId", d.Job.AssetID, "error", ackErr)
		}

	case actionDeadLetterThenAck:
		dl := bus.DeadLetter{
			AssetID:  d.Job.AssetID,
			Error:    result.Error,
			Attempts: result.Attempts,
			FailedAt: time.Now(),
		}
		if pubErr := w.bus.PublishDeadLetter(ctx, dl); pubErr != nil {
			slog.Error("worker: publish dead letter failed", "assetId", d.Job.AssetID, "error", pubErr)
		} else {
			slog.Warn("worker: asset exceeded retry budget", "assetId", d.Job.AssetID, "attempts", result.Attempts, "error", result.Error)
		}
		if ackErr := d.Ack(); ackErr != nil {
			slog.Error("worker: ack after dead-letter failed", "assetId", d.Job.AssetID, "error", ackErr)
		}

	case actionNack:
		slog.Warn("worker: asset processing failed, requeueing", "assetId", d.Job.AssetID, "attempts", result.Attempts, "error", result.Error)
		if nackErr := d.Nack(true); nackErr != nil {
			slog.Error("worker: nack failed", "assetId", d.Job.AssetID, "error", nackErr)
		}
	}
}
