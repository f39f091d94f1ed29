package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Resultados registrados na métrica de pedidos processados
const (
	OutcomeConfirmed       = "confirmed"
	OutcomeRejected        = "rejected"
	OutcomeInvalid         = "invalid"
	OutcomeQuoteFailed     = "quote_failed"
	OutcomePartiallyPlaced = "partially_placed"
	OutcomeCanceled        = "canceled"
	OutcomeFailed          = "failed"
)

// OrderMetrics agrupa os instrumentos OpenTelemetry do serviço de pedidos
type OrderMetrics struct {
	ordersProcessed      metric.Int64Counter
	supplierCallDuration metric.Float64Histogram
}

// NewOrderMetrics registra os instrumentos no meter informado
func NewOrderMetrics(meter metric.Meter) (*OrderMetrics, error) {
	ordersProcessed, err := meter.Int64Counter(
		"orders.processed",
		metric.WithDescription("Orders processed by outcome"),
	)
	if err != nil {
		return nil, err
	}

	supplierCallDuration, err := meter.Float64Histogram(
		"orders.supplier_call.duration",
		metric.WithDescription("Latency of supplier quote and placement calls"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &OrderMetrics{
		ordersProcessed:      ordersProcessed,
		supplierCallDuration: supplierCallDuration,
	}, nil
}

// RecordOrder conta um pedido processado
func (m *OrderMetrics) RecordOrder(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.ordersProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordSupplierCall registra a duração de uma chamada a um fornecedor
func (m *OrderMetrics) RecordSupplierCall(ctx context.Context, supplier string, phase Phase, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.supplierCallDuration.Record(ctx, float64(elapsed.Microseconds())/1000,
		metric.WithAttributes(
			attribute.String("supplier", supplier),
			attribute.String("phase", string(phase)),
			attribute.Bool("error", err != nil),
		),
	)
}

// StartSupplierSpan cria um span para uma chamada a um fornecedor
func StartSupplierSpan(ctx context.Context, tracer trace.Tracer, supplier string, phase Phase, correlationID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "supplier."+string(phase), trace.WithSpanKind(trace.SpanKindClient))

	span.SetAttributes(
		attribute.String("supplier.name", supplier),
		attribute.String("supplier.phase", string(phase)),
		attribute.String("correlation_id", correlationID),
		attribute.String("component", "order-orchestrator"),
	)

	return ctx, span
}
