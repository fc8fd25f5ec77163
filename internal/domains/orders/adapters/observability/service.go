package observability

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersdomain "github.com/commercekit/commerce-core/internal/domains/orders/domain"
	ordersports "github.com/commercekit/commerce-core/internal/domains/orders/ports"
)

const tracerName = "github.com/commercekit/commerce-core/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ordersports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.metrics = newServiceMetrics(m) }
}

// New wraps the core orders service.
func New(inner ordersports.Service, opts ...Option) ordersports.Service {
	s := &Service{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) GetOrder(ctx context.Context, guid string) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(attribute.String("order.guid", guid)))
	defer span.End()
	result, err := s.inner.GetOrder(ctx, guid)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.guid", guid))
	}
	return result, nil
}

func (s *Service) ListOrdersByCustomer(ctx context.Context, customerGUID string) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrdersByCustomer", trace.WithAttributes(attribute.String("customer.guid", customerGUID)))
	defer span.End()
	result, err := s.inner.ListOrdersByCustomer(ctx, customerGUID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.String("customer.guid", customerGUID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ReleaseShipment(ctx context.Context, orderGUID, shipmentGUID string) (*ordersdomain.Order, error) {
	return s.shipmentOp(ctx, "OrderService.ReleaseShipment", orderGUID, shipmentGUID, s.inner.ReleaseShipment)
}

func (s *Service) CompleteShipment(ctx context.Context, orderGUID, shipmentGUID string) (*ordersdomain.Order, error) {
	order, err := s.shipmentOp(ctx, "OrderService.CompleteShipment", orderGUID, shipmentGUID, s.inner.CompleteShipment)
	if err == nil {
		s.metrics.recordShipped(ctx)
	}
	return order, err
}

func (s *Service) CancelShipment(ctx context.Context, orderGUID, shipmentGUID string) (*ordersdomain.Order, error) {
	return s.shipmentOp(ctx, "OrderService.CancelShipment", orderGUID, shipmentGUID, s.inner.CancelShipment)
}

func (s *Service) CancelOrder(ctx context.Context, guid string) (*ordersdomain.Order, error) {
	order, err := s.orderOp(ctx, "OrderService.CancelOrder", guid, s.inner.CancelOrder)
	if err == nil {
		s.metrics.recordCancelled(ctx)
	}
	return order, err
}

func (s *Service) HoldOrder(ctx context.Context, guid string) (*ordersdomain.Order, error) {
	return s.orderOp(ctx, "OrderService.HoldOrder", guid, s.inner.HoldOrder)
}

func (s *Service) ReleaseHold(ctx context.Context, guid string) (*ordersdomain.Order, error) {
	return s.orderOp(ctx, "OrderService.ReleaseHold", guid, s.inner.ReleaseHold)
}

func (s *Service) AdjustShipmentTotal(ctx context.Context, orderGUID, shipmentGUID string, newTotal decimal.Decimal) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.AdjustShipmentTotal",
		trace.WithAttributes(
			attribute.String("order.guid", orderGUID),
			attribute.String("shipment.guid", shipmentGUID),
			attribute.String("shipment.total", newTotal.String()),
		))
	defer span.End()
	result, err := s.inner.AdjustShipmentTotal(ctx, orderGUID, shipmentGUID, newTotal)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to adjust shipment total", slog.String("order.guid", orderGUID))
	}
	s.logInfo(ctx, "shipment total adjusted", slog.String("order.guid", orderGUID), slog.String("shipment.guid", shipmentGUID))
	return result, nil
}

func (s *Service) Refund(ctx context.Context, orderGUID, shipmentGUID string, amount decimal.Decimal) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Refund",
		trace.WithAttributes(
			attribute.String("order.guid", orderGUID),
			attribute.String("refund.amount", amount.String()),
		))
	defer span.End()
	result, err := s.inner.Refund(ctx, orderGUID, shipmentGUID, amount)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to refund", slog.String("order.guid", orderGUID))
	}
	s.metrics.recordRefunded(ctx)
	s.logInfo(ctx, "refund recorded", slog.String("order.guid", orderGUID), slog.String("amount", amount.String()))
	return result, nil
}

func (s *Service) shipmentOp(ctx context.Context, spanName, orderGUID, shipmentGUID string, op func(context.Context, string, string) (*ordersdomain.Order, error)) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, spanName,
		trace.WithAttributes(
			attribute.String("order.guid", orderGUID),
			attribute.String("shipment.guid", shipmentGUID),
		))
	defer span.End()
	result, err := op(ctx, orderGUID, shipmentGUID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "shipment operation failed",
			slog.String("order.guid", orderGUID), slog.String("shipment.guid", shipmentGUID))
	}
	s.logInfo(ctx, "shipment operation completed",
		slog.String("order.guid", orderGUID),
		slog.String("shipment.guid", shipmentGUID),
		slog.String("order.status", string(result.Status)))
	return result, nil
}

func (s *Service) orderOp(ctx context.Context, spanName, guid string, op func(context.Context, string) (*ordersdomain.Order, error)) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(attribute.String("order.guid", guid)))
	defer span.End()
	result, err := op(ctx, guid)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "order operation failed", slog.String("order.guid", guid))
	}
	s.logInfo(ctx, "order operation completed", slog.String("order.guid", guid), slog.String("order.status", string(result.Status)))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type serviceMetrics struct {
	shipmentsShipped metric.Int64Counter
	ordersCancelled  metric.Int64Counter
	refundsRecorded  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	shipped, _ := m.Int64Counter("orders.service.shipments_shipped", metric.WithDescription("Number of shipments completed"))
	cancelled, _ := m.Int64Counter("orders.service.orders_cancelled", metric.WithDescription("Number of orders cancelled"))
	refunded, _ := m.Int64Counter("orders.service.refunds_recorded", metric.WithDescription("Number of refunds recorded"))
	return serviceMetrics{shipmentsShipped: shipped, ordersCancelled: cancelled, refundsRecorded: refunded}
}

func (m serviceMetrics) recordShipped(ctx context.Context) {
	if m.shipmentsShipped != nil {
		m.shipmentsShipped.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordCancelled(ctx context.Context) {
	if m.ordersCancelled != nil {
		m.ordersCancelled.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordRefunded(ctx context.Context) {
	if m.refundsRecorded != nil {
		m.refundsRecorded.Add(ctx, 1)
	}
}

var _ ordersports.Service = (*Service)(nil)
