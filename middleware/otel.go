package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

const instrumentationName = "github.com/felixgeelhaar/jsonrpc-go"

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*otelConfig)

type otelConfig struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	serviceName    string
	skip           map[string]bool
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *otelConfig) { c.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) OTelOption {
	return func(c *otelConfig) { c.meterProvider = mp }
}

// WithOTelServiceName sets the service.name attribute on spans and metrics.
func WithOTelServiceName(name string) OTelOption {
	return func(c *otelConfig) { c.serviceName = name }
}

// WithOTelSkipMethods exempts methods from instrumentation, typically
// health checks polled at high frequency.
func WithOTelSkipMethods(methods ...string) OTelOption {
	return func(c *otelConfig) {
		for _, m := range methods {
			c.skip[m] = true
		}
	}
}

// rpcInstruments bundles the metric instruments the middleware records on.
type rpcInstruments struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	failures metric.Int64Counter
}

func newRPCInstruments(meter metric.Meter) rpcInstruments {
	// Instrument creation only fails on invalid names; the otel no-op
	// fallbacks keep the middleware usable either way.
	requests, _ := meter.Int64Counter(
		"rpc.server.requests",
		metric.WithDescription("Requests dispatched"),
		metric.WithUnit("{request}"),
	)
	duration, _ := meter.Float64Histogram(
		"rpc.server.request.duration",
		metric.WithDescription("Request handling duration"),
		metric.WithUnit("ms"),
	)
	failures, _ := meter.Int64Counter(
		"rpc.server.errors",
		metric.WithDescription("Requests that produced an error"),
		metric.WithUnit("{error}"),
	)
	return rpcInstruments{requests: requests, duration: duration, failures: failures}
}

// OTel returns middleware that wraps each request in a server span and
// records request, duration and error metrics. Batch elements each get
// their own span carrying the element's position.
func OTel(opts ...OTelOption) Middleware {
	cfg := &otelConfig{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		serviceName:    "jsonrpc-server",
		skip:           make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tracer := cfg.tracerProvider.Tracer(instrumentationName)
	inst := newRPCInstruments(cfg.meterProvider.Meter(instrumentationName))

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if cfg.skip[req.Method] {
				return next(ctx, req)
			}

			attrs := []attribute.KeyValue{
				attribute.String("rpc.method", req.Method),
				attribute.String("service.name", cfg.serviceName),
			}

			ctx, span := tracer.Start(ctx, "rpc."+req.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			if reqID := RequestIDFromContext(ctx); reqID != "" {
				span.SetAttributes(attribute.String("rpc.request_id", reqID))
			}
			if index, ok := protocol.BatchIndexFromContext(ctx); ok {
				span.SetAttributes(attribute.Int("rpc.batch_index", index))
			}

			inst.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			start := time.Now()

			resp, err := next(ctx, req)

			elapsed := float64(time.Since(start).Microseconds()) / 1000.0
			inst.duration.Record(ctx, elapsed, metric.WithAttributes(attrs...))
			recordOutcome(ctx, span, inst, attrs, resp, err)

			return resp, err
		}
	}
}

// recordOutcome marks the span and error counter from whichever error shape
// the chain produced: a Go error from a handler or middleware, or an error
// object already embedded in the response.
func recordOutcome(ctx context.Context, span trace.Span, inst rpcInstruments, attrs []attribute.KeyValue, resp *protocol.Response, err error) {
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var rpcErr *protocol.Error
		if errors.As(err, &rpcErr) {
			code := attribute.Int("rpc.error_code", rpcErr.Code)
			span.SetAttributes(code)
			attrs = append(attrs, code)
		}
		inst.failures.Add(ctx, 1, metric.WithAttributes(attrs...))
	case resp != nil && resp.Error != nil:
		span.SetStatus(codes.Error, resp.Error.Message)
		code := attribute.Int("rpc.error_code", resp.Error.Code)
		span.SetAttributes(code)
		inst.failures.Add(ctx, 1, metric.WithAttributes(append(attrs, code)...))
	default:
		span.SetStatus(codes.Ok, "")
	}
}

// SpanFromContext returns the span recording the current request, or a
// no-op span outside an instrumented call.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent records an event on the current request's span. Handlers can
// mark interesting moments without importing the otel API themselves.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetSpanAttribute sets an attribute on the current request's span,
// converting common Go types. Unsupported types are ignored.
func SetSpanAttribute(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	switch v := value.(type) {
	case string:
		span.SetAttributes(attribute.String(key, v))
	case int:
		span.SetAttributes(attribute.Int(key, v))
	case int64:
		span.SetAttributes(attribute.Int64(key, v))
	case float64:
		span.SetAttributes(attribute.Float64(key, v))
	case bool:
		span.SetAttributes(attribute.Bool(key, v))
	case []string:
		span.SetAttributes(attribute.StringSlice(key, v))
	}
}
