// Package otel exports the CLI's spans and log records over OTLP/HTTP.
package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"basegraph.app/issuesearch/core/config"
)

// Resource attribute keys describing which index a process queries.
const (
	AttrBackend    = attribute.Key("issuesearch.backend")
	AttrCollection = attribute.Key("issuesearch.typesense.collection")
	AttrTimeZone   = attribute.Key("issuesearch.timezone")
)

type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	loggerProvider *sdklog.LoggerProvider
}

// Shutdown flushes pending spans and log records. The CLI exits right after
// a command, so it must be called before returning. Safe on a nil Telemetry.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return errors.Join(
		wrap("tracer shutdown", t.tracerProvider.Shutdown(ctx)),
		wrap("logger shutdown", t.loggerProvider.Shutdown(ctx)),
	)
}

// Setup installs global tracer and logger providers. It returns nil when no
// OTLP endpoint is configured; logs then stay on stderr only.
func Setup(ctx context.Context, cfg config.Config) (*Telemetry, error) {
	oc := cfg.OTel
	if !oc.Enabled() {
		return nil, nil
	}

	res, err := resource.Merge(resource.Default(), Resource(cfg))
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	headers := parseHeaders(oc.Headers)

	traceExporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(signalURL(oc.Endpoint, "traces")),
		otlptracehttp.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	logExporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpointURL(signalURL(oc.Endpoint, "logs")),
		otlploghttp.WithHeaders(headers),
	)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}

	t := &Telemetry{
		tracerProvider: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio(oc.SampleRatio)))),
		),
		loggerProvider: sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		),
	}
	otel.SetTracerProvider(t.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	global.SetLoggerProvider(t.loggerProvider)
	return t, nil
}

// Resource describes this process: the service identity plus the backend,
// collection and histogram time zone its searches run against.
func Resource(cfg config.Config) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.OTel.ServiceName),
		semconv.ServiceVersion(cfg.OTel.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.OTel.Environment),
		semconv.ServiceInstanceID(strconv.FormatInt(cfg.NodeID, 10)),
		AttrTimeZone.String(cfg.Search.TimeZone),
	}
	if cfg.Search.FixturePath != "" {
		attrs = append(attrs, AttrBackend.String("fixture"))
	} else {
		attrs = append(attrs,
			AttrBackend.String("typesense"),
			AttrCollection.String(cfg.Typesense.Collection),
		)
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// signalURL appends the OTLP path of a signal to the collector base URL.
func signalURL(endpoint, signal string) string {
	return strings.TrimRight(endpoint, "/") + "/v1/" + signal
}

func sampleRatio(r float64) float64 {
	if r <= 0 || r > 1 {
		return 1
	}
	return r
}

// parseHeaders reads OTEL_EXPORTER_OTLP_HEADERS style "k=v,k2=v2" lists.
func parseHeaders(s string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if k = strings.TrimSpace(k); ok && k != "" {
			headers[k] = strings.TrimSpace(v)
		}
	}
	return headers
}
