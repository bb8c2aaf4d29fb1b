package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-survey-backend/internal/config"
)

// keepGlobals restores the tracer provider and propagator after t.
func keepGlobals(t *testing.T) (trace.TracerProvider, propagation.TextMapPropagator) {
	t.Helper()
	tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
	return tp, prop
}

func enabled(name string, insecure bool) config.OTELConfig {
	return config.OTELConfig{Enabled: true, Insecure: insecure, Endpoint: "localhost:4317", ServiceName: name, SampleRatio: 1}
}

func TestSetupOTel_DisabledInstallsNothing(t *testing.T) {
	tp, _ := keepGlobals(t)

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false, Endpoint: ""}, Build{Version: "dev"})
	if err != nil || shutdown == nil {
		t.Fatalf("disabled setup: shutdown=%v err=%v", shutdown != nil, err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
	if otel.GetTracerProvider() != tp {
		t.Fatal("provider replaced while tracing is disabled")
	}
}

func TestSetupOTel_InstallsProvider(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		keepGlobals(t)
		shutdown, err := SetupOTel(context.Background(), enabled("survey-test", insecure), Build{Version: "v1.0.0", Store: "sqlite"})
		if err != nil {
			t.Fatalf("insecure=%v: %v", insecure, err)
		}
		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("insecure=%v: expected *sdktrace.TracerProvider", insecure)
		}

		ctx, span := otel.Tracer("services/Test").Start(context.Background(), "Submit")
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		span.End()
		if carrier.Get("traceparent") == "" {
			t.Fatalf("insecure=%v: traceparent not injected", insecure)
		}
		_ = shutdown(context.Background())
	}
}

func TestSetupOTel_CancelledContextStillSucceeds(t *testing.T) {
	keepGlobals(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shutdown, err := SetupOTel(ctx, enabled("svc", true), Build{})
	if err != nil {
		t.Fatalf("cancelled ctx: %v", err)
	}
	_ = shutdown(context.Background())
}

func TestSetupOTel_FailuresLeaveGlobalsIntact(t *testing.T) {
	boom := errors.New("boom")
	cases := map[string]func(t *testing.T){
		"empty endpoint": func(*testing.T) {},
		"exporter": func(t *testing.T) {
			orig := newOTLPExporterFn
			t.Cleanup(func() { newOTLPExporterFn = orig })
			newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) { return nil, boom }
		},
		"resource": func(t *testing.T) {
			orig := newServiceResourceFn
			t.Cleanup(func() { newServiceResourceFn = orig })
			newServiceResourceFn = func(context.Context, string, Build) (*resource.Resource, error) { return nil, boom }
		},
	}
	for name, stub := range cases {
		t.Run(name, func(t *testing.T) {
			tp, prop := keepGlobals(t)
			stub(t)
			cfg := enabled("svc", true)
			if name == "empty endpoint" {
				cfg.Endpoint = ""
			}
			if _, err := SetupOTel(context.Background(), cfg, Build{}); err == nil {
				t.Fatal("expected error")
			}
			if otel.GetTracerProvider() != tp || otel.GetTextMapPropagator() != prop {
				t.Fatal("globals changed on failure")
			}
		})
	}
}

func TestResourceAttrs(t *testing.T) {
	got := map[attribute.Key]attribute.Value{}
	for _, kv := range resourceAttrs("survey", Build{Version: "1.2.3", TestMode: true, Store: "redis"}) {
		got[kv.Key] = kv.Value
	}
	want := map[attribute.Key]string{
		"service.name":           "survey",
		"service.version":        "1.2.3",
		"deployment.environment": "test",
		"survey.store":           "redis",
	}
	for k, v := range want {
		if got[k].AsString() != v {
			t.Fatalf("%s = %q; want %q", k, got[k].AsString(), v)
		}
	}
	if !got["survey.test_mode"].AsBool() {
		t.Fatal("survey.test_mode should be true")
	}
	if (Build{}).Environment() != "production" {
		t.Fatal("genuine builds report production")
	}
}

func TestFailSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	_, span := tp.Tracer("t").Start(context.Background(), "op")
	FailSpan(span, errors.New("disk full"), "submit failed")
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d", len(ended))
	}
	s := ended[0]
	if s.Status().Code != codes.Error || s.Status().Description != "submit failed" {
		t.Fatalf("status = %+v", s.Status())
	}
	if len(s.Events()) == 0 || s.Events()[0].Name != "exception" {
		t.Fatalf("error not recorded: %+v", s.Events())
	}
}
