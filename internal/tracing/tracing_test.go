package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/JonMunkholm/gridroute/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func TestSetup_DisabledLeavesGlobalProvider(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(config.TracingConfig{Enabled: false}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Same(t, before, otel.GetTracerProvider())
}

func TestSetup_ExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	buf := &bytes.Buffer{}
	shutdown, err := Setup(config.TracingConfig{Enabled: true, ServiceName: "gridroute-test", SampleRatio: 1}, buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "route.dispatch")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"route.dispatch"`)
	assert.Contains(t, buf.String(), "gridroute-test")
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		want  int
	}{
		{"always", 1, 1},
		{"never", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := tracetest.NewInMemoryExporter()
			tp := NewProvider(config.TracingConfig{ServiceName: "grids", SampleRatio: tt.ratio}, sdktrace.WithSyncer(exp))
			t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

			_, span := tp.Tracer("test").Start(context.Background(), "op")
			span.End()

			spans := exp.GetSpans()
			require.Len(t, spans, tt.want)
			if tt.want > 0 {
				assert.Contains(t, spans[0].Resource.Attributes(), semconv.ServiceName("grids"))
			}
		})
	}
}
