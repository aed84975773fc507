package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertSeries matches one exposition line. Labels are a partial regex since the
// exporter adds otel_scope_* labels.
func assertSeries(t *testing.T, output, name, labels, value string) {
	t.Helper()
	assert.Regexp(t, name+`\{[^}]*`+labels+`[^}]*\} `+value, output)
}

func newTestBusinessMetrics(t *testing.T, namespace string) (BusinessMetrics, *Provider) {
	t.Helper()
	provider, err := NewProvider(namespace)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	bm, err := NewBusinessMetrics(provider.MeterProvider(), namespace)
	require.NoError(t, err)
	return bm, provider
}

func TestBusinessMetrics_Operations(t *testing.T) {
	bm, provider := newTestBusinessMetrics(t, "fv_test")
	ctx := context.Background()

	bm.RecordOperation(ctx, "gateway", "decrypt", "success")
	bm.RecordOperation(ctx, "gateway", "decrypt", "success")
	bm.RecordOperation(ctx, "gateway", "decrypt", "error")
	bm.RecordOperation(ctx, "compliance", "self_test", "success")

	bm.RecordDuration(ctx, "gateway", "decrypt", 40*time.Millisecond, "success")
	bm.RecordDuration(ctx, "gateway", "decrypt", 60*time.Millisecond, "success")
	bm.RecordDuration(ctx, "gateway", "decrypt_batch", 250*time.Millisecond, "error")

	output := scrape(t, provider)

	assertSeries(t, output, `fv_test_operations_total`,
		`domain="gateway".*operation="decrypt".*status="success"`, `2`)
	assertSeries(t, output, `fv_test_operations_total`,
		`domain="gateway".*operation="decrypt".*status="error"`, `1`)
	assertSeries(t, output, `fv_test_operations_total`,
		`domain="compliance".*operation="self_test".*status="success"`, `1`)
	assertSeries(t, output, `fv_test_operation_duration_seconds_count`,
		`domain="gateway".*operation="decrypt".*status="success"`, `2`)
	assertSeries(t, output, `fv_test_operation_duration_seconds_count`,
		`domain="gateway".*operation="decrypt_batch".*status="error"`, `1`)
}

func TestNoOpBusinessMetrics(t *testing.T) {
	noOp := NewNoOpBusinessMetrics()
	ctx := context.Background()

	assert.IsType(t, &NoOpBusinessMetrics{}, noOp)
	assert.NotPanics(t, func() {
		noOp.RecordOperation(ctx, "gateway", "decrypt", "success")
		noOp.RecordDuration(ctx, "gateway", "encrypt", time.Millisecond, "error")
	})
}
