package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-probe/internal/domain"
	"github.com/PabloGalante/farum-probe/internal/observability"
)

func TestConfigureLevels(t *testing.T) {
	t.Cleanup(func() { _ = observability.Configure("info", os.Stdout) })

	var buf bytes.Buffer
	require.NoError(t, observability.Configure("warn", &buf))

	observability.Logger().Info("dropped")
	observability.Logger().Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")

	require.Error(t, observability.Configure("loud", &buf))
}

func TestLoggerFromContextAddsRequestID(t *testing.T) {
	t.Cleanup(func() { _ = observability.Configure("info", os.Stdout) })

	var buf bytes.Buffer
	require.NoError(t, observability.Configure("info", &buf))

	ctx := observability.WithRequestID(context.Background(), "req-7")
	assert.Equal(t, "req-7", observability.RequestIDFromContext(ctx))
	assert.Empty(t, observability.RequestIDFromContext(context.Background()))

	observability.LoggerFromContext(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-7", line["request_id"])
}

func TestSlogSinkWritesEvent(t *testing.T) {
	t.Cleanup(func() { _ = observability.Configure("info", os.Stdout) })

	var buf bytes.Buffer
	require.NoError(t, observability.Configure("info", &buf))

	err := observability.NewSlogSink().Emit(context.Background(), domain.ProbeEvent{
		ID:        "e1",
		Type:      domain.ProbeEventType,
		SessionID: "s1",
		Who:       "system",
		Level:     "info",
		Tags:      []string{"probe"},
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, domain.ProbeEventType, line["msg"])
	assert.Equal(t, "e1", line["event_id"])
	assert.Equal(t, "s1", line["session_id"])
}
