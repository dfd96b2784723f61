package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level string) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewStructuredLogger(LoggerConfig{
		Level:       level,
		Format:      "json",
		ServiceName: "vendora-test",
		Output:      buf,
	}), buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestStructuredLogger_CorrelationID(t *testing.T) {
	log, buf := newBufferLogger("info")
	ctx := WithCorrelationID(context.Background(), "cid-123")
	ctx = WithUserID(ctx, "u-1")

	log.Info(ctx, "hello", map[string]interface{}{"k": "v"})

	entry := decode(t, buf)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "cid-123", entry["correlation_id"])
	assert.Equal(t, "u-1", entry["user_id"])
	assert.Equal(t, "vendora-test", entry["service"])
	assert.Equal(t, "v", entry["k"])
}

func TestStructuredLogger_Error(t *testing.T) {
	log, buf := newBufferLogger("info")
	log.Error(context.Background(), "boom", errors.New("bad thing"), nil)

	entry := decode(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "bad thing", entry["error"])
}

func TestStructuredLogger_LevelFilter(t *testing.T) {
	log, buf := newBufferLogger("warn")
	log.Info(context.Background(), "hidden", nil)
	log.Debug(context.Background(), "hidden", nil)
	assert.Zero(t, buf.Len())
}

func TestStructuredLogger_WithFieldsDoesNotLeak(t *testing.T) {
	log, buf := newBufferLogger("info")
	child := log.WithFields(map[string]interface{}{"component": "limiter"})

	log.Info(context.Background(), "parent", nil)
	assert.NotContains(t, decode(t, buf), "component")

	buf.Reset()
	child.Info(context.Background(), "child", nil)
	assert.Equal(t, "limiter", decode(t, buf)["component"])
}

func TestLogAuditEvent_SystemActor(t *testing.T) {
	log, buf := newBufferLogger("info")
	LogAuditEvent(context.Background(), log, "CREATED", "p-1", nil, nil)

	entry := decode(t, buf)
	assert.Equal(t, "System", entry["actor"])
	assert.Equal(t, "p-1", entry["product_id"])
	assert.Equal(t, "audit", entry["event_type"])
}

func TestCorrelationIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}
