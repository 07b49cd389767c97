package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONIncludesFieldsAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf}).With(String("component", "poller"))

	ctx := ContextWithRequestID(context.Background(), "req-1")
	log.Info(ctx, "bus polled", String("bus", "222"), Float("ratio", 0.5), Err(errors.New("boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bus polled", entry["msg"])
	assert.Equal(t, "poller", entry["component"])
	assert.Equal(t, "222", entry["bus"])
	assert.Equal(t, 0.5, entry["ratio"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	log.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestEnsureRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	again, sameID := EnsureRequestID(ctx)
	assert.Equal(t, id, sameID)
	assert.Equal(t, id, RequestIDFromContext(again))
}

func TestNoop(t *testing.T) {
	log := Noop().With(String("k", "v"))
	log.Error(context.Background(), "dropped")
}
