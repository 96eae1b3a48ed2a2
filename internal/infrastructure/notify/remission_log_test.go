package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agro-inventario/internal/infrastructure/notify"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

func TestRemissionLog_EmiteEvento(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewRemissionLog(logger.FromWriter(&buf))

	require.NoError(t, n.RecalculateRemission(context.Background(), "REM-42"))

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "remission.changed", event["event"])
	assert.Equal(t, "REM-42", event["remission"])
	assert.Equal(t, "info", event["level"])
}

func TestRemissionLog_SinRemisionNoEmite(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewRemissionLog(logger.FromWriter(&buf))

	require.NoError(t, n.RecalculateRemission(context.Background(), ""))
	assert.Zero(t, buf.Len())
}

func TestRemissionLog_ContextoCancelado(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewRemissionLog(logger.FromWriter(&buf))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.RecalculateRemission(ctx, "REM-1"), context.Canceled)
	assert.Zero(t, buf.Len())
}
