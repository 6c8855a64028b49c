package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pathkeeper/tracker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(context.Background(), Config{})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NotNil(t, p.Meter("x"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutExporter(t *testing.T) {
	_, err := New(context.Background(), Config{Enabled: true, ServiceName: "tracker"})
	assert.ErrorIs(t, err, ErrNoExporter)
}

func TestNew_WritesToLogWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(context.Background(), FromConfig(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "tracker-test",
		BatchTimeout: time.Second,
	}, &buf))
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	logger := otelslog.NewLogger("tracker", otelslog.WithLoggerProvider(p.LoggerProvider()))
	logger.Info("point recorded", "points", 4)

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, buf.String(), "point recorded")
	assert.Contains(t, buf.String(), "tracker-test")

	require.NoError(t, p.Shutdown(context.Background()))
}
