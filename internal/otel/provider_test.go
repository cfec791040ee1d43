package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/gridwars/engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NotNil(t, p.Meter("test"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutOutputs(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "gridwars"})
	assert.Error(t, err)
}

func TestNew_FileExporter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(FromConfig(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "gridwars",
		BatchTimeout: time.Second,
	}, &buf))
	require.NoError(t, err)

	require.NotNil(t, p.LoggerProvider())
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestFromConfig(t *testing.T) {
	var buf bytes.Buffer
	c := FromConfig(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "svc",
		BatchTimeout: 5 * time.Second,
		Endpoint:     "collector:4318",
		Insecure:     true,
	}, &buf)

	assert.Equal(t, Config{
		Enabled:      true,
		ServiceName:  "svc",
		BatchTimeout: 5 * time.Second,
		LogWriter:    &buf,
		Endpoint:     "collector:4318",
		Insecure:     true,
	}, c)
}
