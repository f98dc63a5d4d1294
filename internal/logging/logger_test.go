package logging_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/folio/internal/logging"
)

func TestSetLogger(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	var buf bytes.Buffer
	logging.SetLogger(logging.NewTextLogger(&buf, "debug"))
	logging.Logger().Debug("table page break", slog.Int("row", 3))

	assert.Contains(t, buf.String(), "table page break")
	assert.Contains(t, buf.String(), "row=3")
}

func TestSetLoggerNil(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	logging.SetLogger(nil)
	l := logging.Logger()
	require.NotNil(t, l)
	assert.Equal(t, slog.DiscardHandler, l.Handler())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, logging.ParseLevel(in), "level %q", in)
	}
}

func TestNewTextLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewTextLogger(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
