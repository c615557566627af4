package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{in: "error", want: LogLevelError},
		{in: "WARN", want: LogLevelWarn},
		{in: "warning", want: LogLevelWarn},
		{in: " info ", want: LogLevelInfo},
		{in: "debug", want: LogLevelDebug},
		{in: "trace", want: LogLevelTrace},
		{in: "loud", want: LogLevelError, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_filtersByLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, Options{Level: LogLevelWarn, Format: FormatJSON, NoTimestamp: true})

	logger.Info("hidden %d", 1)
	logger.Debug("hidden %d", 2)
	logger.Warn("shown %d", 3)
	logger.Error("shown %d", 4)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown 3", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
}

func TestLogger_traceCarriesMarker(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, Options{Level: LogLevelTrace, Format: FormatJSON, NoTimestamp: true})

	logger.Trace("tick %d", 7)

	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "tick 7", entry["msg"])
	assert.Equal(t, true, entry["trace"])
}

func TestSetDefaultLogger(t *testing.T) {
	previous := Default()
	t.Cleanup(func() { SetDefaultLogger(previous) })

	buf := &bytes.Buffer{}
	SetDefaultLogger(New(buf, Options{Level: LogLevelInfo, Format: FormatText, NoTimestamp: true}))
	Info("hello %s", "world")
	Debug("not shown")

	assert.Contains(t, buf.String(), "hello world")
	assert.NotContains(t, buf.String(), "not shown")
}
