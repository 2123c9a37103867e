package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// testBuffer wraps bytes.Buffer to implement zapcore.WriteSyncer
type testBuffer struct {
	*bytes.Buffer
}

func (b *testBuffer) Sync() error {
	return nil
}

func newTestLogger(cfg Config) (*Logger, *testBuffer) {
	buf := &testBuffer{Buffer: &bytes.Buffer{}}
	cfg.Output = buf
	return NewLogger(cfg), buf
}

// lines splits the captured output into non-empty lines.
func lines(buf *testBuffer) []string {
	var out []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func TestNewLogger_TextFormat(t *testing.T) {
	logger, buf := newTestLogger(Config{Format: FormatText})

	logger.Infof("running test %s", "corp-zone")

	got := lines(buf)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "INFO")
	assert.Contains(t, got[0], "running test corp-zone")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	logger, buf := newTestLogger(Config{Format: FormatJSON})

	logger.Warnf("resolver %s failed the probe", "203.0.113.1")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "resolver 203.0.113.1 failed the probe", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestNewLogger_DebugGating(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		want  int
	}{
		{name: "debug disabled drops debug lines", debug: false, want: 1},
		{name: "debug enabled keeps debug lines", debug: true, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(Config{Format: FormatText, Debug: tt.debug})
			logger.Debugf("fan-out to %d addresses", 2)
			logger.Infof("test done")
			assert.Len(t, lines(buf), tt.want)
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	logger, buf := newTestLogger(Config{Format: FormatText, Debug: true})

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")

	got := buf.String()
	assert.Contains(t, got, "DEBUG")
	assert.Contains(t, got, "INFO")
	assert.Contains(t, got, "WARN")
	assert.Contains(t, got, "ERROR")
}

func TestDefault_ReplacedBySetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	logger, buf := newTestLogger(Config{Format: FormatText})
	SetDefault(logger)

	Infof("default logger %s", "swapped")

	assert.Same(t, logger, Default())
	assert.Contains(t, buf.String(), "default logger swapped")
}

func TestPackageLevelFunctions(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	logger, buf := newTestLogger(Config{Format: FormatText, Debug: true})
	SetDefault(logger)

	Debug("debug line")
	Info("info line")
	Warn("warn line")
	Error("error line")
	Debugf("formatted debug %d", 1)
	Warnf("formatted warn %d", 2)
	Errorf("formatted error %d", 3)
	require.NoError(t, Sync())

	got := buf.String()
	for _, want := range []string{
		"debug line", "info line", "warn line", "error line",
		"formatted debug 1", "formatted warn 2", "formatted error 3",
	} {
		assert.Contains(t, got, want)
	}
}

func TestConfig_Defaults(t *testing.T) {
	// A zero Config must produce a usable text logger on stderr.
	logger := NewLogger(Config{})
	require.NotNil(t, logger)
	logger.Infof("defaults work")
}

func TestConfig_OutputAcceptsWriteSyncer(t *testing.T) {
	buf := &testBuffer{Buffer: &bytes.Buffer{}}
	var output zapcore.WriteSyncer = buf

	logger := NewLogger(Config{Output: output, Format: FormatText})
	logger.Infof("via syncer")

	assert.Contains(t, buf.String(), "via syncer")
}

func TestLogQuery_EmittedAtDebugLevel(t *testing.T) {
	event := QueryEvent{
		Server:     "198.51.100.1:53",
		Protocol:   "udp",
		Type:       "A",
		Name:       "example.test.",
		Rcode:      "NOERROR",
		Answers:    1,
		DurationMs: 12.5,
	}

	logger, buf := newTestLogger(Config{Format: FormatJSON})
	logger.LogQuery(event)
	assert.Empty(t, buf.String(), "query events are debug-level")

	logger, buf = newTestLogger(Config{Format: FormatJSON, Debug: true})
	logger.LogQuery(event)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dns query exchanged", entry["message"])
	assert.Equal(t, "198.51.100.1:53", entry["server"])
	assert.Equal(t, "A", entry["type"])
	assert.Equal(t, "example.test.", entry["name"])
	assert.Equal(t, "NOERROR", entry["rcode"])
	assert.Equal(t, float64(1), entry["answers"])
	assert.Equal(t, 12.5, entry["duration_ms"])
}

func TestLogQueryError(t *testing.T) {
	logger, buf := newTestLogger(Config{Format: FormatJSON})

	logger.LogQueryError("198.51.100.2:53", "TXT", "example.test.", errors.New("i/o timeout"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "dns query failed", entry["message"])
	assert.Equal(t, "198.51.100.2:53", entry["server"])
	assert.Equal(t, "i/o timeout", entry["error"])
}

func TestLogProbe_LevelFollowsOutcome(t *testing.T) {
	tests := []struct {
		name    string
		healthy bool
		debug   bool
		wantLog bool
		level   string
	}{
		{name: "healthy probe is debug only", healthy: true, debug: false, wantLog: false},
		{name: "healthy probe visible with debug", healthy: true, debug: true, wantLog: true, level: "DEBUG"},
		{name: "unhealthy probe warns", healthy: false, debug: false, wantLog: true, level: "WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(Config{Format: FormatJSON, Debug: tt.debug})
			logger.LogProbe(ProbeEvent{Resolver: "203.0.113.1:53", Healthy: tt.healthy, DurationMs: 3.2})

			if !tt.wantLog {
				assert.Empty(t, buf.String())
				return
			}
			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "203.0.113.1:53", entry["resolver"])
			assert.Equal(t, tt.healthy, entry["healthy"])
		})
	}
}
