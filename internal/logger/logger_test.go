package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testLogConfig struct {
	level, output, file string
}

func (c testLogConfig) GetLevel() string  { return c.level }
func (c testLogConfig) GetOutput() string { return c.output }
func (c testLogConfig) GetFile() string   { return c.file }

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"warn":    WARN,
		"error":   ERROR,
		"fatal":   FATAL,
		"bogus":   INFO,
		"":        INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestInitWithFileOutput(t *testing.T) {
	previous := defaultLogger
	t.Cleanup(func() { defaultLogger = previous })

	file := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Init(testLogConfig{level: "info", output: "file", file: file}))

	Info("deployed contract %s", "0xabc")
	Debug("not written at info level")
	Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "deployed contract 0xabc")
	assert.NotContains(t, string(data), "not written")
}

func TestInitFileOutputRequiresPath(t *testing.T) {
	previous := defaultLogger
	t.Cleanup(func() { defaultLogger = previous })

	err := Init(testLogConfig{level: "info", output: "file"})
	assert.Error(t, err)
	assert.Same(t, previous, defaultLogger)
}

func TestWithAddsFields(t *testing.T) {
	previous := defaultLogger
	t.Cleanup(func() { defaultLogger = previous })

	file := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Init(testLogConfig{level: "info", output: "file", file: file}))
	assert.Same(t, defaultLogger.zapLogger, GetDefaultZapLogger())

	With(zap.String("request_id", "req-42")).Info("claim from %s", "0xabc")
	Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"request_id":"req-42"`)
	assert.Contains(t, string(data), "claim from 0xabc")
}
