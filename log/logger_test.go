package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hatlonely/fmxml/log/writer"
	"github.com/hatlonely/fmxml/ref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileLogger(t *testing.T, options *Options) (*SLog, string) {
	path := filepath.Join(t.TempDir(), "fmxml.log")
	options.Output = &ref.TypeOptions{Type: "file", Options: &writer.FileWriterOptions{Path: path}}
	l, err := NewLoggerWithOptions(options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, path
}

func TestNewLoggerWithOptions(t *testing.T) {
	t.Run("json output with fields", func(t *testing.T) {
		l, path := newFileLogger(t, &Options{Level: "debug", Format: "json", Fields: map[string]string{"app": "fmxml"}})
		l.With("database", "Products").Debug("find", "records", 3)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var entry map[string]any
		require.NoError(t, json.Unmarshal(data, &entry))
		assert.Equal(t, "find", entry["msg"])
		assert.Equal(t, "fmxml", entry["app"])
		assert.Equal(t, "Products", entry["database"])
		assert.EqualValues(t, 3, entry["records"])
	})

	t.Run("redact sensitive keys", func(t *testing.T) {
		l, path := newFileLogger(t, &Options{Format: "json", Redact: []string{"account"}})
		l.Info("connect", "account", "admin", "password", "secret", "host", "fm.local")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "secret")
		assert.NotContains(t, string(data), "admin")
		assert.Contains(t, string(data), "fm.local")
	})

	t.Run("level filter", func(t *testing.T) {
		l, path := newFileLogger(t, &Options{Level: "warn"})
		l.Info("hidden")
		l.WithGroup("session").Warn("shown")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "hidden")
		assert.Contains(t, string(data), "shown")
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewLoggerWithOptions(&Options{Level: "loud"})
		assert.Error(t, err)
		_, err = NewLoggerWithOptions(&Options{Format: "xml"})
		assert.Error(t, err)
		_, err = NewLoggerWithOptions(&Options{Output: &ref.TypeOptions{Type: "syslog"}})
		assert.Error(t, err)
	})
}

func TestDefault(t *testing.T) {
	assert.NotNil(t, Default())

	old := Default()
	defer SetDefault(old)
	SetDefault(Discard)
	assert.Equal(t, Discard, Default())
	Default().With("a", 1).WithGroup("g").Info("nothing")
}
