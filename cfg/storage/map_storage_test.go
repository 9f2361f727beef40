package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverOptions struct {
	Host     string        `cfg:"host" validate:"required"`
	Port     int           `cfg:"port" def:"80"`
	Password string        `cfg:"password"`
	Timeout  time.Duration `cfg:"timeout" def:"30s"`
	Secure   bool          `cfg:"secure"`
	Tags     []string      `cfg:"tags"`
}

type pluginOptions struct {
	Type    string `cfg:"type"`
	Options any    `cfg:"options"`
}

type rootOptions struct {
	Server  *serverOptions   `cfg:"server"`
	Backup  *serverOptions   `cfg:"backup"`
	Plugins []pluginOptions  `cfg:"plugins"`
	Labels  map[string]int   `cfg:"labels"`
	Skipped string           `cfg:"-"`
	Mirrors []*serverOptions `cfg:"mirrors"`
}

func sample() map[string]any {
	return map[string]any{
		"server": map[string]any{
			"HOST":     "fm.local",
			"password": 1234,
			"timeout":  "5s",
			"secure":   "true",
			"tags":     "a, b,c",
		},
		"plugins": []any{
			map[string]any{"type": "redis", "options": map[string]any{"endpoint": "localhost:6379"}},
		},
		"labels":  map[string]any{"a": 1, "b": "2"},
		"skipped": "value",
		"mirrors": []map[string]any{{"host": "m1", "port": int64(8080)}},
	}
}

func TestMapStorage_ConvertTo(t *testing.T) {
	var opts rootOptions
	require.NoError(t, NewMapStorage(sample()).ConvertTo(&opts))

	require.NotNil(t, opts.Server)
	assert.Equal(t, "fm.local", opts.Server.Host)
	assert.Equal(t, 80, opts.Server.Port)
	assert.Equal(t, "1234", opts.Server.Password)
	assert.Equal(t, 5*time.Second, opts.Server.Timeout)
	assert.True(t, opts.Server.Secure)
	assert.Equal(t, []string{"a", "b", "c"}, opts.Server.Tags)

	assert.Nil(t, opts.Backup)
	assert.Empty(t, opts.Skipped)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, opts.Labels)

	require.Len(t, opts.Mirrors, 1)
	assert.Equal(t, "m1", opts.Mirrors[0].Host)
	assert.Equal(t, 8080, opts.Mirrors[0].Port)
	assert.Equal(t, 30*time.Second, opts.Mirrors[0].Timeout)

	require.Len(t, opts.Plugins, 1)
	inner, ok := opts.Plugins[0].Options.(*MapStorage)
	require.True(t, ok)
	var endpoint struct {
		Endpoint string `cfg:"endpoint"`
	}
	require.NoError(t, inner.ConvertTo(&endpoint))
	assert.Equal(t, "localhost:6379", endpoint.Endpoint)
}

func TestMapStorage_Validate(t *testing.T) {
	var opts serverOptions
	err := NewMapStorage(map[string]any{"port": 8080}).ConvertTo(&opts)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "host")
}

func TestMapStorage_ConvertErrors(t *testing.T) {
	var opts serverOptions
	assert.Error(t, NewMapStorage(map[string]any{"host": "h", "port": "eighty"}).ConvertTo(&opts))
	assert.Error(t, NewMapStorage(map[string]any{"host": "h", "timeout": "soon"}).ConvertTo(&opts))
	assert.Error(t, NewMapStorage("scalar").ConvertTo(&opts))
	assert.Error(t, NewMapStorage(nil).ConvertTo(opts))
}

func TestMapStorage_Sub(t *testing.T) {
	ms := NewMapStorage(sample())

	assert.Equal(t, "fm.local", ms.Sub("server.host").Data())
	assert.Equal(t, "redis", ms.Sub("plugins[0].type").Data())
	assert.Equal(t, "localhost:6379", ms.Sub("plugins[0].options.endpoint").Data())
	assert.Nil(t, ms.Sub("plugins[3].type").Data())
	assert.Nil(t, ms.Sub("missing.key").Data())
	assert.Same(t, ms, ms.Sub(""))

	var port int
	require.NoError(t, ms.Sub("labels.b").ConvertTo(&port))
	assert.Equal(t, 2, port)
}

func TestMapStorage_Time(t *testing.T) {
	var v struct {
		At time.Time `cfg:"at"`
	}
	require.NoError(t, NewMapStorage(map[string]any{"at": "2024-03-01"}).ConvertTo(&v))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), v.At)
}
