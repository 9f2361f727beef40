package provider

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvProvider(t *testing.T) {
	p := NewEnvProviderWithOptions(&EnvProviderOptions{Prefix: "FMXML"})
	p.environ = func() []string {
		return []string{
			"FMXML_SESSION_DATABASE=Inventory",
			"FMXML_SESSION_TRANSPORT_OPTIONS_HOST=fm.example.com",
			"FMXML_SESSION_TRANSPORT_OPTIONS_PORT=8443",
			"FMXML_LOGLEVEL=debug",
			"FMXML_=ignored",
			"OTHER_SESSION_DATABASE=ignored",
			"PATH=/usr/bin",
		}
	}

	assert.Equal(t, map[string]string{
		"SESSION_DATABASE":               "Inventory",
		"SESSION_TRANSPORT_OPTIONS_HOST": "fm.example.com",
		"SESSION_TRANSPORT_OPTIONS_PORT": "8443",
		"LOGLEVEL":                       "debug",
	}, p.Load())

	data := p.Apply(map[string]any{
		"session": map[string]any{
			"database": "Products",
			"layout":   "Web",
			"transport": map[string]any{
				"type":    "http",
				"options": map[string]any{"host": "localhost"},
			},
		},
		"logLevel": "info",
	})

	session := data["session"].(map[string]any)
	assert.Equal(t, "Inventory", session["database"])
	assert.Equal(t, "Web", session["layout"])
	options := session["transport"].(map[string]any)["options"].(map[string]any)
	assert.Equal(t, "fm.example.com", options["host"])
	assert.Equal(t, "8443", options["port"])
	assert.Equal(t, "debug", data["logLevel"])
	assert.NotContains(t, data, "loglevel")
}

func TestEnvProviderNilData(t *testing.T) {
	p := NewEnvProviderWithOptions(nil)
	p.environ = func() []string { return []string{"FMXML_LAYOUT=Web"} }
	assert.Equal(t, map[string]any{"layout": "Web"}, p.Apply(nil))
}

func TestFileProvider(t *testing.T) {
	_, err := NewFileProviderWithOptions(&FileProviderOptions{})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "fmxml.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout: Web\n"), 0644))

	p, err := NewFileProviderWithOptions(&FileProviderOptions{FilePath: path})
	require.NoError(t, err)
	defer p.Close()

	data, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, "layout: Web\n", string(data))

	changes := make(chan string, 8)
	p.OnChange(func(data []byte) { changes <- string(data) })
	require.NoError(t, p.Watch())
	require.NoError(t, p.Watch())

	// 同目录的其他文件不触发回调
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x: 1\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("layout: Detail\n"), 0644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-changes:
			assert.NotContains(t, got, "x: 1")
			if got == "layout: Detail\n" {
				return
			}
		case <-deadline:
			t.Fatal("change not observed")
		}
	}
}

func TestFileProviderMissingFile(t *testing.T) {
	p, err := NewFileProviderWithOptions(&FileProviderOptions{FilePath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.NoError(t, err)
	_, err = p.Load()
	assert.Error(t, err)
	assert.NoError(t, p.Close())
}
