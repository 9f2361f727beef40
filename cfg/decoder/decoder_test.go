package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDecoderByExtension(t *testing.T) {
	for name, want := range map[string]Decoder{
		"fmxml.json":     &JSONDecoder{},
		"fmxml.yaml":     &YAMLDecoder{},
		"conf/fmxml.YML": &YAMLDecoder{},
		"fmxml.toml":     &TOMLDecoder{},
		"fmxml.ini":      NewINIDecoder(),
	} {
		d, err := NewDecoderByExtension(name)
		require.NoError(t, err, name)
		assert.IsType(t, want, d, name)
	}

	_, err := NewDecoderByExtension("fmxml.xml")
	assert.Error(t, err)
	_, err = NewDecoderByExtension("fmxml")
	assert.Error(t, err)
}

func TestDecoders(t *testing.T) {
	tests := []struct {
		name    string
		decoder Decoder
		data    string
	}{
		{
			name:    "json",
			decoder: &JSONDecoder{},
			data:    `{"session": {"database": "Products", "transport": {"type": "http", "options": {"host": "fm.local", "port": 8080}}}}`,
		},
		{
			name:    "yaml",
			decoder: &YAMLDecoder{},
			data: `
session:
  database: Products
  transport:
    type: http
    options:
      host: fm.local
      port: 8080
`,
		},
		{
			name:    "toml",
			decoder: &TOMLDecoder{},
			data: `
[session]
database = "Products"

[session.transport]
type = "http"

[session.transport.options]
host = "fm.local"
port = 8080
`,
		},
		{
			name:    "ini",
			decoder: NewINIDecoder(),
			data: `
[session]
database = Products

[session.transport]
type = http

[session.transport.options]
host = fm.local
port = 8080
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.decoder.Decode([]byte(tt.data))
			require.NoError(t, err)

			session, ok := m["session"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "Products", session["database"])

			transport, ok := session["transport"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "http", transport["type"])

			options, ok := transport["options"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "fm.local", options["host"])
			assert.EqualValues(t, 8080, options["port"])
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, d := range []Decoder{&JSONDecoder{}, &YAMLDecoder{}, &TOMLDecoder{}} {
		_, err := d.Decode([]byte("{[unbalanced"))
		assert.Error(t, err)
	}

	m, err := (&JSONDecoder{}).Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestINIValues(t *testing.T) {
	m, err := NewINIDecoder().Decode([]byte(`
verbose = true
retries = 3
ratio = 0.5
password = s3cret
`))
	require.NoError(t, err)
	assert.Equal(t, true, m["verbose"])
	assert.Equal(t, int64(3), m["retries"])
	assert.Equal(t, 0.5, m["ratio"])
	assert.Equal(t, "s3cret", m["password"])
}
