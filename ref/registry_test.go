package ref

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface {
	Greet() string
}

type english struct {
	name string
}

func (e *english) Greet() string { return "hello " + e.name }

type englishOptions struct {
	Name string
}

func newEnglish(options *englishOptions) (*english, error) {
	if options.Name == "" {
		return nil, errors.New("name is required")
	}
	return &english{name: options.Name}, nil
}

type silent struct{}

func (silent) Greet() string { return "" }

func newSilent() silent { return silent{} }

// mapConvertable 模拟配置存储
type mapConvertable map[string]string

func (m mapConvertable) ConvertTo(object any) error {
	opts, ok := object.(*englishOptions)
	if !ok {
		return errors.New("unexpected target")
	}
	opts.Name = m["name"]
	return nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry[greeter]("greeter")
	require.NoError(t, r.Register("english", newEnglish))
	require.NoError(t, r.Register("silent", newSilent))

	t.Run("options of the parameter type", func(t *testing.T) {
		g, err := r.New(&TypeOptions{Type: "english", Options: &englishOptions{Name: "fm"}})
		require.NoError(t, err)
		assert.Equal(t, "hello fm", g.Greet())
	})

	t.Run("options by value", func(t *testing.T) {
		g, err := r.New(&TypeOptions{Type: "english", Options: englishOptions{Name: "xml"}})
		require.NoError(t, err)
		assert.Equal(t, "hello xml", g.Greet())
	})

	t.Run("convertable options", func(t *testing.T) {
		g, err := r.New(&TypeOptions{Type: "english", Options: mapConvertable{"name": "cfg"}})
		require.NoError(t, err)
		assert.Equal(t, "hello cfg", g.Greet())
	})

	t.Run("constructor error", func(t *testing.T) {
		_, err := r.New(&TypeOptions{Type: "english"})
		assert.ErrorContains(t, err, "name is required")
	})

	t.Run("constructor without options", func(t *testing.T) {
		g, err := r.New(&TypeOptions{Type: "silent"})
		require.NoError(t, err)
		assert.Equal(t, "", g.Greet())
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := r.New(&TypeOptions{Type: "french"})
		assert.ErrorContains(t, err, "unknown greeter type")
		assert.Equal(t, []string{"english", "silent"}, r.Types())
	})

	t.Run("nil options", func(t *testing.T) {
		_, err := r.New(nil)
		assert.Error(t, err)
	})

	t.Run("incompatible options", func(t *testing.T) {
		_, err := r.New(&TypeOptions{Type: "english", Options: 42})
		assert.Error(t, err)
	})
}

func TestRegister(t *testing.T) {
	r := NewRegistry[greeter]("greeter")

	assert.NoError(t, r.Register("english", newEnglish))
	assert.NoError(t, r.Register("english", newEnglish), "same constructor registers twice")
	assert.Error(t, r.Register("english", newSilent), "different constructor under the same name")

	assert.Error(t, r.Register("bad", "not a function"))
	assert.Error(t, r.Register("bad", func(a, b int) greeter { return nil }))
	assert.Error(t, r.Register("bad", func() (greeter, int) { return nil, 0 }))
	assert.Error(t, r.Register("bad", func() string { return "" }))

	assert.Panics(t, func() { r.MustRegister("bad", 1) })
}
