package decoder

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

type TOMLDecoder struct{}

func (d *TOMLDecoder) Decode(data []byte) (map[string]any, error) {
	result := map[string]any{}
	if err := toml.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "failed to decode TOML")
	}
	return result, nil
}
