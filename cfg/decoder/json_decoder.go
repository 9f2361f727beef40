package decoder

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

type JSONDecoder struct{}

func (d *JSONDecoder) Decode(data []byte) (map[string]any, error) {
	result := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "failed to decode JSON")
	}
	return result, nil
}
