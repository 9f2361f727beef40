package decoder

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Decoder 将配置文件内容解码为 map，嵌套层级对应配置的层级
type Decoder interface {
	Decode(data []byte) (map[string]any, error)
}

// NewDecoderByExtension 按文件扩展名选择解码器：json、yaml/yml、toml、ini
func NewDecoderByExtension(filename string) (Decoder, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "json":
		return &JSONDecoder{}, nil
	case "yaml", "yml":
		return &YAMLDecoder{}, nil
	case "toml":
		return &TOMLDecoder{}, nil
	case "ini":
		return NewINIDecoder(), nil
	}
	return nil, errors.Errorf("unsupported config file extension %q", ext)
}
