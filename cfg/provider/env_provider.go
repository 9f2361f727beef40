package provider

import (
	"os"
	"strings"
)

// EnvProvider 将带前缀的环境变量覆盖到配置上
//
// FMXML_SESSION_TRANSPORT_OPTIONS_HOST 对应 session.transport.options.host，
// 层级名称忽略大小写匹配已有的 key
type EnvProvider struct {
	prefix  string
	environ func() []string
}

type EnvProviderOptions struct {
	Prefix string `cfg:"prefix" def:"FMXML"`
}

func NewEnvProviderWithOptions(options *EnvProviderOptions) *EnvProvider {
	prefix := "FMXML"
	if options != nil && options.Prefix != "" {
		prefix = options.Prefix
	}
	return &EnvProvider{prefix: strings.TrimSuffix(prefix, "_") + "_", environ: os.Environ}
}

// Load 返回去掉前缀后的环境变量
func (p *EnvProvider) Load() map[string]string {
	vars := map[string]string{}
	for _, kv := range p.environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, p.prefix) || len(key) == len(p.prefix) {
			continue
		}
		vars[key[len(p.prefix):]] = value
	}
	return vars
}

// Apply 将环境变量写入 data，返回 data
func (p *EnvProvider) Apply(data map[string]any) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	for key, value := range p.Load() {
		parts := strings.Split(key, "_")
		target := data
		for i, part := range parts {
			name := lookup(target, part)
			if i == len(parts)-1 {
				target[name] = value
				break
			}
			child, ok := target[name].(map[string]any)
			if !ok {
				child = map[string]any{}
				target[name] = child
			}
			target = child
		}
	}
	return data
}

func lookup(m map[string]any, part string) string {
	for k := range m {
		if strings.EqualFold(k, part) {
			return k
		}
	}
	return strings.ToLower(part)
}
