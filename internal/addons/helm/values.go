package helm

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Values represents helm chart values as a map.
type Values map[string]any

// Merge combines multiple Values maps with later maps taking precedence.
// Nested maps are merged key by key.
func Merge(valueMaps ...Values) Values {
	result := make(Values)
	for _, m := range valueMaps {
		for k, v := range m {
			if src, ok := asValues(v); ok {
				if dst, ok := asValues(result[k]); ok {
					result[k] = Merge(dst, src)
					continue
				}
			}
			result[k] = v
		}
	}
	return result
}

func asValues(v any) (Values, bool) {
	switch m := v.(type) {
	case Values:
		return m, true
	case map[string]any:
		return Values(m), true
	}
	return nil, false
}

// ToYAML converts values to YAML bytes.
func (v Values) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode values to YAML: %w", err)
	}

	return buf.Bytes(), nil
}

// FromYAML parses YAML bytes into Values.
func FromYAML(data []byte) (Values, error) {
	var values Values
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse YAML values: %w", err)
	}
	return values, nil
}

// AsMap returns v as the plain map type the Helm SDK expects, converting
// nested Values as well.
func (v Values) AsMap() map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		if nested, ok := asValues(val); ok {
			out[k] = nested.AsMap()
			continue
		}
		out[k] = val
	}
	return out
}
