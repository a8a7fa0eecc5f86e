// Package jsonmod wraps Go's encoding/json package as an `import json`
// host namespace.
package jsonmod

import (
	"encoding/json"

	"github.com/emberlang/ember"
)

// Namespace returns the `json` host binding. encode accepts any value
// host.go's reflection layer can reduce to plain Go data (Table dot_map
// entries become a JSON object; array_map entries are not represented,
// since JSON objects have no fan-out-key concept); decode returns the
// parsed structure as nested Array/Table/primitive Values.
func Namespace() ember.IdentifierData {
	return ember.Namespace("json",
		ember.Function("encode", func(v interface{}) (string, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(b), nil
		}),
		ember.Function("decode", func(s string) (interface{}, error) {
			var out interface{}
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil, err
			}
			return out, nil
		}),
	)
}
