// Package stringmod wraps Go's strings/strconv packages as an
// `import string` host namespace.
package stringmod

import (
	"strconv"
	"strings"

	"github.com/emberlang/ember"
)

// Namespace returns the `string` host binding.
func Namespace() ember.IdentifierData {
	return ember.Namespace("string",
		ember.Function("len", func(s string) int64 { return int64(len(s)) }),
		ember.Function("upper", strings.ToUpper),
		ember.Function("lower", strings.ToLower),
		ember.Function("trim", strings.TrimSpace),
		ember.Function("split", strings.Split),
		ember.Function("join", strings.Join),
		ember.Function("contains", strings.Contains),
		ember.Function("hasPrefix", strings.HasPrefix),
		ember.Function("hasSuffix", strings.HasSuffix),
		ember.Function("replace", strings.ReplaceAll),
		ember.Function("index", func(s, sub string) int64 { return int64(strings.Index(s, sub)) }),
		ember.Function("repeat", func(s string, n int64) string { return strings.Repeat(s, int(n)) }),
		ember.Function("parseInt", strconv.Atoi),
		ember.Function("parseReal", func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }),
		ember.Function("fromInt", func(n int64) string { return strconv.FormatInt(n, 10) }),
		ember.Function("fromReal", func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }),
	)
}
