// Package mathmod wraps Go's math package as an `import math` host
// namespace.
package mathmod

import (
	"math"

	"github.com/emberlang/ember"
)

// Namespace returns the `math` host binding: `import math` resolves to
// this Table.
func Namespace() ember.IdentifierData {
	return ember.Namespace("math",
		ember.Constant("pi", ember.RealVal(math.Pi)),
		ember.Constant("e", ember.RealVal(math.E)),
		ember.Function("sqrt", math.Sqrt),
		ember.Function("abs", math.Abs),
		ember.Function("floor", math.Floor),
		ember.Function("ceil", math.Ceil),
		ember.Function("round", math.Round),
		ember.Function("pow", math.Pow),
		ember.Function("log", math.Log),
		ember.Function("log2", math.Log2),
		ember.Function("log10", math.Log10),
		ember.Function("sin", math.Sin),
		ember.Function("cos", math.Cos),
		ember.Function("tan", math.Tan),
		ember.Function("atan2", math.Atan2),
		ember.Function("max", math.Max),
		ember.Function("min", math.Min),
		ember.Function("mod", math.Mod),
	)
}
