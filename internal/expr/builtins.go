package expr

import (
	"math"
	"math/rand/v2"
)

// Builtin is a function provided by the language itself.
type Builtin struct {
	Name string
	// MinArgs and MaxArgs bound the arity; MaxArgs < 0 means variadic.
	MinArgs, MaxArgs int
	// Volatile builtins return different values for identical arguments.
	Volatile bool
	Fn       func(args []float64) float64
}

func unary(name string, f func(float64) float64) *Builtin {
	return &Builtin{Name: name, MinArgs: 1, MaxArgs: 1, Fn: func(a []float64) float64 { return f(a[0]) }}
}

func binary(name string, f func(float64, float64) float64) *Builtin {
	return &Builtin{Name: name, MinArgs: 2, MaxArgs: 2, Fn: func(a []float64) float64 { return f(a[0], a[1]) }}
}

func variadic(name string, f func([]float64) float64) *Builtin {
	return &Builtin{Name: name, MinArgs: 1, MaxArgs: -1, Fn: f}
}

func volatile(b *Builtin) *Builtin {
	b.Volatile = true
	return b
}

var builtins = map[string]*Builtin{}

func register(bs ...*Builtin) {
	for _, b := range bs {
		builtins[b.Name] = b
	}
}

func init() {
	register(
		unary("sin", math.Sin), unary("cos", math.Cos), unary("tan", math.Tan),
		unary("asin", math.Asin), unary("acos", math.Acos), unary("atan", math.Atan),
		unary("sinh", math.Sinh), unary("cosh", math.Cosh), unary("tanh", math.Tanh),
		unary("asinh", math.Asinh), unary("acosh", math.Acosh), unary("atanh", math.Atanh),
		unary("exp", math.Exp), unary("log", math.Log), unary("ln", math.Log),
		unary("log2", math.Log2), unary("log10", math.Log10), unary("sqrt", math.Sqrt),
		unary("abs", math.Abs), unary("sign", sign), unary("rint", math.RoundToEven),
		unary("floor", math.Floor), unary("ceil", math.Ceil),
		binary("atan2", math.Atan2), binary("mod", math.Mod), binary("pow", math.Pow),
		binary("hypot", math.Hypot),
		variadic("min", func(a []float64) float64 {
			m := a[0]
			for _, v := range a[1:] {
				m = math.Min(m, v)
			}
			return m
		}),
		variadic("max", func(a []float64) float64 {
			m := a[0]
			for _, v := range a[1:] {
				m = math.Max(m, v)
			}
			return m
		}),
		variadic("sum", sum),
		variadic("avg", func(a []float64) float64 { return sum(a) / float64(len(a)) }),

		volatile(binary("rand_uni", func(lo, hi float64) float64 { return lo + rand.Float64()*(hi-lo) })),
		volatile(binary("rand_norm", func(mean, sd float64) float64 { return mean + rand.NormFloat64()*sd })),
		volatile(&Builtin{Name: "rand_bool", Fn: func([]float64) float64 {
			if rand.IntN(2) == 1 {
				return 1
			}
			return 0
		}}),
		volatile(binary("rand_gamma", randGamma)),
	)
}

// LookupBuiltin returns the builtin called name.
func LookupBuiltin(name string) (*Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func sum(a []float64) float64 {
	s := 0.0
	for _, v := range a {
		s += v
	}
	return s
}

// randGamma samples Gamma(shape, scale) with the Marsaglia-Tsang method.
func randGamma(shape, scale float64) float64 {
	if shape <= 0 || scale <= 0 {
		return math.NaN()
	}
	if shape < 1 {
		return randGamma(shape+1, scale) * math.Pow(rand.Float64(), 1/shape)
	}
	d := shape - 1.0/3
	c := 1 / math.Sqrt(9*d)
	for {
		x := rand.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rand.Float64()
		if math.Log(u) < 0.5*x*x+d-d*v+d*math.Log(v) {
			return d * v * scale
		}
	}
}
