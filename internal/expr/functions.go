package expr

import "math"

type builtin struct {
	eval func(float64) float64
	// deriv is d/du fn(u).
	deriv func(u Expr) Expr
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"sin": {math.Sin, func(u Expr) Expr { return Apply("cos", u) }},
		"cos": {math.Cos, func(u Expr) Expr { return Negate(Apply("sin", u)) }},
		"tan": {math.Tan, func(u Expr) Expr { return Div(Const(1), Pow(Apply("cos", u), Const(2))) }},
		"exp": {math.Exp, func(u Expr) Expr { return Apply("exp", u) }},
		"log": {math.Log, func(u Expr) Expr { return Div(Const(1), u) }},
		"sqrt": {math.Sqrt, func(u Expr) Expr {
			return Div(Const(1), Mul(Const(2), Apply("sqrt", u)))
		}},
		"abs":  {math.Abs, func(u Expr) Expr { return Apply("sign", u) }},
		"sign": {sign, func(Expr) Expr { return Const(0) }},
		"atan": {math.Atan, func(u Expr) Expr {
			return Div(Const(1), Add(Const(1), Pow(u, Const(2))))
		}},
		"sinh": {math.Sinh, func(u Expr) Expr { return Apply("cosh", u) }},
		"cosh": {math.Cosh, func(u Expr) Expr { return Apply("sinh", u) }},
		"tanh": {math.Tanh, func(u Expr) Expr {
			return Div(Const(1), Pow(Apply("cosh", u), Const(2)))
		}},
	}
}

// aliases map accepted spellings to builtin names.
var aliases = map[string]string{
	"ln":  "log",
	"Abs": "abs",
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	case x == 0:
		return 0
	}
	return math.NaN()
}

// Functions lists the builtin function names accepted by Parse.
func Functions() []string {
	names := make([]string, 0, len(builtins)+len(aliases)+1)
	for name := range builtins {
		names = append(names, name)
	}
	for name := range aliases {
		names = append(names, name)
	}
	return append(names, "pow")
}
