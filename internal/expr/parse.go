package expr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/Knetic/govaluate"
)

// ErrSyntax is returned for text that is not a supported expression.
var ErrSyntax = errors.New("expr: syntax error")

// identifier matches the names govaluate reads as variables or functions.
var identifier = regexp.MustCompile(`[A-Za-z][A-Za-z0-9_.]*`)

// constants are identifiers read as numbers instead of variables.
var constants = map[string]float64{
	"pi": math.Pi,
	"E":  math.E,
}

// Parse reads an expression in the usual infix notation: + - * / for
// arithmetic, ** for powers (right associative, binding tighter than unary
// minus, so -x**2 is -(x**2)), pow(a, b), pi, E and the builtin functions
// listed by Functions.
func Parse(src string) (Expr, error) {
	gexpr, err := govaluate.NewEvaluableExpressionWithFunctions(src, evaluatorFunctions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	p := &parser{tokens: gexpr.Tokens()}
	for _, tok := range p.tokens {
		if tok.Kind == govaluate.STRING {
			return nil, fmt.Errorf("%w: string literals are not supported", ErrSyntax)
		}
	}

	// govaluate replaces function names by their implementations, so the
	// names are recovered from the source in order of appearance.
	for _, id := range identifier.FindAllString(src, -1) {
		if isFunctionName(id) {
			p.funcs = append(p.funcs, id)
		}
	}

	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("%w: unexpected trailing %v", ErrSyntax, p.tokens[p.pos].Value)
	}
	return e.Simplify(), nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func isFunctionName(name string) bool {
	if name == "pow" {
		return true
	}
	if _, ok := aliases[name]; ok {
		return true
	}
	_, ok := builtins[name]
	return ok
}

type parser struct {
	tokens []govaluate.ExpressionToken
	pos    int
	funcs  []string
	fnPos  int
}

func (p *parser) peek() (govaluate.ExpressionToken, bool) {
	if p.pos >= len(p.tokens) {
		return govaluate.ExpressionToken{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) peekOperator(kind govaluate.TokenKind, ops ...string) (string, bool) {
	tok, ok := p.peek()
	if !ok || tok.Kind != kind {
		return "", false
	}
	s, _ := tok.Value.(string)
	for _, op := range ops {
		if s == op {
			return s, true
		}
	}
	return "", false
}

func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.peekOperator(govaluate.MODIFIER, "+", "-")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op[0], L: left, R: right}
	}
}

func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.peekOperator(govaluate.MODIFIER, "*", "/")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op[0], L: left, R: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if tok, ok := p.peek(); ok && tok.Kind == govaluate.PREFIX {
		if s, _ := tok.Value.(string); s != "-" {
			return nil, fmt.Errorf("%w: unsupported prefix %v", ErrSyntax, tok.Value)
		}
		p.pos++
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Neg{X: x}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if _, ok := p.peekOperator(govaluate.MODIFIER, "**"); !ok {
		return base, nil
	}
	p.pos++
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return Binary{Op: '^', L: base, R: exp}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	}
	p.pos++

	switch tok.Kind {
	case govaluate.NUMERIC:
		v, ok := tok.Value.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: bad number %v", ErrSyntax, tok.Value)
		}
		return Num{V: v}, nil

	case govaluate.VARIABLE:
		name, _ := tok.Value.(string)
		if v, ok := constants[name]; ok {
			return Num{V: v}, nil
		}
		return Var{Name: name}, nil

	case govaluate.CLAUSE:
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if err := p.expect(govaluate.CLAUSE_CLOSE); err != nil {
			return nil, err
		}
		return inner, nil

	case govaluate.FUNCTION:
		return p.parseCall()
	}
	return nil, fmt.Errorf("%w: unsupported token %v (%v)", ErrSyntax, tok.Value, tok.Kind)
}

func (p *parser) parseCall() (Expr, error) {
	if p.fnPos >= len(p.funcs) {
		return nil, fmt.Errorf("%w: unknown function call", ErrSyntax)
	}
	name := p.funcs[p.fnPos]
	p.fnPos++
	if alias, ok := aliases[name]; ok {
		name = alias
	}

	if err := p.expect(govaluate.CLAUSE); err != nil {
		return nil, err
	}
	var args []Expr
	for {
		arg, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if tok, ok := p.peek(); ok && tok.Kind == govaluate.SEPARATOR {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect(govaluate.CLAUSE_CLOSE); err != nil {
		return nil, err
	}

	if name == "pow" {
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: pow takes 2 arguments, got %d", ErrSyntax, len(args))
		}
		return Binary{Op: '^', L: args[0], R: args[1]}, nil
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: %s takes 1 argument, got %d", ErrSyntax, name, len(args))
	}
	return Call{Fn: name, Arg: args[0]}, nil
}

func (p *parser) expect(kind govaluate.TokenKind) error {
	tok, ok := p.peek()
	if !ok || tok.Kind != kind {
		return fmt.Errorf("%w: expected %v", ErrSyntax, kind)
	}
	p.pos++
	return nil
}

// evaluatorFunctions registers every builtin with govaluate so that it
// accepts the names during lexing and can evaluate the source directly.
func evaluatorFunctions() map[string]govaluate.ExpressionFunction {
	funcs := make(map[string]govaluate.ExpressionFunction, len(builtins)+len(aliases)+1)
	for name, bi := range builtins {
		funcs[name] = unary(bi.eval)
	}
	for alias, name := range aliases {
		funcs[alias] = unary(builtins[name].eval)
	}
	funcs["pow"] = func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow takes 2 arguments, got %d", len(args))
		}
		return math.Pow(toFloat(args[0]), toFloat(args[1])), nil
	}
	return funcs
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return fn(toFloat(args[0])), nil
	}
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
