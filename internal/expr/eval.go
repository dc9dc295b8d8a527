// Package expr implements the sandboxed expression language used by
// computed report fields. The grammar is an allow-list: numeric, string,
// and boolean literals, arithmetic, comparisons, boolean operators, and
// calls into a fixed function table. There are no variables, no
// attribute access outside the math namespace, and no statement forms.
// Field references are substituted into the source text before the
// evaluator ever sees it.
package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Evaluate parses and evaluates a single expression. The result is a
// float64, string, bool, or nil. Errors wrap ErrSandbox, ErrNameDenied,
// or ErrDivisionByZero.
func Evaluate(input string) (any, error) {
	node, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return eval(node)
}

type builtinFunc func(args []any) (any, error)

var builtins = map[string]builtinFunc{
	"len":   builtinLen,
	"abs":   numeric1("abs", math.Abs),
	"min":   builtinMin,
	"max":   builtinMax,
	"round": builtinRound,
	"str":   builtinStr,
	"int":   builtinInt,
	"float": builtinFloat,
}

var mathFuncs = map[string]builtinFunc{
	"pow":      numeric2("pow", math.Pow),
	"sqrt":     numeric1("sqrt", math.Sqrt),
	"log":      numeric1("log", math.Log),
	"log10":    numeric1("log10", math.Log10),
	"log2":     numeric1("log2", math.Log2),
	"exp":      numeric1("exp", math.Exp),
	"sin":      numeric1("sin", math.Sin),
	"cos":      numeric1("cos", math.Cos),
	"tan":      numeric1("tan", math.Tan),
	"asin":     numeric1("asin", math.Asin),
	"acos":     numeric1("acos", math.Acos),
	"atan":     numeric1("atan", math.Atan),
	"floor":    numeric1("floor", math.Floor),
	"ceil":     numeric1("ceil", math.Ceil),
	"trunc":    numeric1("trunc", math.Trunc),
	"fabs":     numeric1("fabs", math.Abs),
	"hypot":    numeric2("hypot", math.Hypot),
	"copysign": numeric2("copysign", math.Copysign),
}

var mathConsts = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
	"inf": math.Inf(1),
}

func eval(node Node) (any, error) {
	switch n := node.(type) {
	case *LiteralNode:
		return n.Value, nil

	case *NameNode:
		// no ambient bindings: every surviving bare name is an error
		return nil, fmt.Errorf("%w: name %q", ErrNameDenied, n.Name)

	case *UnaryNode:
		return evalUnary(n)

	case *BinaryNode:
		return evalBinary(n)

	case *CompareNode:
		return evalCompare(n)

	case *CallNode:
		return evalCall(n)
	}

	return nil, fmt.Errorf("%w: unsupported construct", ErrSandbox)
}

func evalUnary(n *UnaryNode) (any, error) {
	v, err := eval(n.Operand)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "not":
		return !truthy(v), nil
	case "-":
		f, err := toNumber(v)
		if err != nil {
			return nil, err
		}
		return -f, nil
	case "+":
		return toNumber(v)
	}
	return nil, fmt.Errorf("%w: unsupported operator %q", ErrSandbox, n.Op)
}

func evalBinary(n *BinaryNode) (any, error) {
	// boolean operators short-circuit and yield the deciding operand
	if n.Op == "and" || n.Op == "or" {
		left, err := eval(n.Left)
		if err != nil {
			return nil, err
		}
		if n.Op == "and" && !truthy(left) {
			return left, nil
		}
		if n.Op == "or" && truthy(left) {
			return left, nil
		}
		return eval(n.Right)
	}

	left, err := eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right)
	if err != nil {
		return nil, err
	}

	if n.Op == "+" {
		ls, lok := left.(string)
		rs, rok := right.(string)
		if lok && rok {
			return ls + rs, nil
		}
		if lok != rok {
			return nil, fmt.Errorf("%w: cannot add string and number", ErrSandbox)
		}
	}

	lf, err := toNumber(left)
	if err != nil {
		return nil, err
	}
	rf, err := toNumber(right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, ErrDivisionByZero
		}
		return lf / rf, nil
	case "//":
		if rf == 0 {
			return nil, ErrDivisionByZero
		}
		return math.Floor(lf / rf), nil
	case "%":
		if rf == 0 {
			return nil, ErrDivisionByZero
		}
		m := math.Mod(lf, rf)
		if m != 0 && (m < 0) != (rf < 0) {
			m += rf
		}
		return m, nil
	case "**":
		return math.Pow(lf, rf), nil
	}

	return nil, fmt.Errorf("%w: unsupported operator %q", ErrSandbox, n.Op)
}

func evalCompare(n *CompareNode) (any, error) {
	left, err := eval(n.Operands[0])
	if err != nil {
		return nil, err
	}

	for i, op := range n.Ops {
		right, err := eval(n.Operands[i+1])
		if err != nil {
			return nil, err
		}
		ok, err := compare(op, left, right)
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
		left = right
	}
	return true, nil
}

func compare(op string, left, right any) (bool, error) {
	if op == "==" || op == "!=" {
		eq := equals(left, right)
		if op == "!=" {
			return !eq, nil
		}
		return eq, nil
	}

	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		return orderedCompare(op, strings.Compare(ls, rs)), nil
	}

	lf, err := toNumber(left)
	if err != nil {
		return false, err
	}
	rf, err := toNumber(right)
	if err != nil {
		return false, err
	}

	switch {
	case lf < rf:
		return orderedCompare(op, -1), nil
	case lf > rf:
		return orderedCompare(op, 1), nil
	}
	return orderedCompare(op, 0), nil
}

func orderedCompare(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

func equals(left, right any) bool {
	lf, lerr := toNumber(left)
	rf, rerr := toNumber(right)
	if lerr == nil && rerr == nil {
		return lf == rf
	}
	return left == right
}

func evalCall(n *CallNode) (any, error) {
	if n.Module == "math" {
		if c, ok := mathConsts[n.Name]; ok && len(n.Args) == 0 {
			return c, nil
		}
		fn, ok := mathFuncs[n.Name]
		if !ok {
			return nil, fmt.Errorf("%w: name %q", ErrNameDenied, "math."+n.Name)
		}
		args, err := evalArgs(n.Args)
		if err != nil {
			return nil, err
		}
		return fn(args)
	}

	fn, ok := builtins[n.Name]
	if !ok {
		return nil, fmt.Errorf("%w: name %q", ErrNameDenied, n.Name)
	}
	args, err := evalArgs(n.Args)
	if err != nil {
		return nil, err
	}
	return fn(args)
}

func evalArgs(nodes []Node) ([]any, error) {
	args := make([]any, len(nodes))
	for i, node := range nodes {
		v, err := eval(node)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	}
	return true
}

func toNumber(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case nil:
		return 0, fmt.Errorf("%w: cannot use none as a number", ErrSandbox)
	case string:
		return 0, fmt.Errorf("%w: cannot use string %q as a number", ErrSandbox, t)
	}
	return 0, fmt.Errorf("%w: unsupported operand type", ErrSandbox)
}

func numeric1(name string, fn func(float64) float64) builtinFunc {
	return func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: %s takes exactly one argument", ErrSandbox, name)
		}
		f, err := toNumber(args[0])
		if err != nil {
			return nil, err
		}
		return fn(f), nil
	}
}

func numeric2(name string, fn func(float64, float64) float64) builtinFunc {
	return func(args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: %s takes exactly two arguments", ErrSandbox, name)
		}
		a, err := toNumber(args[0])
		if err != nil {
			return nil, err
		}
		b, err := toNumber(args[1])
		if err != nil {
			return nil, err
		}
		return fn(a, b), nil
	}
}

func builtinLen(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: len takes exactly one argument", ErrSandbox)
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: len requires a string argument", ErrSandbox)
	}
	return float64(len(s)), nil
}

func builtinMin(args []any) (any, error) {
	return pickExtreme("min", args, func(a, b float64) bool { return a < b })
}

func builtinMax(args []any) (any, error) {
	return pickExtreme("max", args, func(a, b float64) bool { return a > b })
}

func pickExtreme(name string, args []any, better func(a, b float64) bool) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: %s takes at least two arguments", ErrSandbox, name)
	}
	best, err := toNumber(args[0])
	if err != nil {
		return nil, err
	}
	for _, arg := range args[1:] {
		f, err := toNumber(arg)
		if err != nil {
			return nil, err
		}
		if better(f, best) {
			best = f
		}
	}
	return best, nil
}

func builtinRound(args []any) (any, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("%w: round takes one or two arguments", ErrSandbox)
	}
	f, err := toNumber(args[0])
	if err != nil {
		return nil, err
	}
	digits := 0.0
	if len(args) == 2 {
		if digits, err = toNumber(args[1]); err != nil {
			return nil, err
		}
	}
	scale := math.Pow(10, digits)
	return math.RoundToEven(f*scale) / scale, nil
}

func builtinStr(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: str takes exactly one argument", ErrSandbox)
	}
	return FormatValue(args[0]), nil
}

func builtinInt(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: int takes exactly one argument", ErrSandbox)
	}
	if s, ok := args[0].(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot convert %q to a number", ErrSandbox, s)
		}
		return math.Trunc(f), nil
	}
	f, err := toNumber(args[0])
	if err != nil {
		return nil, err
	}
	return math.Trunc(f), nil
}

func builtinFloat(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: float takes exactly one argument", ErrSandbox)
	}
	if s, ok := args[0].(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot convert %q to a number", ErrSandbox, s)
		}
		return f, nil
	}
	return toNumber(args[0])
}

// FormatValue renders a value the way field substitution expects:
// whole numbers without a decimal point, booleans and none as the
// literals the grammar accepts, strings as-is.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return fmt.Sprintf("%v", v)
}
