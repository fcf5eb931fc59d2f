package expr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scope resolves the free identifiers of a translated program. The
// compiler supplies one that binds the state identifier to the owning
// component's state view and the parent identifier to the parent node's
// measured extents.
type Scope interface {
	Resolve(name string) (any, bool)
}

// MapScope is a Scope over a plain map.
type MapScope map[string]any

func (m MapScope) Resolve(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Fielder lets a value answer property accesses itself instead of going
// through reflection.
type Fielder interface {
	Field(name string) (any, bool)
}

// Eval runs the program against a scope.
func (p *Program) Eval(s Scope) (any, error) {
	e := &evaluator{scope: s, src: p.src}
	return e.eval(p.root)
}

type evaluator struct {
	scope Scope
	src   string
}

func (e *evaluator) errorf(format string, args ...any) error {
	return &EvalError{Expr: e.src, Msg: fmt.Sprintf(format, args...)}
}

func (e *evaluator) eval(n Node) (any, error) {
	switch v := n.(type) {
	case *Literal:
		return v.Value, nil

	case *Ident:
		val, ok := e.scope.Resolve(v.Name)
		if !ok {
			return nil, e.errorf("unknown identifier %q", v.Name)
		}
		return val, nil

	case *Placeholder:
		return nil, e.errorf("untranslated placeholder $%s", v.Name)

	case *Member:
		x, err := e.eval(v.X)
		if err != nil {
			return nil, err
		}
		if x == nil {
			return nil, e.errorf("cannot read %q of null", v.Name)
		}
		val, ok := field(x, v.Name)
		if !ok {
			return nil, e.errorf("no property %q on %T", v.Name, x)
		}
		return val, nil

	case *Index:
		return e.evalIndex(v)

	case *Call:
		return e.evalCall(v)

	case *Unary:
		x, err := e.eval(v.X)
		if err != nil {
			return nil, err
		}
		if v.Op == "!" {
			return !truthy(x), nil
		}
		f, ok := toFloat(x)
		if !ok {
			return nil, e.errorf("cannot negate %T", x)
		}
		return -f, nil

	case *Binary:
		return e.evalBinary(v)

	case *Cond:
		c, err := e.eval(v.If)
		if err != nil {
			return nil, err
		}
		if truthy(c) {
			return e.eval(v.Then)
		}
		return e.eval(v.Else)

	case *Interp:
		var b strings.Builder
		for _, part := range v.Parts {
			pv, err := e.eval(part)
			if err != nil {
				return nil, err
			}
			b.WriteString(Format(pv))
		}
		return b.String(), nil
	}
	return nil, e.errorf("unsupported node %T", n)
}

func (e *evaluator) evalIndex(v *Index) (any, error) {
	x, err := e.eval(v.X)
	if err != nil {
		return nil, err
	}
	key, err := e.eval(v.Key)
	if err != nil {
		return nil, err
	}

	if s, ok := key.(string); ok {
		val, found := field(x, s)
		if !found {
			return nil, e.errorf("no entry %q in %T", s, x)
		}
		return val, nil
	}

	f, ok := toFloat(key)
	if !ok {
		return nil, e.errorf("index must be a number or string, got %T", key)
	}
	i := int(f)
	seq, ok := Seq(x)
	if !ok {
		return nil, e.errorf("cannot index %T", x)
	}
	if i < 0 || i >= len(seq) {
		return nil, e.errorf("index %d out of range (len %d)", i, len(seq))
	}
	return seq[i], nil
}

func (e *evaluator) evalCall(v *Call) (any, error) {
	var fn any

	// A member callee falls back to a method when no field matches.
	if m, ok := v.Fn.(*Member); ok {
		x, err := e.eval(m.X)
		if err != nil {
			return nil, err
		}
		if x == nil {
			return nil, e.errorf("cannot call %q of null", m.Name)
		}
		if f, found := field(x, m.Name); found {
			fn = f
		} else if mv, found := method(x, m.Name); found {
			fn = mv
		} else {
			return nil, e.errorf("no method %q on %T", m.Name, x)
		}
	} else {
		f, err := e.eval(v.Fn)
		if err != nil {
			return nil, err
		}
		fn = f
	}

	args := make([]any, len(v.Args))
	for i, a := range v.Args {
		av, err := e.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = av
	}

	out, err := callFunc(fn, args)
	if err != nil {
		return nil, &EvalError{Expr: e.src, Msg: "call failed", Cause: err}
	}
	return out, nil
}

func (e *evaluator) evalBinary(v *Binary) (any, error) {
	// Short-circuit forms return the deciding operand.
	if v.Op == "&&" || v.Op == "||" {
		x, err := e.eval(v.X)
		if err != nil {
			return nil, err
		}
		if v.Op == "&&" && !truthy(x) {
			return x, nil
		}
		if v.Op == "||" && truthy(x) {
			return x, nil
		}
		return e.eval(v.Y)
	}

	x, err := e.eval(v.X)
	if err != nil {
		return nil, err
	}
	y, err := e.eval(v.Y)
	if err != nil {
		return nil, err
	}

	switch v.Op {
	case "==":
		return looseEqual(x, y), nil
	case "!=":
		return !looseEqual(x, y), nil
	}

	if v.Op == "+" {
		_, xs := x.(string)
		_, ys := y.(string)
		if xs || ys {
			return Format(x) + Format(y), nil
		}
	}

	if v.Op == "<" || v.Op == "<=" || v.Op == ">" || v.Op == ">=" {
		if xs, ok := x.(string); ok {
			if ys, ok := y.(string); ok {
				switch v.Op {
				case "<":
					return xs < ys, nil
				case "<=":
					return xs <= ys, nil
				case ">":
					return xs > ys, nil
				default:
					return xs >= ys, nil
				}
			}
		}
	}

	xf, xok := toFloat(x)
	yf, yok := toFloat(y)
	if !xok || !yok {
		return nil, e.errorf("operator %q needs numbers, got %T and %T", v.Op, x, y)
	}

	switch v.Op {
	case "+":
		return xf + yf, nil
	case "-":
		return xf - yf, nil
	case "*":
		return xf * yf, nil
	case "/":
		if yf == 0 {
			return nil, e.errorf("division by zero")
		}
		return xf / yf, nil
	case "%":
		if yf == 0 {
			return nil, e.errorf("division by zero")
		}
		return math.Mod(xf, yf), nil
	case "<":
		return xf < yf, nil
	case "<=":
		return xf <= yf, nil
	case ">":
		return xf > yf, nil
	case ">=":
		return xf >= yf, nil
	}
	return nil, e.errorf("unknown operator %q", v.Op)
}

// field resolves a property access on a value.
func field(x any, name string) (any, bool) {
	switch v := x.(type) {
	case Fielder:
		return v.Field(name)
	case map[string]any:
		val, ok := v[name]
		return val, ok
	case map[string]string:
		val, ok := v[name]
		return val, ok
	}

	rv := reflect.ValueOf(x)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		f := rv.FieldByName(name)
		if !f.IsValid() {
			f = rv.FieldByName(upperFirst(name))
		}
		if f.IsValid() && f.CanInterface() {
			return f.Interface(), true
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			mv := rv.MapIndex(reflect.ValueOf(name))
			if mv.IsValid() {
				return mv.Interface(), true
			}
		}
	}
	return nil, false
}

// method resolves a bound method, trying the exported spelling.
func method(x any, name string) (any, bool) {
	rv := reflect.ValueOf(x)
	m := rv.MethodByName(name)
	if !m.IsValid() {
		m = rv.MethodByName(upperFirst(name))
	}
	if m.IsValid() {
		return m.Interface(), true
	}
	return nil, false
}

// callFunc invokes a function value with loose numeric conversion. A
// trailing error result is propagated.
func callFunc(fn any, args []any) (any, error) {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("%T is not callable", fn)
	}
	t := rv.Type()

	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("want at least %d args, got %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("want %d args, got %d", fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var want reflect.Type
		if i < fixed {
			want = t.In(i)
		} else {
			want = t.In(t.NumIn() - 1).Elem()
		}
		av, err := convertArg(a, want)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		in[i] = av
	}

	out := rv.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if err, ok := out[0].Interface().(error); ok {
			return nil, err
		}
		return out[0].Interface(), nil
	default:
		last := out[len(out)-1]
		if err, ok := last.Interface().(error); ok && err != nil {
			return nil, err
		}
		return out[0].Interface(), nil
	}
}

func convertArg(a any, want reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(want), nil
	}
	av := reflect.ValueOf(a)
	if av.Type().AssignableTo(want) {
		return av, nil
	}
	if av.Type().ConvertibleTo(want) {
		return av.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", a, want)
}

// Seq flattens a slice or array value into []any.
func Seq(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// truthy follows the source language's notion of emptiness: nil, false,
// zero, NaN, and the empty string are false, everything else is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := toFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func looseEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return ab == bb
		}
	}
	return reflect.DeepEqual(a, b)
}

// Format renders a value the way string interpolation does: minimal
// float form, bare booleans, empty string for nil.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
