package expr

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTranslateSource(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare placeholder", "$count", "state.count"},
		{"placeholder path", "$user.name", "state.user.name"},
		{"arithmetic", "$count + 1", "state.count + 1"},
		{"precedence kept", "$a + 1 * 2", "state.a + 1 * 2"},
		{"parens kept when needed", "($a + 1) * 2", "(state.a + 1) * 2"},
		{"redundant parens dropped", "($a) + (1)", "state.a + 1"},
		{"ternary", "$open ? 'yes' : 'no'", "state.open ? 'yes' : 'no'"},
		{"comparison chain", "$n >= 3 && $n < 9", "state.n >= 3 && state.n < 9"},
		{"not", "!$done", "!state.done"},
		{"negative literal", "-4", "-4"},
		{"call with args", "$fmt($n, 2)", "state.fmt(state.n, 2)"},
		{"index", "$items[$i + 1]", "state.items[state.i + 1]"},
		{"string literal untouched", "'cost: $5'", "'cost: $5'"},
		{"double quotes normalize", `"hi"`, "'hi'"},
		{"float trims zeros", "0.50", "0.5"},
		{"null literal", "null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.in)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.in, err)
			}
			if got := p.Source(); got != tt.want {
				t.Errorf("Source() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranslateDoesNotRewriteTwice(t *testing.T) {
	p, err := Compile("$state")
	if err != nil {
		t.Fatal(err)
	}
	// Translating an already-translated tree must be a fixed point.
	again := Translate(p.Root())
	if got := again.Source(); got != "state.state" {
		t.Errorf("double translate changed the tree: %q", got)
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"dangling operator", "1 +"},
		{"bare dollar", "$ + 1"},
		{"unterminated string", "'oops"},
		{"unclosed paren", "(1 + 2"},
		{"unclosed index", "$a[1"},
		{"trailing junk", "1 2"},
		{"missing ternary else", "$a ? 1"},
		{"bad character", "1 # 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.in)
			if err == nil {
				t.Fatalf("Compile(%q) succeeded, want error", tt.in)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Errorf("error is %T, want *SyntaxError", err)
			}
		})
	}
}

func TestRefs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"$count", []string{"count"}},
		{"$a + $b.c", []string{"a", "b"}},
		{"$user.name + $user.age", []string{"user"}},
		{"$items[$i]", []string{"items", "i"}},
		{"1 + 2", nil},
		{"$f($x)", []string{"f", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := Compile(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, p.Refs()); diff != "" {
				t.Errorf("Refs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTemplates(t *testing.T) {
	scope := MapScope{StateIdent: MapScope{"name": "Ada", "n": 2.0}}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello", "hello"},
		{"single span", "hi ${$name}", "hi Ada"},
		{"two spans", "${$name}: ${$n + 1}", "Ada: 3"},
		{"escaped dollar", `costs \$5`, "costs $5"},
		{"brace in string", "${$n > 1 ? '}' : '{'}", "}"},
		{"span only", "${$name}", "Ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompileTemplate(tt.in)
			if err != nil {
				t.Fatalf("CompileTemplate(%q): %v", tt.in, err)
			}
			got, err := p.Eval(scope)
			if err != nil {
				t.Fatalf("Eval: %v", err)
			}
			if got != tt.want {
				t.Errorf("Eval = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := CompileTemplate("broken ${$a"); err == nil {
		t.Error("unterminated span should not compile")
	}
}

func TestHasInterp(t *testing.T) {
	if !HasInterp("a ${$b} c") {
		t.Error("span not detected")
	}
	if HasInterp(`a \${b} c`) {
		t.Error("escaped span must not count")
	}
	if HasInterp("plain $name") {
		t.Error("bare placeholder is not a span")
	}
}

type profile struct {
	Title string
	Score float64
}

func (p profile) Describe(prefix string) string {
	return prefix + p.Title
}

func TestEval(t *testing.T) {
	scope := MapScope{
		StateIdent: MapScope{
			"n":     4.0,
			"label": "on",
			"ok":    true,
			"list":  []any{"a", "b", "c"},
			"user":  profile{Title: "dr", Score: 9.5},
			"conf":  map[string]any{"depth": 3.0},
			"twice": func(x float64) float64 { return x * 2 },
		},
	}

	tests := []struct {
		name string
		in   string
		want any
	}{
		{"number", "2 + 3 * 4", 14.0},
		{"modulo", "7 % 4", 3.0},
		{"unary minus", "-$n", -4.0},
		{"not", "!$ok", false},
		{"state read", "$n", 4.0},
		{"ternary true", "$ok ? 1 : 2", 1.0},
		{"ternary false", "$n < 2 ? 1 : 2", 2.0},
		{"and returns decider", "$ok && $label", "on"},
		{"or returns decider", "0 || $label", "on"},
		{"and short-circuits", "false && $missing", false},
		{"equality loose", "$n == 4", true},
		{"inequality", "$label != 'off'", true},
		{"string concat", "'v' + $n", "v4"},
		{"string compare", "$label > 'am'", true},
		{"index", "$list[1]", "b"},
		{"struct field lowercase", "$user.title", "dr"},
		{"struct field exported", "$user.Score", 9.5},
		{"map member", "$conf.depth", 3.0},
		{"method call", "$user.describe('the ')", "the dr"},
		{"func from state", "$twice($n)", 8.0},
		{"null equality", "null == null", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.in)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.in, err)
			}
			got, err := p.Eval(scope)
			if err != nil {
				t.Fatalf("Eval(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	scope := MapScope{StateIdent: MapScope{"n": 1.0}}

	tests := []struct {
		name string
		in   string
	}{
		{"unknown identifier", "nope + 1"},
		{"missing property", "$n.x"},
		{"null member", "$gone.x"},
		{"division by zero", "1 / 0"},
		{"index non-sequence", "$n[9]"},
		{"call non-function", "$n(1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.in)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.in, err)
			}
			if _, err := p.Eval(scope); err == nil {
				t.Errorf("Eval(%q) succeeded, want error", tt.in)
			} else {
				var ee *EvalError
				if !errors.As(err, &ee) {
					t.Errorf("error is %T, want *EvalError", err)
				}
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{2.0, "2"},
		{2.5, "2.5"},
		{true, "true"},
		{"x", "x"},
		{7, "7"},
	}
	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
