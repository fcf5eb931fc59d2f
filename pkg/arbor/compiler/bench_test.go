package compiler

import (
	"fmt"
	"testing"

	"github.com/arborui/arbor/pkg/arbor/component"
	"github.com/arborui/arbor/pkg/arbor/template"
	"github.com/arborui/arbor/pkg/renderer/headless"
)

// wideTree builds a root with n plain children, each carrying one
// static attribute and one reactive binding.
func wideTree(n int) *template.Node {
	kids := make([]*template.Node, n)
	for i := 0; i < n; i++ {
		kids[i] = template.Element(template.Attrs{
			{Name: "id", Value: fmt.Sprintf("row-%d", i)},
			{Name: ":label", Value: "$title"},
		})
	}
	return template.Element(nil, kids...)
}

func BenchmarkCompile1kNodes(b *testing.B) {
	tree := wideTree(1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Compile(tree, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkConstruct1kNodes(b *testing.B) {
	tree := wideTree(1000)
	prog, err := Compile(tree, nil)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		be := headless.New()
		prog.Context.Backend = be
		owner := component.New("bench")
		owner.SetState("title", "hello")
		if err := prog.Run(nil, owner); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEffectFlush measures re-running every binding effect over an
// already constructed tree, the hot path of a state change.
func BenchmarkEffectFlush(b *testing.B) {
	tree := wideTree(1000)
	prog, err := Compile(tree, nil)
	if err != nil {
		b.Fatal(err)
	}
	be := headless.New()
	prog.Context.Backend = be
	owner := component.New("bench")
	owner.SetState("title", "hello")
	if err := prog.Run(nil, owner); err != nil {
		b.Fatal(err)
	}
	m := owner.Mounts()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		owner.SetState("title", fmt.Sprintf("tick-%d", i))
		for _, eff := range prog.Effects {
			if err := eff(owner, m, prog.Context); err != nil {
				b.Fatal(err)
			}
		}
	}
}
