package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arborui/arbor/cmd/arbor/internal/config"
	"github.com/arborui/arbor/internal/cache"
	"github.com/arborui/arbor/pkg/arbor"
	"github.com/arborui/arbor/pkg/arbor/template"
	"github.com/arborui/arbor/pkg/components"
	"github.com/arborui/arbor/pkg/markup"
	"github.com/arborui/arbor/pkg/renderer/headless"
	"github.com/arborui/arbor/pkg/renderer/html"
)

// project is an opened arbor project: its configuration plus the shared
// build cache. Both build and preview go through it.
type project struct {
	root  string
	cfg   *config.Config
	cache *cache.Cache
}

// openProject loads arbor.yaml from root. A broken build cache is not
// fatal; the project just builds uncached.
func openProject(root string) (*project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(abs)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cache.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: build cache disabled: %v\n", err)
		c = nil
	}
	return &project{root: abs, cfg: cfg, cache: c}, nil
}

func (p *project) close() {
	if p.cache != nil {
		p.cache.Close()
	}
}

// source is one .arb file, read into memory.
type source struct {
	file string // base name, e.g. "nav-bar.arb"
	path string
	text string
}

// buildResult is a rendered page body plus bookkeeping for the CLI
// output.
type buildResult struct {
	Body    string
	Sources int
	Cached  bool
}

// build compiles every .arb file under the components directory,
// mounts the entry component, and renders the resulting scene tree to
// an HTML body. Results are cached on the full source fingerprint.
func (p *project) build() (*buildResult, error) {
	sources, err := p.readSources()
	if err != nil {
		return nil, err
	}

	var entry *source
	for i := range sources {
		if sources[i].file == p.cfg.Entry {
			entry = &sources[i]
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("entry %s not found in %s", p.cfg.Entry, p.cfg.ComponentsDir)
	}

	key, err := p.fingerprint(sources)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		if data, ok := p.cache.Get(key); ok {
			return &buildResult{Body: string(data), Sources: len(sources), Cached: true}, nil
		}
	}

	be := headless.New()
	app := arbor.New(be)
	if err := components.Register(app.Components, be); err != nil {
		return nil, err
	}
	for _, s := range sources {
		if s.file == p.cfg.Entry {
			continue
		}
		if err := app.Define(componentName(s.file), s.text); err != nil {
			return nil, err
		}
	}

	if _, err := app.Mount(componentName(entry.file), entry.text, nil, nil); err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, root := range be.Roots() {
		out, err := html.Render(root.Snapshot())
		if err != nil {
			return nil, err
		}
		sb.WriteString(out)
	}
	body := sb.String()

	if p.cache != nil {
		if err := p.cache.Put(key, entry.path, []byte(body)); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cache write failed: %v\n", err)
		}
	}
	return &buildResult{Body: body, Sources: len(sources)}, nil
}

// readSources loads every .arb file in the components directory, in
// name order.
func (p *project) readSources() ([]source, error) {
	dir := filepath.Join(p.root, p.cfg.ComponentsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read components: %w", err)
	}

	var out []source
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".arb") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, source{file: e.Name(), path: path, text: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].file < out[j].file })
	if len(out) == 0 {
		return nil, fmt.Errorf("no .arb files in %s", dir)
	}
	return out, nil
}

// fingerprint keys the cache on every input that affects the build:
// the framework version, the config, and a structural fingerprint of
// each parsed template. Formatting-only edits keep the same key.
func (p *project) fingerprint(sources []source) (string, error) {
	inputs := []string{arbor.Version, p.cfg.Name, p.cfg.Entry}
	for _, s := range sources {
		tree, err := markup.Parse(s.file, s.text)
		if err != nil {
			return "", err
		}
		inputs = append(inputs, s.file, template.Fingerprint(tree))
	}
	return cache.Key(inputs...), nil
}

// componentName derives the registered component name from a file
// name: "nav-bar.arb" becomes "NavBar".
func componentName(file string) string {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	parts := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}
