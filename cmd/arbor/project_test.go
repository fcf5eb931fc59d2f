package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestComponentName(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"app.arb", "App"},
		{"nav-bar.arb", "NavBar"},
		{"user_card.arb", "UserCard"},
		{"todo-list-item.arb", "TodoListItem"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			if got := componentName(tt.file); got != tt.want {
				t.Errorf("componentName(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestScaffoldAndBuild(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	if err := scaffold(dir, "starter"); err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	if err := scaffold(dir, "starter"); err == nil {
		t.Fatal("scaffold over an existing directory must fail")
	}

	p, err := openProject(dir)
	if err != nil {
		t.Fatalf("openProject: %v", err)
	}
	defer p.close()
	p.cache = nil // keep the test out of the user cache dir

	res, err := p.build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Sources != 1 {
		t.Errorf("Sources = %d, want 1", res.Sources)
	}
	if !strings.Contains(res.Body, "card-header") {
		t.Errorf("starter page missing the card header:\n%s", res.Body)
	}
	if !strings.Contains(res.Body, "Edit components/app.arb") {
		t.Errorf("starter page missing the intro text:\n%s", res.Body)
	}
}

func TestBuildReportsMissingEntry(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	if err := scaffold(dir, "bare"); err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	p, err := openProject(dir)
	if err != nil {
		t.Fatalf("openProject: %v", err)
	}
	defer p.close()
	p.cache = nil

	p.cfg.Entry = "missing.arb"
	if _, err := p.build(); err == nil {
		t.Fatal("expected an error for a missing entry component")
	}
}
