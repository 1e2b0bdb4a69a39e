package capsule

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/gemctl/internal/config"
	"github.com/danmuck/gemctl/internal/gemini"
	"github.com/danmuck/gemctl/internal/testutil/testlog"
)

func scopeFor(path string) gemini.Scope {
	return gemini.Scope{
		Type:   gemini.ScopeType,
		Path:   path,
		Query:  "a=b",
		Client: gemini.Addr{Host: "127.0.0.1", Port: 50000},
	}
}

func TestBuiltinRoutes(t *testing.T) {
	r, err := New(config.CapsuleConfig{}, testlog.Start(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	index := r.Handle(ctx, scopeFor("/"))
	body := string(index.Body)
	if index.Status != 20 || index.Meta != "text/gemini" {
		t.Fatalf("unexpected index response %+v", index)
	}
	for _, want := range []string{"```debug\nClient: 127.0.0.1:50000\nPath: /\nQuery: a=b\n```", "# Hello, world!", defaultGreeting, "=> /hello/world\tGo to /hello/world"} {
		if !strings.Contains(body, want) {
			t.Fatalf("index missing %q:\n%s", want, body)
		}
	}

	hello := r.Handle(ctx, scopeFor("/hello/world"))
	if string(hello.Body) != "# Hello, world!\n\nYou requested world" {
		t.Fatalf("unexpected hello body %q", hello.Body)
	}

	failed := r.Handle(ctx, scopeFor("/error"))
	if failed.Status != 50 || failed.Meta != "ValueError: Goodbye cruel world!" {
		t.Fatalf("unexpected error response %+v", failed)
	}

	if missing := r.Handle(ctx, scopeFor("/nope")); missing.Status != 51 {
		t.Fatalf("expected 51, got %+v", missing)
	}
}

func TestStaticPagesFromConfig(t *testing.T) {
	logger := testlog.Start(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "about.gmi"), []byte("# About\n"), 0o644); err != nil {
		t.Fatalf("write page: %v", err)
	}
	path := filepath.Join(dir, "capsule.toml")
	content := `
greeting = "Welcome."

[[pages]]
path = "/about$"
file = "about.gmi"

[[pages]]
path = "/old$"
status = 31
meta = "/about"

[[pages]]
path = "/broken$"
file = "missing.gmi"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadCapsuleConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	r, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	if about := r.Handle(ctx, scopeFor("/about")); about.Status != 20 || string(about.Body) != "# About\n" {
		t.Fatalf("unexpected about page %+v", about)
	}
	if old := r.Handle(ctx, scopeFor("/old")); old.Status != 31 || old.Meta != "/about" || len(old.Body) != 0 {
		t.Fatalf("unexpected redirect %+v", old)
	}
	if broken := r.Handle(ctx, scopeFor("/broken")); broken.Status != 50 || !strings.HasPrefix(broken.Meta, "IOError: ") {
		t.Fatalf("unexpected broken page %+v", broken)
	}
	if !strings.Contains(string(r.Handle(ctx, scopeFor("/")).Body), "Welcome.") {
		t.Fatalf("greeting not applied")
	}
}
