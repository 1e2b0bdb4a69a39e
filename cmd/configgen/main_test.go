package main

import (
	"path/filepath"
	"testing"

	"github.com/danmuck/gemctl/internal/testutil/testlog"
)

func TestWriteThenValidate(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	for _, kind := range []string{"server", "capsule"} {
		path := filepath.Join(dir, kind+".toml")
		if err := run([]string{"-kind", kind, "-output", path}); err != nil {
			t.Fatalf("write %s: %v", kind, err)
		}
		if err := run([]string{"-kind", kind, "-validate", "-input", path}); err != nil {
			t.Fatalf("validate %s: %v", kind, err)
		}
		if err := run([]string{"-kind", kind, "-output", path}); err == nil {
			t.Fatalf("expected %s template to refuse overwrite without -force", kind)
		}
	}
	if err := run([]string{"-kind", "ghost", "-output", filepath.Join(dir, "x.toml")}); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
