package runtimepath

import (
	"path/filepath"
	"testing"
)

func TestDirHonorsXDGRuntimeDir(t *testing.T) {
	want := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", want)

	got, err := Dir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestSocketPathUnderRuntimeDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)

	got, err := SocketPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != filepath.Join(dir, "winstated.sock") {
		t.Fatalf("unexpected socket path %s", got)
	}
}
