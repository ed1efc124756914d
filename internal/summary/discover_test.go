package summary

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/obentoo/project-summary/internal/common/config"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(p, 0755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	mkdirs(t,
		filepath.Join(root, "b", ".git"),
		filepath.Join(root, "a", ".git"),
		filepath.Join(root, "not-a-repo"),
	)
	// worktrees have a .git file
	if err := os.WriteFile(filepath.Join(root, "not-a-repo", "x"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	mkdirs(t, filepath.Join(root, "wt"))
	if err := os.WriteFile(filepath.Join(root, "wt", ".git"), []byte("gitdir: ../a/.git/worktrees/wt\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Defaults()
	cfg.Projects = config.StringList{filepath.Join(root, "*"), filepath.Join(root, "a")}

	dirs, err := Discover(cfg)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	want := []string{filepath.Join(root, "a"), filepath.Join(root, "b"), filepath.Join(root, "wt")}
	if !reflect.DeepEqual(dirs, want) {
		t.Errorf("Discover() = %v, want %v", dirs, want)
	}
}

func TestDiscoverExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	mkdirs(t, filepath.Join(home, "src", "proj", ".git"))

	cfg := config.Defaults()
	cfg.Projects = config.StringList{"~/src/*"}

	dirs, err := Discover(cfg)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if want := []string{filepath.Join(home, "src", "proj")}; !reflect.DeepEqual(dirs, want) {
		t.Errorf("Discover() = %v, want %v", dirs, want)
	}
}

func TestDiscoverBadPattern(t *testing.T) {
	cfg := config.Defaults()
	cfg.Projects = config.StringList{"[unclosed"}
	if _, err := Discover(cfg); err == nil {
		t.Error("expected an error for a malformed pattern")
	}
}
