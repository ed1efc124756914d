package summary

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPythonVersionsSetupPy(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "setup.py", `from setuptools import setup
setup(
    classifiers=[
        'Programming Language :: Python :: 3.8',
        "Programming Language :: Python :: 3.9",
        'Programming Language :: Python :: Implementation :: CPython',
        'Programming Language :: Python :: Implementation :: PyPy',
        'License :: OSI Approved :: GNU General Public License (GPL)',
    ],
)
`)
	got, err := PythonVersions(dir)
	if err != nil {
		t.Fatalf("PythonVersions() error = %v", err)
	}
	if want := []string{"3.8", "3.9", "PyPy"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PythonVersions() = %v, want %v", got, want)
	}
}

func TestPythonVersionsSetupCfg(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "setup.cfg", `[metadata]
name = foo
classifiers =
    Programming Language :: Python :: 3
    Programming Language :: Python :: 3.7
    # comment
    Programming Language :: Python :: 3.8
long_description = file: README.rst

[options]
classifiers =
    Programming Language :: Python :: 2.7
`)
	got, err := PythonVersions(dir)
	if err != nil {
		t.Fatalf("PythonVersions() error = %v", err)
	}
	if want := []string{"3", "3.7", "3.8"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PythonVersions() = %v, want %v", got, want)
	}
}

func TestPythonVersionsPyproject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", `[project]
name = "foo"
classifiers = [
    "Programming Language :: Python :: 3.12",
    "Programming Language :: Python :: 3.13",
]
`)
	got, err := PythonVersions(dir)
	if err != nil {
		t.Fatalf("PythonVersions() error = %v", err)
	}
	if want := []string{"3.12", "3.13"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PythonVersions() = %v, want %v", got, want)
	}
}

func TestPythonVersionsBrokenPyproject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[project\n")
	if _, err := PythonVersions(dir); err == nil {
		t.Error("expected a TOML error")
	}
}

func TestPythonVersionsNoPackaging(t *testing.T) {
	got, err := PythonVersions(t.TempDir())
	if err != nil || len(got) != 0 {
		t.Errorf("PythonVersions() = %v, %v", got, err)
	}
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		in, want []string
	}{
		{[]string{"3.8", "3", "2.7", "2"}, []string{"2.7", "3.8"}},
		{[]string{"3"}, []string{"3"}},
		{[]string{"PyPy", "3.9", "3"}, []string{"3.9", "PyPy"}},
		{nil, []string{}},
	}
	for _, tt := range tests {
		if got := Simplify(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Simplify(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSimplifyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	version := gen.OneConstOf("2", "3", "2.7", "3.6", "3.7", "3.8", "PyPy")

	properties.Property("Simplify never grows the list and keeps minor versions", prop.ForAll(
		func(versions []string) bool {
			out := Simplify(versions)
			if len(out) > len(versions) {
				return false
			}
			for _, v := range versions {
				if len(v) > 1 && !contains(out, v) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(version),
	))

	properties.TestingRun(t)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
