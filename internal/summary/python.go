package summary

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	classifierPrefix = "Programming Language :: Python :: "
	implPrefix       = "Programming Language :: Python :: Implementation :: "
)

// setupPyClassifier matches a quoted Python classifier in setup.py. The
// script is scanned, never run.
var setupPyClassifier = regexp.MustCompile(`['"](Programming Language :: Python :: [^'"\n]+)['"]`)

// pyproject holds the parts of pyproject.toml that list classifiers
type pyproject struct {
	Project struct {
		Classifiers []string `toml:"classifiers"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Classifiers []string `toml:"classifiers"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// PythonVersions reads the trove classifiers of the package in dir and
// returns the supported versions. A checkout without packaging metadata
// supports nothing.
func PythonVersions(dir string) ([]string, error) {
	var classifiers []string
	readers := []struct {
		name  string
		parse func([]byte) ([]string, error)
	}{
		{"setup.py", parseSetupPy},
		{"setup.cfg", parseSetupCfg},
		{"pyproject.toml", parsePyproject},
	}
	for _, r := range readers {
		data, err := os.ReadFile(filepath.Join(dir, r.name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found, err := r.parse(data)
		if err != nil {
			return nil, err
		}
		classifiers = append(classifiers, found...)
	}
	return ParseClassifiers(classifiers), nil
}

func parseSetupPy(data []byte) ([]string, error) {
	var out []string
	for _, m := range setupPyClassifier.FindAllSubmatch(data, -1) {
		out = append(out, strings.TrimSpace(string(m[1])))
	}
	return out, nil
}

// parseSetupCfg reads the multi-line classifiers option of [metadata]
func parseSetupCfg(data []byte) ([]string, error) {
	var out []string
	section := ""
	inClassifiers := false
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = strings.Trim(trimmed, "[]")
			inClassifiers = false
			continue
		}
		if section != "metadata" {
			continue
		}
		indented := len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
		if inClassifiers && indented {
			if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				out = append(out, trimmed)
			}
			continue
		}
		inClassifiers = false
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != "classifiers" {
			continue
		}
		inClassifiers = true
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out, scanner.Err()
}

func parsePyproject(data []byte) ([]string, error) {
	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return append(doc.Project.Classifiers, doc.Tool.Poetry.Classifiers...), nil
}

// ParseClassifiers extracts language versions ("3.8") and non-CPython
// implementations ("PyPy") from trove classifiers, in order, without
// duplicates
func ParseClassifiers(classifiers []string) []string {
	var versions, impls []string
	seen := make(map[string]bool)
	for _, c := range classifiers {
		if !strings.HasPrefix(c, classifierPrefix) {
			continue
		}
		rest := c[len(classifierPrefix):]
		if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
			if !seen[rest] {
				seen[rest] = true
				versions = append(versions, rest)
			}
		}
	}
	for _, c := range classifiers {
		if !strings.HasPrefix(c, implPrefix) {
			continue
		}
		impl := c[len(implPrefix):]
		if impl == "CPython" || seen[impl] {
			continue
		}
		seen[impl] = true
		impls = append(impls, impl)
	}
	return append(versions, impls...)
}

// Simplify sorts versions and drops a bare major version ("3") when a
// minor version of it ("3.8") is also listed
func Simplify(versions []string) []string {
	out := append([]string(nil), versions...)
	sort.Strings(out)
	hasMinor := func(major string) bool {
		for _, v := range out {
			if strings.HasPrefix(v, major+".") {
				return true
			}
		}
		return false
	}
	result := make([]string, 0, len(out))
	for _, v := range out {
		if (v == "2" || v == "3") && hasMinor(v) {
			continue
		}
		result = append(result, v)
	}
	return result
}
