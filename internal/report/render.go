package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/obentoo/project-summary/internal/common/config"
	"github.com/obentoo/project-summary/internal/common/output"
	"github.com/obentoo/project-summary/internal/summary"
)

// PageTitle is the heading of the HTML report
const PageTitle = "Projects"

// ErrNoPages is returned when asked to render a report without tabs
var ErrNoPages = errors.New("report has no pages")

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type pageData struct {
	Title            string
	Pages            Pages
	FirstPage        string
	Projects         []*summary.Project
	Stylesheet       template.CSS
	NarrowStylesheet template.CSS
	Footer           template.HTML
}

// RenderHTML renders the status page. The footer from the configuration
// is trusted HTML.
func RenderHTML(w io.Writer, projects []*summary.Project, cfg *config.Config) error {
	return RenderPages(w, projects, DefaultPages(cfg), cfg.Footer)
}

// RenderPages renders the status page with a custom set of tabs. The page
// is rendered in memory first, so w receives nothing on failure.
func RenderPages(w io.Writer, projects []*summary.Project, pages Pages, footer string) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	data := pageData{
		Title:            PageTitle,
		Pages:            pages,
		FirstPage:        pages[0].ID,
		Projects:         projects,
		Stylesheet:       pages.Stylesheet(MediaDefault),
		NarrowStylesheet: pages.Stylesheet(MediaNarrow),
		Footer:           template.HTML(footer),
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// WriteFile renders the HTML report to path, replacing the old page only
// once the new one is complete. "" or "-" writes to stdout.
func WriteFile(path string, projects []*summary.Project, cfg *config.Config) error {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, projects, cfg); err != nil {
		return err
	}
	if path == "" || path == "-" {
		_, err := buf.WriteTo(os.Stdout)
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := buf.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// RenderText lists the projects one per line. Verbosity 1 adds the
// compare URL and Python versions, 2 also the working tree.
func RenderText(w io.Writer, projects []*summary.Project, verbosity int) error {
	for _, p := range projects {
		count := output.StateColor(string(p.Behind)).Sprintf("%4d", p.PendingCount())
		date := NiceDate(p.LastTagDate)
		if p.Dirty {
			date += ", " + output.Sprint(output.Warning, "dirty")
		}
		if _, err := fmt.Fprintf(w, "%-24s %s commits since %-6s (%s)\n", p.Name, count, p.LastTag, date); err != nil {
			return err
		}
		if verbosity < 1 {
			continue
		}
		lines := []string{"  " + p.CompareURL()}
		if verbosity >= 2 {
			lines = append(lines, "  "+p.WorkingTree)
		}
		lines = append(lines, "  Python versions: "+strings.Join(summary.Simplify(p.PythonVersions), ", "), "")
		if _, err := fmt.Fprintln(w, strings.Join(lines, "\n")); err != nil {
			return err
		}
	}
	return nil
}
