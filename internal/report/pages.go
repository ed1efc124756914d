package report

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/obentoo/project-summary/internal/common/config"
)

// Media selects which stylesheet rules a column emits
type Media string

const (
	// MediaDefault applies to every screen
	MediaDefault Media = ""
	// MediaNarrow applies when table cells are stacked on small screens
	MediaNarrow Media = "narrow"
)

// Page is one tab of the report
type Page struct {
	ID      string
	Title   string
	Columns []*Column
}

// NewPage creates a page
func NewPage(id, title string, columns ...*Column) *Page {
	return &Page{ID: id, Title: title, Columns: columns}
}

// discriminator is the CSS selector suffix for the column at idx: its
// class when no other column of the page shares it, otherwise its position
func (pg *Page) discriminator(idx int) string {
	class := pg.Columns[idx].Class
	if class == "" {
		return fmt.Sprintf(":nth-child(%d)", idx+1)
	}
	for i, c := range pg.Columns {
		if i != idx && c.Class == class {
			return fmt.Sprintf(":nth-child(%d)", idx+1)
		}
	}
	return "." + class
}

// StylesheetRules returns the CSS rules of the column at idx
func (pg *Page) StylesheetRules(idx int, media Media) []string {
	c := pg.Columns[idx]
	d := pg.discriminator(idx)
	var rules []string
	switch media {
	case MediaNarrow:
		if title := c.narrowTitle(); title != "" {
			rules = append(rules, fmt.Sprintf("#%s td%s:before { content: \"%s: \"; }\n", pg.ID, d, cssString(title)))
		}
	default:
		if c.Align != "" {
			rules = append(rules, fmt.Sprintf("#%s th%s,\n#%s td%s { text-align: %s; }\n", pg.ID, d, pg.ID, d, c.Align))
		}
		if c.Status && idx+1 < len(pg.Columns) && pg.Columns[idx+1].Status {
			rules = append(rules, fmt.Sprintf("#%s th%s,\n#%s td%s { padding-right: 0; }\n", pg.ID, d, pg.ID, d))
		}
		if c.Data {
			rules = append(rules, fmt.Sprintf("#%s span.new { font-weight: bold; }\n#%s span.none { color: #999; }\n", pg.ID, pg.ID))
		}
	}
	return rules
}

// cssString escapes text for a double-quoted CSS string
var cssString = strings.NewReplacer(
	`\`, `\5c `,
	`"`, `\22 `,
	`<`, `\3c `,
	`>`, `\3e `,
	"\n", `\a `,
).Replace

// JSTextExtractors returns the entries of the tablesorter textExtraction
// option, one per column with a sort rule
func (pg *Page) JSTextExtractors() template.JS {
	type entry struct{ code, comment string }
	var entries []entry
	for i, c := range pg.Columns {
		if c.SortRule == "" {
			continue
		}
		entries = append(entries, entry{fmt.Sprintf("%d: %s", i, c.SortRule), c.SortComment})
	}
	width := 0
	for i := range entries {
		if i < len(entries)-1 {
			entries[i].code += ","
		}
		if len(entries[i].code) > width {
			width = len(entries[i].code)
		}
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		if e.comment == "" {
			lines[i] = e.code
			continue
		}
		lines[i] = fmt.Sprintf("%-*s  // %s", width, e.code, e.comment)
	}
	return template.JS(strings.Join(lines, "\n"))
}

// JSRenderHeader returns the tablesorter onRenderHeader option moving the
// sort icon of right-aligned columns to the left, or "" when there are none
func (pg *Page) JSRenderHeader() template.JS {
	var right []int
	for i, c := range pg.Columns {
		if c.Align == "right" {
			right = append(right, i)
		}
	}
	if len(right) == 0 {
		return ""
	}
	var cond string
	if first := right[0]; len(right) == len(pg.Columns)-first {
		cond = fmt.Sprintf("idx >= %d", first)
	} else {
		parts := make([]string, len(right))
		for i, idx := range right {
			parts[i] = fmt.Sprintf("idx == %d", idx)
		}
		cond = strings.Join(parts, " || ")
	}
	return template.JS(fmt.Sprintf(`onRenderHeader: function(idx, config, table) {
  // move the sort indicator to the left for right-aligned columns
  if (%s) {
    var $this = $(this);
    $this.find('div').prepend($this.find('i'));
  }
},
`, cond))
}

// Pages are the tabs of the report, in display order
type Pages []*Page

// Stylesheet collects the column rules of every page for media, without
// repeating identical rules
func (ps Pages) Stylesheet(media Media) template.CSS {
	var b strings.Builder
	for _, pg := range ps {
		seen := make(map[string]bool)
		for i := range pg.Columns {
			for _, rule := range pg.StylesheetRules(i, media) {
				if seen[rule] {
					continue
				}
				seen[rule] = true
				b.WriteString(rule)
			}
		}
	}
	return template.CSS(b.String())
}

// DefaultPages lays out the release status, maintenance and Python
// versions tabs
func DefaultPages(cfg *config.Config) Pages {
	maintenance := []*Column{NameColumn(), TravisColumn()}
	for _, job := range cfg.JenkinsJobs {
		maintenance = append(maintenance, JenkinsColumn(job))
	}
	maintenance = append(maintenance,
		AppveyorColumn(),
		ActionsColumn(),
		CoverallsColumn(),
		IssuesColumn(),
		PullsColumn(),
	)

	python := []*Column{NameColumn()}
	for _, version := range cfg.PythonVersions {
		python = append(python, PythonSupportColumn(version))
	}
	python = append(python, CoverallsColumn())

	return Pages{
		NewPage("release-status", "Release status",
			NameColumn(),
			VersionColumn(),
			DateColumn(),
			ChangesColumn(),
			DownloadsColumn(),
			TravisColumn(),
			ActionsColumn(),
		),
		NewPage("maintenance", "Maintenance", maintenance...),
		NewPage("python-versions", "Python versions", python...),
	}
}
