package report

import (
	"html/template"
	"strconv"

	"github.com/obentoo/project-summary/internal/common/config"
	"github.com/obentoo/project-summary/internal/summary"
)

// Column is one table column of a page
type Column struct {
	Title string
	// TitleNarrow labels cells when the table collapses on small screens;
	// defaults to Title
	TitleNarrow  string
	TitleTooltip string
	Class        string
	Align        string
	Width        string

	// Status columns show CI badges, data columns show issue counts
	Status bool
	Data   bool

	// SortRule names the tablesorter text extractor for this column
	SortRule    string
	SortComment string

	Inner   func(p *summary.Project) template.HTML
	Tooltip func(p *summary.Project) string
	// DataAttrs become data-* attributes of the cell
	DataAttrs func(p *summary.Project) []Attr
}

func (c *Column) narrowTitle() string {
	if c.TitleNarrow != "" {
		return c.TitleNarrow
	}
	return c.Title
}

// Col renders the <col> element
func (c *Column) Col() template.HTML {
	if c.Width == "" {
		return Tag("col", nil)
	}
	return Tag("col", nil, A("width", c.Width))
}

// TH renders the header cell
func (c *Column) TH() template.HTML {
	var attrs []Attr
	if c.Class != "" {
		attrs = append(attrs, A("class", c.Class))
	}
	if c.TitleTooltip != "" {
		attrs = append(attrs, A("title", c.TitleTooltip))
	}
	return Tag("th", c.Title, attrs...)
}

// TD renders the body cell for a project
func (c *Column) TD(p *summary.Project) template.HTML {
	var attrs []Attr
	if c.Class != "" {
		attrs = append(attrs, A("class", c.Class))
	}
	if c.Tooltip != nil {
		if title := c.Tooltip(p); title != "" {
			attrs = append(attrs, A("title", title))
		}
	}
	if c.DataAttrs != nil {
		for _, a := range c.DataAttrs(p) {
			attrs = append(attrs, A("data-"+a.Name, a.Value))
		}
	}
	var inner template.HTML = "-"
	if c.Inner != nil {
		inner = c.Inner(p)
	}
	return Tag("td", inner, attrs...)
}

// NameColumn links to the project, showing the branch when it is not the
// main one
func NameColumn() *Column {
	return &Column{
		Title: "Name",
		Class: "name",
		Inner: func(p *summary.Project) template.HTML {
			var link template.HTML
			if p.URL != "" {
				link = Tag("a", p.Name, A("href", p.URL))
			} else {
				link = Tag("", p.Name)
			}
			if p.Branch == "" || p.Branch == "master" || p.Branch == "main" {
				return link
			}
			return Concat(link, " ", Tag("", p.Branch))
		},
	}
}

func VersionColumn() *Column {
	return &Column{
		Title:       "Last release",
		TitleNarrow: "Last release",
		Class:       "version",
		Inner: func(p *summary.Project) template.HTML {
			return Tag("a", p.LastTag, A("href", p.PyPIURL()))
		},
	}
}

func DateColumn() *Column {
	return &Column{
		Title:       "Date",
		TitleNarrow: "Released",
		Class:       "date",
		SortRule:    "sortTitleAttribute",
		SortComment: "ISO-8601 date in title",
		Tooltip:     func(p *summary.Project) string { return p.LastTagDate },
		Inner: func(p *summary.Project) template.HTML {
			return Tag("", NiceDate(p.LastTagDate))
		},
	}
}

func ChangesColumn() *Column {
	return &Column{
		Title:       "Pending changes",
		TitleNarrow: "Changes since",
		Class:       "changes",
		Align:       "right",
		Inner: func(p *summary.Project) template.HTML {
			text := Pluralize(p.PendingCount(), "commits")
			if url := p.CompareURL(); url != "" {
				return Tag("a", text, A("href", url))
			}
			return Tag("", text)
		},
	}
}

func DownloadsColumn() *Column {
	return &Column{
		Title:        "Downloads",
		TitleTooltip: "Downloads from PyPI in the last month",
		Class:        "downloads",
		Align:        "right",
		SortRule:     "sortDownloads",
		SortComment:  "download count in data attributes",
		DataAttrs: func(p *summary.Project) []Attr {
			return []Attr{A("downloads", optionalInt(p.Downloads))}
		},
		Inner: func(p *summary.Project) template.HTML {
			if p.Downloads == nil {
				return "-"
			}
			return Tag("a", Commas(*p.Downloads), A("href", p.PyPIStatsURL()))
		},
	}
}

func optionalInt(n *int) string {
	if n == nil {
		return "-1"
	}
	return strconv.Itoa(*n)
}

// statusColumn shows a badge image linking to a CI service
func statusColumn(title, class string, status func(p *summary.Project) (href, img, alt string)) *Column {
	return &Column{
		Title:  title,
		Class:  class,
		Status: true,
		Inner: func(p *summary.Project) template.HTML {
			href, img, alt := status(p)
			if href == "" || img == "" {
				return "-"
			}
			return Tag("a", Tag("img", nil, A("src", img), A("alt", alt), A("height", "20")), A("href", href))
		},
	}
}

func TravisColumn() *Column {
	c := statusColumn("Travis CI", "travis", func(p *summary.Project) (string, string, string) {
		return p.TravisURL(), p.TravisImageURL(), "Build Status"
	})
	c.TitleNarrow = "Travis CI status"
	return c
}

func ActionsColumn() *Column {
	c := statusColumn("GitHub Actions", "actions", func(p *summary.Project) (string, string, string) {
		return p.ActionsURL(), p.ActionsImageURL(), "Build Status"
	})
	c.TitleNarrow = "GitHub Actions status"
	return c
}

func AppveyorColumn() *Column {
	c := statusColumn("Appveyor", "appveyor", func(p *summary.Project) (string, string, string) {
		return p.AppveyorURL(), p.AppveyorImageURL(), "Build Status (Windows)"
	})
	c.TitleNarrow = "Appveyor status"
	return c
}

// JenkinsColumn shows one configured Jenkins job
func JenkinsColumn(job config.JenkinsJob) *Column {
	title := "Jenkins"
	if job.Title != "" {
		title += " " + job.Title
	}
	c := statusColumn(title, "jenkins", func(p *summary.Project) (string, string, string) {
		return p.JenkinsURL(job), p.JenkinsImageURL(job), "Jenkins Status"
	})
	c.TitleNarrow = title + " status"
	return c
}

func CoverallsColumn() *Column {
	c := statusColumn("Coveralls", "coveralls", func(p *summary.Project) (string, string, string) {
		return p.CoverallsURL(), p.CoverallsImageURL(), "Test Coverage: " + p.CoverageText("%d%%", "unknown")
	})
	c.TitleNarrow = "Test coverage"
	c.SortRule = "sortCoverage"
	c.SortComment = "coverage percentage in data attributes"
	c.DataAttrs = func(p *summary.Project) []Attr {
		if p.CoverallsURL() == "" {
			return nil
		}
		return []Attr{A("coverage", p.CoverageText("%d", "-1"))}
	}
	return c
}

// dataColumn shows "new (total)" counts linking to a list
func dataColumn(title, class string, counts func(p *summary.Project) (int, int), url func(p *summary.Project) string) *Column {
	return &Column{
		Title:       title,
		Class:       class,
		Align:       "right",
		Data:        true,
		SortRule:    "sortIssues",
		SortComment: "issue counts in data attributes",
		DataAttrs: func(p *summary.Project) []Attr {
			n, total := counts(p)
			return []Attr{A("new", strconv.Itoa(n)), A("total", strconv.Itoa(total))}
		},
		Inner: func(p *summary.Project) template.HTML {
			href := url(p)
			if !p.HasIssues || href == "" {
				return "-"
			}
			n, total := counts(p)
			return IssueCounts(n, total, href)
		},
	}
}

// IssueCounts renders unlabeled and total counts, greying out zeros
func IssueCounts(n, total int, href string) template.HTML {
	newClass := "new"
	if n == 0 {
		newClass = "none"
	}
	totalHTML := Tag("", "("+strconv.Itoa(total)+")")
	if total == 0 {
		totalHTML = Tag("span", "(0)", A("class", "none"))
	}
	return Tag("a",
		Concat(Tag("span", n, A("class", newClass)), " ", totalHTML),
		A("href", href),
		A("title", strconv.Itoa(n)+" new, "+strconv.Itoa(total)+" total"),
	)
}

func IssuesColumn() *Column {
	return dataColumn("Issues", "issues",
		func(p *summary.Project) (int, int) { return p.Issues.UnlabeledIssues, p.Issues.OpenIssues },
		func(p *summary.Project) string { return p.IssuesURL },
	)
}

func PullsColumn() *Column {
	return dataColumn("PRs", "pulls",
		func(p *summary.Project) (int, int) { return p.Issues.UnlabeledPulls, p.Issues.OpenPulls },
		func(p *summary.Project) string { return p.PullsURL },
	)
}

// pythonEOL lists the end of upstream support for each Python release
var pythonEOL = map[string]string{
	"2.6":  "2013-10-29",
	"2.7":  "2020-01-01",
	"3.3":  "2017-09-29",
	"3.4":  "2019-03-18",
	"3.5":  "2020-09-13",
	"3.6":  "2021-12-23",
	"3.7":  "2023-06-27",
	"3.8":  "2024-10-07",
	"3.9":  "2025-10-31",
	"3.10": "2026-10-31",
	"3.11": "2027-10-31",
	"3.12": "2028-10-31",
	"3.13": "2029-10-31",
	"3.14": "2030-10-31",
}

// PythonSupportColumn shows whether projects declare support for version
func PythonSupportColumn(version string) *Column {
	c := &Column{
		Title:       version,
		TitleNarrow: version,
		Class:       "python",
		Inner: func(p *summary.Project) template.HTML {
			if p.SupportsPython(version) {
				return Tag("span", "+", A("class", "yes"))
			}
			return Tag("span", "−", A("class", "no"))
		},
	}
	if version != "" && version[0] >= '0' && version[0] <= '9' {
		c.TitleNarrow = "Python " + version
	}
	if eol, ok := pythonEOL[version]; ok {
		c.TitleTooltip = "Supported until " + eol
	}
	return c
}
