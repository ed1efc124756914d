package summary

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrUnknownSortKey is returned by ParseSortKey
var ErrUnknownSortKey = errors.New("unknown sort key")

// SortKey selects the report order
type SortKey string

const (
	SortByName    SortKey = "name"
	SortByPending SortKey = "pending"
	SortByAge     SortKey = "age"
	SortByIssues  SortKey = "issues"
)

// SortKeys lists the accepted keys, default first
var SortKeys = []SortKey{SortByName, SortByPending, SortByAge, SortByIssues}

// ParseSortKey validates a --sort value; "" means by name
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortByName, nil
	}
	for _, key := range SortKeys {
		if string(key) == strings.ToLower(s) {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

func nameLess(a, b *Project) bool {
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.WorkingTree < b.WorkingTree
}

// releaseUnix orders projects without a parseable release date last
func releaseUnix(p *Project) int64 {
	t, err := p.ReleaseTime()
	if err != nil {
		return 1<<63 - 1
	}
	return t.Unix()
}

// Sort orders projects in place. Ties are broken by name.
func Sort(projects []*Project, key SortKey) {
	less := func(a, b *Project) (bool, bool) { return false, true }
	switch key {
	case SortByPending:
		less = func(a, b *Project) (bool, bool) {
			return a.PendingCount() > b.PendingCount(), a.PendingCount() == b.PendingCount()
		}
	case SortByAge:
		less = func(a, b *Project) (bool, bool) {
			ta, tb := releaseUnix(a), releaseUnix(b)
			return ta < tb, ta == tb
		}
	case SortByIssues:
		less = func(a, b *Project) (bool, bool) {
			ia, ib := a.Issues.UnlabeledIssues, b.Issues.UnlabeledIssues
			return ia > ib, ia == ib
		}
	}
	sort.SliceStable(projects, func(i, j int) bool {
		if ok, tie := less(projects[i], projects[j]); !tie {
			return ok
		}
		return nameLess(projects[i], projects[j])
	})
}

// Annotate labels each project as released, pending or stale. A project
// is stale when changes have been waiting for a release longer than
// staleAfter.
func Annotate(projects []*Project, now time.Time, staleAfter time.Duration) {
	for _, p := range projects {
		p.Behind = behind(p, now, staleAfter)
	}
}

func behind(p *Project, now time.Time, staleAfter time.Duration) Behind {
	if p.PendingCount() == 0 {
		return BehindReleased
	}
	released, err := p.ReleaseTime()
	if err == nil && now.Sub(released) > staleAfter {
		return BehindStale
	}
	return BehindPending
}
