package summary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/obentoo/project-summary/internal/common/httpclient"
	"github.com/obentoo/project-summary/internal/common/logger"
)

const (
	coverallsBadgePrefix = "https://s3.amazonaws.com/assets.coveralls.io/badges/coveralls_"
	coverallsBadgeSuffix = ".svg"
)

var percentText = regexp.MustCompile(`^(\d+)%$`)

func get(ctx context.Context, doer httpclient.Doer, url string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := doer.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

// FetchCoverage reads the coverage percentage from a Coveralls badge.
// doer must not follow redirects: Coveralls answers with a 302 to an image
// whose name carries the number. A badge served directly is parsed as SVG.
// Unknown coverage is nil.
func FetchCoverage(ctx context.Context, doer httpclient.Doer, url string) (*int, error) {
	resp, body, err := get(ctx, doer, url)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusFound:
		return coverageFromLocation(resp.Header.Get("Location")), nil
	case http.StatusOK:
		return coverageFromSVG(body)
	default:
		logger.Debug("coverage badge %s: HTTP %d", url, resp.StatusCode)
		return nil, nil
	}
}

func coverageFromLocation(location string) *int {
	if !strings.HasPrefix(location, coverallsBadgePrefix) || !strings.HasSuffix(location, coverallsBadgeSuffix) {
		return nil
	}
	middle := location[len(coverallsBadgePrefix) : len(location)-len(coverallsBadgeSuffix)]
	n, err := strconv.Atoi(middle)
	if err != nil || n < 0 {
		// "unknown"
		return nil
	}
	return &n
}

// coverageFromSVG returns the last "NN%" text of a badge
func coverageFromSVG(body []byte) (*int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse badge: %w", err)
	}
	var coverage *int
	doc.Find("text").Each(func(_ int, s *goquery.Selection) {
		m := percentText.FindStringSubmatch(strings.TrimSpace(s.Text()))
		if m == nil {
			return
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			coverage = &n
		}
	})
	return coverage, nil
}

// FetchDownloads returns last month's download count from the pypistats
// API. Packages unknown to PyPI have no count.
func FetchDownloads(ctx context.Context, doer httpclient.Doer, url string) (*int, error) {
	resp, body, err := get(ctx, doer, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: HTTP %d", url, resp.StatusCode)
	}
	n, err := JSONInt(body, "data.last_month")
	if err != nil {
		return nil, err
	}
	return &n, nil
}
