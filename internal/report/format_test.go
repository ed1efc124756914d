package report

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestNiceDateAt(t *testing.T) {
	released := time.Date(2019, 6, 6, 17, 43, 14, 0, time.FixedZone("", 3*3600))
	date := "2019-06-06 17:43:14 +0300"

	assert.Equal(t, "3 months ago", NiceDateAt(date, released.AddDate(0, 0, 90)))
	assert.Equal(t, "2 days from now", NiceDateAt(date, released.AddDate(0, 0, -2)))
	assert.Equal(t, "yesterday-ish", NiceDateAt("yesterday-ish", released))
}

func TestNiceDate(t *testing.T) {
	// must not fail on real dates
	assert.True(t, strings.HasSuffix(NiceDate("2019-06-06 17:43:14 +0300"), "ago"))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 issue", Pluralize(1, "issues"))
	assert.Equal(t, "2 issues", Pluralize(2, "issues"))
	assert.Equal(t, "0 commits", Pluralize(0, "commits"))
}

func TestPluralizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("only one drops the s", prop.ForAll(
		func(n int) bool {
			got := Pluralize(n, "commits")
			if n == 1 {
				return got == "1 commit"
			}
			return strings.HasSuffix(got, " commits")
		},
		gen.IntRange(-5, 10000),
	))

	properties.TestingRun(t)
}

func TestCommas(t *testing.T) {
	assert.Equal(t, "0", Commas(0))
	assert.Equal(t, "999", Commas(999))
	assert.Equal(t, "12,345", Commas(12345))
	assert.Equal(t, "1,234,567", Commas(1234567))
	assert.Equal(t, "-1,234", Commas(-1234))
}
