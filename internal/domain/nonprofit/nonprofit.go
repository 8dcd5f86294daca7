package nonprofit

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var einRegex = regexp.MustCompile(`^\d{9}$`)

// IsEIN reports whether s is exactly a 9-digit employer identification number.
func IsEIN(s string) bool { return einRegex.MatchString(s) }

// FormatEIN normalizes a registry identifier (string or number) to 9 digits,
// restoring leading zeros dropped by numeric encodings.
func FormatEIN(v any) (string, bool) {
	var digits string
	switch x := v.(type) {
	case string:
		digits = strings.ReplaceAll(strings.TrimSpace(x), "-", "")
	case float64:
		if x < 0 || x != math.Trunc(x) || x > 999999999 {
			return "", false
		}
		digits = strconv.FormatInt(int64(x), 10)
	case int:
		digits = strconv.Itoa(x)
	case int64:
		digits = strconv.FormatInt(x, 10)
	default:
		return "", false
	}
	if digits == "" || len(digits) > 9 {
		return "", false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return fmt.Sprintf("%09s", digits), true
}

// Candidate is a registry name-search hit.
type Candidate struct {
	EIN  string
	Name string
}

// SelectCandidate picks the first candidate whose name contains query
// (case-insensitive), falling back to the first candidate overall.
func SelectCandidate(query string, candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q != "" {
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c.Name), q) {
				return c, true
			}
		}
	}
	return candidates[0], true
}

// Profile is the public-filings summary of an organization.
// Every field except EIN is optional.
type Profile struct {
	EIN                string
	OrgName            *string
	City               *string
	State              *string
	SubsectionCode     *string
	NTEEClassification *string
	RulingDate         *string
	TotalAssets        *float64
	TotalGiving        *float64
	FilingYear         *int
}

// FilingYearFromTaxPeriod extracts the year from a YYYYMM tax period or accepts a bare year.
func FilingYearFromTaxPeriod(period int) (int, bool) {
	switch {
	case period >= 100000 && period <= 999999:
		return period / 100, true
	case period >= 1000 && period <= 9999:
		return period, true
	default:
		return 0, false
	}
}
