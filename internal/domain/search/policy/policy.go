package policy

import "github.com/kailas-cloud/funderdex/internal/domain/search/result"

// DefaultSuppressed is the built-in suppression tag set.
var DefaultSuppressed = []string{"Celebrity"}

// Reason names why a result was dropped.
type Reason string

// Drop reasons.
const (
	ReasonSuppressed    Reason = "suppressed"
	ReasonUncategorized Reason = "uncategorized"
)

// Policy is the content post-filter. Read-only after construction.
type Policy struct {
	suppressed         map[string]struct{}
	requireCategorized bool
}

// New creates a policy. Results whose issue areas are all suppressed are dropped;
// with requireCategorized, results without issue-area and location tags are dropped too.
func New(suppressed []string, requireCategorized bool) *Policy {
	set := make(map[string]struct{}, len(suppressed))
	for _, tag := range suppressed {
		set[tag] = struct{}{}
	}
	return &Policy{suppressed: set, requireCategorized: requireCategorized}
}

// Apply filters results in place order and reports drop counts per reason.
func (p *Policy) Apply(results []result.Funder) ([]result.Funder, map[Reason]int) {
	kept := make([]result.Funder, 0, len(results))
	dropped := make(map[Reason]int)
	for i := range results {
		if reason, drop := p.check(&results[i]); drop {
			dropped[reason]++
			continue
		}
		kept = append(kept, results[i])
	}
	return kept, dropped
}

func (p *Policy) check(r *result.Funder) (Reason, bool) {
	if p.suppressedOnly(r.IssueAreas()) {
		return ReasonSuppressed, true
	}
	if p.requireCategorized && len(r.IssueAreas()) == 0 && len(r.Locations()) == 0 {
		return ReasonUncategorized, true
	}
	return "", false
}

func (p *Policy) suppressedOnly(tags []string) bool {
	if len(tags) == 0 || len(p.suppressed) == 0 {
		return false
	}
	for _, tag := range tags {
		if _, ok := p.suppressed[tag]; !ok {
			return false
		}
	}
	return true
}
