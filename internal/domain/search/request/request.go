package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/search/filter"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
)

// MaxQueryLength is the maximum allowed search query length.
const MaxQueryLength = 4096

// Request is a validated search request.
type Request struct {
	query          string
	filters        filter.Filters
	searchMode     mode.Mode
	match          mode.MatchPolicy
	funderNameOnly bool
}

// New validates and normalizes search parameters.
// Defaults: mode=keyword, match=any. Surrounding whitespace is trimmed from the query.
// funderNameOnly is cleared for semantic mode, where the funder name never takes part.
func New(
	query string,
	filters filter.Filters,
	m mode.Mode,
	match mode.MatchPolicy,
	funderNameOnly bool,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" && filters.IsEmpty() {
		return Request{}, domain.ErrEmptyQuery
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if m == "" {
		m = mode.Keyword
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search mode %q", domain.ErrInvalidRequest, m)
	}
	if match == "" {
		match = mode.MatchAny
	}
	if !match.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid match policy %q", domain.ErrInvalidRequest, match)
	}
	if m == mode.Semantic {
		funderNameOnly = false
	}

	return Request{
		query:          query,
		filters:        filters,
		searchMode:     m,
		match:          match,
		funderNameOnly: funderNameOnly,
	}, nil
}

// Query returns the trimmed query text (may be empty for a facet browse).
func (r *Request) Query() string { return r.query }

// Filters returns the normalized facet filters.
func (r *Request) Filters() filter.Filters { return r.filters }

// Mode returns the search mode.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Match returns the keyword match policy.
func (r *Request) Match() mode.MatchPolicy { return r.match }

// FunderNameOnly reports whether matching is restricted to the funder-name field.
func (r *Request) FunderNameOnly() bool { return r.funderNameOnly }

// IsBrowse reports whether the request carries no query text.
func (r *Request) IsBrowse() bool { return r.query == "" }
