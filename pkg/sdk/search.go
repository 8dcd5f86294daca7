package funderdex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/funderdex/internal/domain/search/filter"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
	"github.com/kailas-cloud/funderdex/internal/domain/search/request"
)

// SearchBuilder assembles a funder search.
//
//	funders, err := client.Search().
//	    Query("ford").
//	    Locations("New York").
//	    NameOnly().
//	    Do(ctx)
type SearchBuilder struct {
	client     *Client
	query      string
	issueAreas []string
	locations  []string
	match      MatchPolicy
	nameOnly   bool
	semantic   bool
}

// Query sets the search text. An empty query with filters browses by funder name.
func (b *SearchBuilder) Query(q string) *SearchBuilder {
	b.query = q
	return b
}

// IssueAreas restricts results to funders tagged with any of the issue areas.
func (b *SearchBuilder) IssueAreas(tags ...string) *SearchBuilder {
	b.issueAreas = append(b.issueAreas, tags...)
	return b
}

// Locations restricts results to funders active in any of the locations.
func (b *SearchBuilder) Locations(tags ...string) *SearchBuilder {
	b.locations = append(b.locations, tags...)
	return b
}

// Match sets how keyword query terms combine. Default: MatchAny.
func (b *SearchBuilder) Match(p MatchPolicy) *SearchBuilder {
	b.match = p
	return b
}

// NameOnly limits keyword matching to the funder name.
func (b *SearchBuilder) NameOnly() *SearchBuilder {
	b.nameOnly = true
	return b
}

// Semantic switches to embedding similarity search. Match and NameOnly are ignored.
func (b *SearchBuilder) Semantic() *SearchBuilder {
	b.semantic = true
	return b
}

// Do runs the search.
func (b *SearchBuilder) Do(ctx context.Context) (_ []Funder, err error) {
	start := time.Now()
	op := "search"
	if b.semantic {
		op = "search.semantic"
	}
	var n int
	defer func() { b.client.obs.observeSearch(op, start, n, err) }()

	filters := filter.FromLists(b.issueAreas, b.locations, filter.Taxonomy{})
	if b.semantic {
		res, err := b.client.searchSvc.Semantic(ctx, b.query, filters)
		if err != nil {
			return nil, fmt.Errorf("semantic search: %w", err)
		}
		n = len(res)
		return fundersFromDomain(res), nil
	}

	req, err := request.New(b.query, filters, mode.Keyword, mode.MatchPolicy(b.match), b.nameOnly)
	if err != nil {
		return nil, err
	}
	res, err := b.client.searchSvc.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	n = len(res)
	return fundersFromDomain(res), nil
}
