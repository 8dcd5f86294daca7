package chi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/search/filter"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
	"github.com/kailas-cloud/funderdex/internal/domain/search/request"
	"github.com/kailas-cloud/funderdex/internal/domain/search/result"
)

// searchRequest is the body of POST /search and POST /search/semantic.
// Filters stay raw: the normalizer tolerates any shape.
type searchRequest struct {
	Query          string          `json:"query"`
	Filters        json.RawMessage `json:"filters"`
	SearchType     string          `json:"searchType"`
	FunderNameOnly bool            `json:"funderNameOnly"`
}

type geoLocation struct {
	States []string `json:"states"`
}

type funderResponse struct {
	ID          string      `json:"id"`
	FunderName  string      `json:"funderName"`
	FunderURL   string      `json:"funderUrl"`
	Overview    string      `json:"overview"`
	IPTake      string      `json:"ipTake"`
	Profile     string      `json:"profile"`
	IssueAreas  []string    `json:"issueAreas"`
	Locations   []string    `json:"locations"`
	GeoLocation geoLocation `json:"geoLocation"`
	Score       float64     `json:"score"`
	Relevance   *float64    `json:"relevance"`
	MatchType   string      `json:"matchType"`
}

type searchResponse struct {
	Results []funderResponse `json:"results"`
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if !decodeBody(w, r, &body) {
		return
	}

	match, err := mode.ParseMatchPolicy(body.SearchType)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err))
		return
	}

	req, err := request.New(
		body.Query,
		filter.Normalize(body.Filters, s.taxonomy),
		mode.Keyword,
		match,
		body.FunderNameOnly,
	)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchResponse(results))
}

// SemanticSearch handles POST /search/semantic. searchType and funderNameOnly are ignored.
func (s *Server) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if !decodeBody(w, r, &body) {
		return
	}

	results, err := s.search.Semantic(r.Context(), body.Query, filter.Normalize(body.Filters, s.taxonomy))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchResponse(results))
}

func toSearchResponse(results []result.Funder) searchResponse {
	items := make([]funderResponse, len(results))
	for i := range results {
		items[i] = funderToResponse(&results[i])
	}
	return searchResponse{Results: items}
}

func funderToResponse(f *result.Funder) funderResponse {
	issueAreas := f.IssueAreas()
	if issueAreas == nil {
		issueAreas = []string{}
	}
	locations := f.Locations()
	if locations == nil {
		locations = []string{}
	}
	return funderResponse{
		ID:          f.ID(),
		FunderName:  f.Name(),
		FunderURL:   f.URL(),
		Overview:    f.Overview(),
		IPTake:      f.IPTake(),
		Profile:     f.Profile(),
		IssueAreas:  issueAreas,
		Locations:   locations,
		GeoLocation: geoLocation{States: locations},
		Score:       f.Score(),
		Relevance:   f.Relevance(),
		MatchType:   string(f.MatchType()),
	}
}
