package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/nonprofit"
	"github.com/kailas-cloud/funderdex/internal/domain/search/filter"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
	"github.com/kailas-cloud/funderdex/internal/domain/search/request"
	"github.com/kailas-cloud/funderdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/funderdex/internal/usecase/health"
)

// --- Mocks ---

type mockSearcher struct {
	req      *request.Request
	semText  string
	semFilt  filter.Filters
	results  []result.Funder
	err      error
	calls    int
	semCalls int
}

func (m *mockSearcher) Search(_ context.Context, req request.Request) ([]result.Funder, error) {
	m.calls++
	m.req = &req
	return m.results, m.err
}

func (m *mockSearcher) Semantic(_ context.Context, text string, f filter.Filters) ([]result.Funder, error) {
	m.semCalls++
	m.semText = text
	m.semFilt = f
	return m.results, m.err
}

type mockEnricher struct {
	got     string
	profile nonprofit.Profile
	err     error
}

func (m *mockEnricher) Lookup(_ context.Context, q string) (nonprofit.Profile, error) {
	m.got = q
	return m.profile, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

func newTestRouter(s Searcher, e Enricher, h HealthChecker, tax filter.Taxonomy) http.Handler {
	r := chi.NewRouter()
	NewServer(s, e, h, tax, nil).Routes(r, "/api")
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func sampleResults() []result.Funder {
	return []result.Funder{
		result.New("ford", "Ford Foundation", "https://insidephilanthropy.com/ford", "x", "y", "z",
			[]string{"Housing"}, []string{"New York"}, 8, result.MatchExactName),
		result.New("kresge", "Kresge Foundation", "", "", "", "",
			nil, nil, 4, result.MatchMention),
	}
}

// --- Search ---

func TestSearch_OK(t *testing.T) {
	s := &mockSearcher{results: sampleResults()}
	h := newTestRouter(s, &mockEnricher{}, &mockHealth{}, filter.Taxonomy{})

	rr := do(t, h, http.MethodPost, "/api/search",
		`{"query": "ford", "filters": {"issueAreas": ["Housing", 7, ""]}, "searchType": "all", "funderNameOnly": true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}

	if s.req == nil {
		t.Fatal("search not called")
	}
	if s.req.Query() != "ford" || s.req.Match() != mode.MatchAll || !s.req.FunderNameOnly() {
		t.Errorf("unexpected request: %+v", s.req)
	}
	if got := s.req.Filters().IssueAreas(); len(got) != 1 || got[0] != "Housing" {
		t.Errorf("filters not normalized: %v", got)
	}

	var resp struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	first := resp.Results[0]
	if first["funderName"] != "Ford Foundation" || first["matchType"] != "exact" {
		t.Errorf("unexpected first result: %v", first)
	}
	if first["relevance"] != nil {
		t.Errorf("expected null relevance, got %v", first["relevance"])
	}
	geo, _ := first["geoLocation"].(map[string]any)
	if states, _ := geo["states"].([]any); len(states) != 1 || states[0] != "New York" {
		t.Errorf("expected geoLocation.states mirror, got %v", first["geoLocation"])
	}
	if areas, ok := resp.Results[1]["issueAreas"].([]any); !ok || len(areas) != 0 {
		t.Errorf("expected empty issueAreas array, got %v", resp.Results[1]["issueAreas"])
	}
}

func TestSearch_DefaultsToAny(t *testing.T) {
	s := &mockSearcher{results: []result.Funder{}}
	h := newTestRouter(s, &mockEnricher{}, &mockHealth{}, filter.Taxonomy{})

	rr := do(t, h, http.MethodPost, "/api/search", `{"query": "housing"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if s.req.Match() != mode.MatchAny || s.req.Mode() != mode.Keyword {
		t.Errorf("unexpected defaults: match=%s mode=%s", s.req.Match(), s.req.Mode())
	}
	if !strings.Contains(rr.Body.String(), `"results":[]`) {
		t.Errorf("expected empty results array, got %s", rr.Body.String())
	}
}

func TestSearch_EmptyQuery_400(t *testing.T) {
	s := &mockSearcher{}
	h := newTestRouter(s, &mockEnricher{}, &mockHealth{}, filter.Taxonomy{})

	rr := do(t, h, http.MethodPost, "/api/search", `{"query": "   ", "filters": {"issueAreas": []}}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeEmptyQuery || resp.Message != "query or filters required" {
		t.Errorf("unexpected error: %+v", resp)
	}
	if s.calls != 0 {
		t.Error("search must not be called for an empty request")
	}
}

func TestSearch_TaxonomyDropsUnknownTags(t *testing.T) {
	s := &mockSearcher{}
	tax := filter.NewTaxonomy([]filter.Tag{{Value: "Housing"}}, nil)
	h := newTestRouter(s, &mockEnricher{}, &mockHealth{}, tax)

	rr := do(t, h, http.MethodPost, "/api/search", `{"filters": {"issueAreas": ["Aliens"]}}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if s.calls != 0 {
		t.Error("search must not be called")
	}
}

func TestSearch_InvalidSearchType_400(t *testing.T) {
	s := &mockSearcher{}
	h := newTestRouter(s, &mockEnricher{}, &mockHealth{}, filter.Taxonomy{})

	rr := do(t, h, http.MethodPost, "/api/search", `{"query": "ford", "searchType": "fuzzy"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Code != CodeInvalidRequest || !strings.Contains(resp.Message, "fuzzy") {
		t.Errorf("unexpected error: %+v", resp)
	}
}

func TestSearch_MalformedBody_400(t *testing.T) {
	h := newTestRouter(&mockSearcher{}, &mockEnricher{}, &mockHealth{}, filter.Taxonomy{})

	for _, body := range []string{`{`, `{"query": 5}`, `{"funderNameOnly": "yes"}`} {
		rr := do(t, h, http.MethodPost, "/api/search", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %s: got %d, want 400", body, rr.Code)
		}
	}
}

func TestSearch_BackendError_500Generic(t *testing.T) {
	s := &mockSearcher{err: domain.NewBackendError("funders-places", errors.New("Unknown index name funders-places:idx"))}
	h := newTestRouter(s, &mockEnricher{}, &mockHealth{}, filter.Taxonomy{})

	rr := do(t, h, http.MethodPost, "/api/search", `{"query": "ford"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "idx") {
		t.Errorf("response leaks backend details: %s", rr.Body.String())
	}
	if resp := decodeError(t, rr); resp.Code != CodeBackendUnavailable {
		t.Errorf("unexpected code: %s", resp.Code)
	}
}

func TestSearch_UnknownError_500(t *testing.T) {
	s := &mockSearcher{err: errors.New("boom")}
	h := newTestRouter(s, &mockEnricher{}, &mockHealth{}, filter.Taxonomy{})

	rr := do(t, h, http.MethodPost, "/api/search", `{"query": "ford"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeInternalError || resp.Message != "internal error" {
		t.Errorf("unexpected error: %+v", resp)
	}
}

// --- Semantic ---

func TestSemanticSearch_PassesRawInputs(t *testing.T) {
	s := &mockSearcher{results: []result.Funder{}}
	h := newTestRouter(s, &mockEnricher{}, &mockHealth{}, filter.Taxonomy{})

	rr := do(t, h, http.MethodPost, "/api/search/semantic",
		`{"query": "", "filters": {}, "searchType": "exact"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if s.semCalls != 1 || s.semText != "" || !s.semFilt.IsEmpty() {
		t.Errorf("unexpected semantic call: %d %q", s.semCalls, s.semText)
	}
	if s.calls != 0 {
		t.Error("keyword search must not be called")
	}
	if strings.TrimSpace(rr.Body.String()) != `{"results":[]}` {
		t.Errorf("unexpected body: %s", rr.Body.String())
	}
}

func TestSemanticSearch_EmbeddingError_500(t *testing.T) {
	s := &mockSearcher{err: errors.Join(domain.ErrEmbeddingProviderError, errors.New("429"))}
	h := newTestRouter(s, &mockEnricher{}, &mockHealth{}, filter.Taxonomy{})

	rr := do(t, h, http.MethodPost, "/api/search/semantic", `{"query": "housing"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeEmbeddingProviderError {
		t.Errorf("unexpected code: %s", resp.Code)
	}
}

// --- Nonprofit ---

func TestGetNonprofit_OK(t *testing.T) {
	name := "The Ford Foundation"
	year := 2022
	e := &mockEnricher{profile: nonprofit.Profile{EIN: "131684331", OrgName: &name, FilingYear: &year}}
	h := newTestRouter(&mockSearcher{}, e, &mockHealth{}, filter.Taxonomy{})

	rr := do(t, h, http.MethodGet, "/api/nonprofit-data/Ford%20Foundation", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if e.got != "Ford Foundation" {
		t.Errorf("expected unescaped query, got %q", e.got)
	}

	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["orgName"] != name || resp["ein"] != "131684331" || resp["filingYear"] != float64(2022) {
		t.Errorf("unexpected profile: %v", resp)
	}
	if v, ok := resp["totalAssets"]; !ok || v != nil {
		t.Errorf("expected explicit null totalAssets, got %v", v)
	}
}

func TestGetNonprofit_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"upstream", errors.Join(domain.ErrUpstreamUnavailable, errors.New("503")),
			http.StatusInternalServerError, CodeUpstreamUnavailable},
		{"invalid", domain.ErrInvalidRequest, http.StatusBadRequest, CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&mockSearcher{}, &mockEnricher{err: tt.err}, &mockHealth{}, filter.Taxonomy{})
			rr := do(t, h, http.MethodGet, "/api/nonprofit-data/131684331", "")
			if rr.Code != tt.status {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.status)
			}
			if resp := decodeError(t, rr); resp.Code != tt.code {
				t.Errorf("code: got %s, want %s", resp.Code, tt.code)
			}
		})
	}
}

// --- Facets / health ---

func TestGetFacets(t *testing.T) {
	tax := filter.NewTaxonomy(
		[]filter.Tag{{Value: "Housing", Name: "Housing", URL: "https://example.org/housing"}},
		[]filter.Tag{{Value: "New York"}},
	)
	h := newTestRouter(&mockSearcher{}, &mockEnricher{}, &mockHealth{}, tax)

	rr := do(t, h, http.MethodGet, "/api/facets", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var resp facetsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.IssueAreas) != 1 || resp.IssueAreas[0].URL != "https://example.org/housing" {
		t.Errorf("unexpected issue areas: %+v", resp.IssueAreas)
	}
	if len(resp.Locations) != 1 || resp.Locations[0].Tag != "New York" {
		t.Errorf("unexpected locations: %+v", resp.Locations)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			hc := &mockHealth{report: healthuc.Report{
				Status: tt.status,
				Checks: map[string]healthuc.CheckResult{healthuc.ComponentSearch: healthuc.CheckOK},
			}}
			h := newTestRouter(&mockSearcher{}, &mockEnricher{}, hc, filter.Taxonomy{})

			rr := do(t, h, http.MethodGet, "/health", "")
			if rr.Code != tt.want {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.want)
			}
			var resp healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tt.status) || resp.Checks[healthuc.ComponentSearch] != "ok" {
				t.Errorf("unexpected body: %+v", resp)
			}
		})
	}
}

func TestRoutes_EmptyBasePath(t *testing.T) {
	r := chi.NewRouter()
	NewServer(&mockSearcher{}, &mockEnricher{}, &mockHealth{}, filter.Taxonomy{}, nil).Routes(r, "")

	rr := do(t, r, http.MethodGet, "/facets", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}
