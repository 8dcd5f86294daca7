package chi

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/funderdex/internal/domain/nonprofit"
)

type profileResponse struct {
	OrgName            *string  `json:"orgName"`
	EIN                string   `json:"ein"`
	City               *string  `json:"city"`
	State              *string  `json:"state"`
	SubsectionCode     *string  `json:"subsectionCode"`
	NTEEClassification *string  `json:"nteeClassification"`
	RulingDate         *string  `json:"rulingDate"`
	TotalAssets        *float64 `json:"totalAssets"`
	TotalGiving        *float64 `json:"totalGiving"`
	FilingYear         *int     `json:"filingYear"`
}

// GetNonprofit handles GET /nonprofit-data/{query}. The query is an EIN or an organization name.
func (s *Server) GetNonprofit(w http.ResponseWriter, r *http.Request) {
	q := chi.URLParam(r, "query")
	if unescaped, err := url.PathUnescape(q); err == nil {
		q = unescaped
	}

	profile, err := s.enrich.Lookup(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileToResponse(profile))
}

func profileToResponse(p nonprofit.Profile) profileResponse {
	return profileResponse{
		OrgName:            p.OrgName,
		EIN:                p.EIN,
		City:               p.City,
		State:              p.State,
		SubsectionCode:     p.SubsectionCode,
		NTEEClassification: p.NTEEClassification,
		RulingDate:         p.RulingDate,
		TotalAssets:        p.TotalAssets,
		TotalGiving:        p.TotalGiving,
		FilingYear:         p.FilingYear,
	}
}
