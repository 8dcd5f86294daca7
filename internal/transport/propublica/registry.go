package propublica

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/nonprofit"
)

type searchResponse struct {
	Organizations []struct {
		EIN  any    `json:"ein"`
		Name string `json:"name"`
	} `json:"organizations"`
}

type organizationResponse struct {
	Organization map[string]any `json:"organization"`
}

// SearchByName returns registry candidates in ranked order.
// Candidates with an unusable EIN are skipped.
func (c *Client) SearchByName(ctx context.Context, name string) ([]nonprofit.Candidate, error) {
	body, err := c.get(ctx, OpSearch, "/search.json", url.Values{"q": {name}})
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	out := make([]nonprofit.Candidate, 0, len(resp.Organizations))
	for _, o := range resp.Organizations {
		ein, ok := nonprofit.FormatEIN(o.EIN)
		if !ok {
			continue
		}
		out = append(out, nonprofit.Candidate{EIN: ein, Name: o.Name})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("search %q: %w", name, domain.ErrNotFound)
	}
	return out, nil
}

// GetByEIN fetches the organization detail. Missing or mistyped fields become nil.
func (c *Client) GetByEIN(ctx context.Context, ein string) (nonprofit.Profile, error) {
	body, err := c.get(ctx, OpOrganization, "/organizations/"+url.PathEscape(ein)+".json", nil)
	if err != nil {
		return nonprofit.Profile{}, err
	}
	var resp organizationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nonprofit.Profile{}, fmt.Errorf("decode organization %s: %w: %w", ein, domain.ErrUpstreamUnavailable, err)
	}
	if len(resp.Organization) == 0 {
		return nonprofit.Profile{}, fmt.Errorf("organization %s: %w", ein, domain.ErrNotFound)
	}
	return parseProfile(ein, resp.Organization), nil
}

func parseProfile(ein string, org map[string]any) nonprofit.Profile {
	p := nonprofit.Profile{
		EIN:                ein,
		OrgName:            str(org, "name"),
		City:               str(org, "city"),
		State:              str(org, "state"),
		SubsectionCode:     str(org, "subsection_code"),
		NTEEClassification: str(org, "ntee_classification", "ntee_code"),
		RulingDate:         str(org, "ruling_date"),
		TotalAssets:        num(org, "assets", "asset_amount"),
		TotalGiving:        num(org, "contributions", "income_amount"),
	}
	if v, ok := nonprofit.FormatEIN(org["ein"]); ok {
		p.EIN = v
	}
	if period := num(org, "tax_period"); period != nil {
		if y, ok := nonprofit.FilingYearFromTaxPeriod(int(*period)); ok {
			p.FilingYear = &y
		}
	}
	return p
}

// str returns the first non-empty value among keys as a string.
func str(m map[string]any, keys ...string) *string {
	for _, k := range keys {
		var s string
		switch v := m[k].(type) {
		case string:
			s = strings.TrimSpace(v)
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if s != "" {
			return &s
		}
	}
	return nil
}

// num returns the first numeric value among keys, accepting numeric strings.
func num(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return &v
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return &f
			}
		}
	}
	return nil
}
