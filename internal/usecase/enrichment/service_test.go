package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/nonprofit"
)

type mockRegistry struct {
	candidates []nonprofit.Candidate
	searchErr  error
	profiles   map[string]nonprofit.Profile
	detailErr  error

	searched []string
	fetched  []string
}

func (m *mockRegistry) SearchByName(_ context.Context, name string) ([]nonprofit.Candidate, error) {
	m.searched = append(m.searched, name)
	return m.candidates, m.searchErr
}

func (m *mockRegistry) GetByEIN(_ context.Context, ein string) (nonprofit.Profile, error) {
	m.fetched = append(m.fetched, ein)
	if m.detailErr != nil {
		return nonprofit.Profile{}, m.detailErr
	}
	p, ok := m.profiles[ein]
	if !ok {
		return nonprofit.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

func strPtr(s string) *string { return &s }

func TestLookup_EINSkipsSearch(t *testing.T) {
	reg := &mockRegistry{profiles: map[string]nonprofit.Profile{
		"131623829": {EIN: "131623829", OrgName: strPtr("Ford Foundation")},
	}}

	p, err := New(reg).Lookup(context.Background(), "131623829")
	require.NoError(t, err)

	assert.Empty(t, reg.searched)
	assert.Equal(t, []string{"131623829"}, reg.fetched)
	assert.Equal(t, "Ford Foundation", *p.OrgName)
}

func TestLookup_RelaxedNameMatch(t *testing.T) {
	reg := &mockRegistry{
		candidates: []nonprofit.Candidate{
			{EIN: "381570680", Name: "Ford Motor Company Fund"},
			{EIN: "131684331", Name: "The Ford Foundation"},
		},
		profiles: map[string]nonprofit.Profile{
			"131684331": {OrgName: strPtr("The Ford Foundation")},
		},
	}

	p, err := New(reg).Lookup(context.Background(), "  Ford Foundation ")
	require.NoError(t, err)

	assert.Equal(t, []string{"Ford Foundation"}, reg.searched)
	assert.Equal(t, []string{"131684331"}, reg.fetched)
	assert.Equal(t, "131684331", p.EIN, "EIN filled from the selected candidate")
}

func TestLookup_FallsBackToFirstCandidate(t *testing.T) {
	reg := &mockRegistry{
		candidates: []nonprofit.Candidate{
			{EIN: "000000001", Name: "Alpha Trust"},
			{EIN: "000000002", Name: "Beta Trust"},
		},
		profiles: map[string]nonprofit.Profile{"000000001": {EIN: "000000001"}},
	}

	_, err := New(reg).Lookup(context.Background(), "Gamma")
	require.NoError(t, err)
	assert.Equal(t, []string{"000000001"}, reg.fetched)
}

func TestLookup_NotFound(t *testing.T) {
	tests := []struct {
		name string
		reg  *mockRegistry
	}{
		{"empty search", &mockRegistry{}},
		{"candidate without ein", &mockRegistry{candidates: []nonprofit.Candidate{{Name: "Ford"}}}},
		{"detail missing", &mockRegistry{candidates: []nonprofit.Candidate{{EIN: "123456789", Name: "Ford"}}}},
		{"search reports not found", &mockRegistry{searchErr: domain.ErrNotFound}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.reg).Lookup(context.Background(), "Ford")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.NotErrorIs(t, err, domain.ErrUpstreamUnavailable)
		})
	}
}

func TestLookup_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name string
		reg  *mockRegistry
		q    string
	}{
		{"search sentinel", &mockRegistry{searchErr: domain.ErrUpstreamUnavailable}, "Ford"},
		{"search raw error", &mockRegistry{searchErr: errors.New("dial tcp: refused")}, "Ford"},
		{"detail raw error", &mockRegistry{detailErr: errors.New("EOF")}, "131623829"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.reg).Lookup(context.Background(), tt.q)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
			assert.NotErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestLookup_EmptyQuery(t *testing.T) {
	reg := &mockRegistry{}
	_, err := New(reg).Lookup(context.Background(), "   ")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Empty(t, reg.searched)
}
