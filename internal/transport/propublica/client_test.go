package propublica

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/metrics"
)

func newTestClient(t *testing.T, h http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	return New(cfg)
}

func TestSearchByName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "Ford Foundation", r.URL.Query().Get("q"))
		assert.Equal(t, "funderdex/dev", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"organizations": [
			{"ein": 381570680, "name": "Ford Motor Company Fund"},
			{"ein": "13-1684331", "name": "The Ford Foundation"},
			{"ein": null, "name": "Broken"},
			{"ein": 42, "name": "Padded"}
		]}`))
	}, Config{})

	got, err := c.SearchByName(context.Background(), "Ford Foundation")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "381570680", got[0].EIN)
	assert.Equal(t, "131684331", got[1].EIN)
	assert.Equal(t, "000000042", got[2].EIN)
}

func TestSearchByName_Empty(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"no organizations", http.StatusOK, `{"organizations": []}`},
		{"missing key", http.StatusOK, `{}`},
		{"404", http.StatusNotFound, `{"error": "not found"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, Config{})

			_, err := c.SearchByName(context.Background(), "nobody")
			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.NotErrorIs(t, err, domain.ErrUpstreamUnavailable)
		})
	}
}

func TestGetByEIN(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/organizations/131684331.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"organization": {
			"ein": 131684331,
			"name": "Ford Foundation",
			"city": "New York",
			"state": "NY",
			"subsection_code": 3,
			"ntee_code": "T20",
			"ruling_date": "1936-01",
			"asset_amount": "16000000000",
			"contributions": 12.5,
			"tax_period": 202212
		}}`))
	}, Config{})

	p, err := c.GetByEIN(context.Background(), "131684331")
	require.NoError(t, err)

	assert.Equal(t, "131684331", p.EIN)
	require.NotNil(t, p.OrgName)
	assert.Equal(t, "Ford Foundation", *p.OrgName)
	require.NotNil(t, p.SubsectionCode)
	assert.Equal(t, "3", *p.SubsectionCode)
	require.NotNil(t, p.NTEEClassification)
	assert.Equal(t, "T20", *p.NTEEClassification)
	require.NotNil(t, p.TotalAssets)
	assert.InDelta(t, 16e9, *p.TotalAssets, 0.5)
	require.NotNil(t, p.TotalGiving)
	assert.InDelta(t, 12.5, *p.TotalGiving, 0.001)
	require.NotNil(t, p.FilingYear)
	assert.Equal(t, 2022, *p.FilingYear)
}

func TestGetByEIN_LenientMissingFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"organization": {"name": "Tiny Trust", "city": "", "assets": "n/a", "tax_period": "bogus"}}`))
	}, Config{})

	p, err := c.GetByEIN(context.Background(), "000000001")
	require.NoError(t, err)
	assert.Equal(t, "000000001", p.EIN)
	assert.Nil(t, p.City)
	assert.Nil(t, p.State)
	assert.Nil(t, p.TotalAssets)
	assert.Nil(t, p.FilingYear)
}

func TestGetByEIN_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		notFound bool
	}{
		{"404", http.StatusNotFound, ``, true},
		{"no organization", http.StatusOK, `{"filings_with_data": []}`, true},
		{"server error", http.StatusBadGateway, `upstream`, false},
		{"garbage body", http.StatusOK, `<html>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, Config{})

			_, err := c.GetByEIN(context.Background(), "123456789")
			require.Error(t, err)
			if tt.notFound {
				assert.ErrorIs(t, err, domain.ErrNotFound)
			} else {
				assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
			}
		})
	}
}

func TestClient_NoRetryAndBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, Config{BreakerMinRequests: 2, BreakerFailureRatio: 0.5, BreakerOpenTimeout: time.Minute})
	assert.True(t, c.Available())

	for range 2 {
		_, err := c.GetByEIN(context.Background(), "123456789")
		require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	}
	assert.Equal(t, int32(2), hits.Load(), "each call hits the registry exactly once")
	assert.False(t, c.Available(), "breaker should be open")

	before := testutil.ToFloat64(metrics.RegistryRequestsTotal.WithLabelValues(OpOrganization, "breaker_open"))
	_, err := c.GetByEIN(context.Background(), "123456789")
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, int32(2), hits.Load(), "open breaker must not reach the registry")
	after := testutil.ToFloat64(metrics.RegistryRequestsTotal.WithLabelValues(OpOrganization, "breaker_open"))
	assert.InDelta(t, 1, after-before, 0.001)
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}, Config{BreakerMinRequests: 1, BreakerFailureRatio: 0.1})

	for range 3 {
		_, err := c.GetByEIN(context.Background(), "123456789")
		require.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, int32(3), hits.Load())
	assert.True(t, c.Available())
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.SearchByName(ctx, "ford")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRecordsFailure(t *testing.T) {
	assert.False(t, recordsFailure(context.Canceled))
	assert.False(t, recordsFailure(&StatusError{StatusCode: http.StatusNotFound}))
	assert.False(t, recordsFailure(&StatusError{StatusCode: http.StatusBadRequest}))
	assert.True(t, recordsFailure(&StatusError{StatusCode: http.StatusTooManyRequests}))
	assert.True(t, recordsFailure(&StatusError{StatusCode: http.StatusServiceUnavailable}))
	assert.True(t, recordsFailure(errors.New("dial tcp: connection refused")))
}
