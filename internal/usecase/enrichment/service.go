package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/nonprofit"
	"github.com/kailas-cloud/funderdex/internal/logger"
)

// Service resolves a funder name or EIN to a registry profile.
type Service struct {
	registry Registry
}

// New creates an enrichment service.
func New(r Registry) *Service {
	return &Service{registry: r}
}

// Lookup returns the profile for a 9-digit EIN directly, or for the best
// name-search candidate otherwise. Failures are ErrNotFound or ErrUpstreamUnavailable.
func (s *Service) Lookup(ctx context.Context, q string) (nonprofit.Profile, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nonprofit.Profile{}, fmt.Errorf("%w: empty lookup query", domain.ErrInvalidRequest)
	}

	ein := q
	if !nonprofit.IsEIN(q) {
		candidates, err := s.registry.SearchByName(ctx, q)
		if err != nil {
			return nonprofit.Profile{}, s.fail(ctx, "search", q, err)
		}
		c, ok := nonprofit.SelectCandidate(q, candidates)
		if !ok || c.EIN == "" {
			return nonprofit.Profile{}, s.fail(ctx, "search", q,
				fmt.Errorf("%w: no organization matches %q", domain.ErrNotFound, q))
		}
		ein = c.EIN
	}

	p, err := s.registry.GetByEIN(ctx, ein)
	if err != nil {
		return nonprofit.Profile{}, s.fail(ctx, "detail", ein, err)
	}
	if p.EIN == "" {
		p.EIN = ein
	}
	return p, nil
}

// fail classifies err and logs it at warn level. Anything that is not a
// not-found is reported as an upstream failure.
func (s *Service) fail(ctx context.Context, stage, q string, err error) error {
	if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrUpstreamUnavailable) {
		err = fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	logger.FromContext(ctx).Warn("nonprofit lookup failed",
		zap.String("stage", stage),
		zap.String("query", q),
		zap.Error(err),
	)
	return fmt.Errorf("%s %q: %w", stage, q, err)
}
