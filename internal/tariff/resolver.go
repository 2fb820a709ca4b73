package tariff

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/homologa-digital/homologa/internal/cache"
	"github.com/homologa-digital/homologa/internal/common"
	"github.com/homologa-digital/homologa/internal/model"
)

// DefaultTierTTL is the default cache lifetime for resolved tiers. Tier
// structure changes rarely, so it outlives other lookup caches.
const DefaultTierTTL = 30 * time.Minute

// Resolver flattens a tier's element coverage by walking inclusion edges,
// with cycle protection and a caching layer keyed by tier identity.
type Resolver struct {
	catalog *model.Catalog
	cache   cache.Cache
	ttl     time.Duration
}

// NewResolver creates a tier resolver over one catalog snapshot. The cache
// handle is owned by the caller, which must invalidate it whenever the
// underlying catalog changes.
func NewResolver(catalog *model.Catalog, c cache.Cache, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTierTTL
	}
	return &Resolver{
		catalog: catalog,
		cache:   c,
		ttl:     ttl,
	}
}

// Resolve returns the flattened element coverage of a tier, deduplicated by
// element with first occurrence winning. Top-level results are cached;
// recursive sub-calls bypass the cache so a cyclic-truncated branch is never
// stored on its own.
func (r *Resolver) Resolve(tierID int64) ([]ResolvedElement, error) {
	if _, ok := r.catalog.TierByID(tierID); !ok {
		return nil, common.NewNotFoundError("tier", fmt.Sprintf("%d", tierID), r.catalog.TierCodes())
	}

	key := r.cacheKey(tierID)
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			if resolved, ok := cached.([]ResolvedElement); ok {
				return resolved, nil
			}
		}
	}

	visited := make(map[int64]struct{})
	seen := make(map[string]struct{})
	resolved := r.resolve(tierID, visited, seen, false)

	if r.cache != nil {
		r.cache.Set(key, resolved, r.ttl)
	}

	return resolved, nil
}

// resolve walks one tier's inclusions depth-first. The visited set is scoped
// to a single top-level call and shared by reference across the traversal.
func (r *Resolver) resolve(tierID int64, visited map[int64]struct{}, seen map[string]struct{}, inherited bool) []ResolvedElement {
	if _, cyc := visited[tierID]; cyc {
		// Cycle guard: truncate the branch, never loop and never fail.
		slog.Warn("tier inclusion cycle detected, truncating branch", "tier_id", tierID)
		return nil
	}
	visited[tierID] = struct{}{}

	tier, ok := r.catalog.TierByID(tierID)
	if !ok {
		return nil
	}

	var resolved []ResolvedElement

	for _, inc := range r.catalog.InclusionsOf(tierID) {
		switch {
		case inc.ElementID != nil:
			elem, ok := r.catalog.ElementByID(*inc.ElementID)
			if !ok {
				continue
			}
			if _, dup := seen[elem.Code]; dup {
				continue
			}
			seen[elem.Code] = struct{}{}

			notes := inc.Notes
			if inherited {
				notes = annotateSource(notes, tier.Code)
			}
			resolved = append(resolved, ResolvedElement{
				ElementCode: elem.Code,
				MinQty:      inc.MinQty,
				MaxQty:      inc.MaxQty,
				Notes:       notes,
			})

		case inc.IncludedTierID != nil:
			resolved = append(resolved, r.resolve(*inc.IncludedTierID, visited, seen, true)...)
		}
	}

	return resolved
}

// Validate checks whether every requested element code appears in the tier's
// flattened coverage. A tier with zero inclusions is unrestricted and covers
// everything. Missing codes are reported, not fatal.
func (r *Resolver) Validate(tierID int64, elementCodes []string) (CoverageResult, error) {
	resolved, err := r.Resolve(tierID)
	if err != nil {
		return CoverageResult{}, err
	}

	if len(r.catalog.InclusionsOf(tierID)) == 0 {
		return CoverageResult{Valid: true}, nil
	}

	covered := make(map[string]struct{}, len(resolved))
	for _, re := range resolved {
		covered[strings.ToUpper(re.ElementCode)] = struct{}{}
	}

	var missing []string
	for _, code := range elementCodes {
		if _, ok := covered[strings.ToUpper(strings.TrimSpace(code))]; !ok {
			missing = append(missing, code)
		}
	}

	return CoverageResult{
		Valid:           len(missing) == 0,
		MissingElements: missing,
	}, nil
}

// Invalidate drops the cached resolution for one tier.
func (r *Resolver) Invalidate(tierID int64) {
	if r.cache != nil {
		r.cache.Invalidate(r.cacheKey(tierID))
	}
}

func (r *Resolver) cacheKey(tierID int64) string {
	return fmt.Sprintf("tier-resolution:%d:%d", r.catalog.Category.ID, tierID)
}

func annotateSource(notes, tierCode string) string {
	if notes == "" {
		return "via tier " + tierCode
	}
	return notes + " (via tier " + tierCode + ")"
}
