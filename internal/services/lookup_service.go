package services

import (
	"context"

	"github.com/rentora/rentora-api/internal/cache"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
)

const rosterCacheKey = "tenancy_roster"

// RosterIndex holds the tenancy roster indexed the three ways billing entry
// matching needs it. The index is immutable once built; a stale index only
// delays new tenancies from matching until the cache expires.
type RosterIndex struct {
	All      []models.Tenancy
	ByID     map[uint]*models.Tenancy
	ByTenant map[uint][]*models.Tenancy
	ByGRN    map[string][]*models.Tenancy
}

// LookupService serves read-mostly lookup data behind a TTL cache. The
// tenancy roster is loaded with tenant and unit rows so matching can read
// wings and names without further queries.
type LookupService struct {
	tenancyRepo repository.TenancyRepository
	cache       *cache.TTLCache
}

// NewLookupService creates a new lookup service
func NewLookupService(tenancyRepo repository.TenancyRepository, c *cache.TTLCache) *LookupService {
	return &LookupService{
		tenancyRepo: tenancyRepo,
		cache:       c,
	}
}

// Index returns the cached roster index, rebuilding it on a miss
func (s *LookupService) Index(ctx context.Context) (*RosterIndex, error) {
	if cached, ok := s.cache.Get(rosterCacheKey); ok {
		if idx, ok := cached.(*RosterIndex); ok {
			return idx, nil
		}
	}

	tenancies, err := s.tenancyRepo.FindAllWithUnit(ctx)
	if err != nil {
		return nil, err
	}

	idx := BuildRosterIndex(tenancies)
	s.cache.Set(rosterCacheKey, idx)
	return idx, nil
}

// BuildRosterIndex indexes a tenancy slice by id, tenant and GRN
func BuildRosterIndex(tenancies []models.Tenancy) *RosterIndex {
	idx := &RosterIndex{
		All:      tenancies,
		ByID:     make(map[uint]*models.Tenancy, len(tenancies)),
		ByTenant: make(map[uint][]*models.Tenancy),
		ByGRN:    make(map[string][]*models.Tenancy),
	}
	for i := range tenancies {
		t := &tenancies[i]
		idx.ByID[t.ID] = t
		idx.ByTenant[t.TenantID] = append(idx.ByTenant[t.TenantID], t)
		if t.GRN != nil && *t.GRN != "" {
			idx.ByGRN[*t.GRN] = append(idx.ByGRN[*t.GRN], t)
		}
	}
	return idx
}
