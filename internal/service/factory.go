package service

import (
	"github.com/kickai-football/kickai/internal/cache"
	"github.com/kickai-football/kickai/internal/config"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/internal/store"
)

// Repos bundles one team's repositories.
type Repos struct {
	Players    *store.PlayerRepo
	Members    *store.TeamMemberRepo
	Matches    *store.MatchRepo
	Attendance *store.AttendanceRepo
}

// Services bundles one team's domain services.
type Services struct {
	Players     *PlayerService
	Members     *TeamMemberService
	Matches     *MatchService
	Attendance  *AttendanceService
	Permissions *PermissionService
}

// Factory hands out per-team service bundles, caching them so repeated
// requests for the same team reuse one instance. Both caches are bounded
// with TTL expiry; an expired entry is simply rebuilt.
type Factory struct {
	store   *store.Store
	teams   *TeamService
	logger  *observability.Logger
	metrics *observability.Metrics

	serviceCache *cache.TTLCache[*Services]
	repoCache    *cache.TTLCache[*Repos]
}

// NewFactory builds the factory and the shared global team service.
func NewFactory(st *store.Store, cfg config.CacheConfig, logger *observability.Logger, metrics *observability.Metrics) *Factory {
	return &Factory{
		store:   st,
		teams:   NewTeamService(st.Teams(), logger),
		logger:  logger,
		metrics: metrics,
		serviceCache: cache.NewTTL[*Services](cache.Options{
			TTL:     cfg.ServiceTTL,
			MaxSize: cfg.ServiceMax,
		}),
		repoCache: cache.NewTTL[*Repos](cache.Options{
			TTL:     cfg.RepoTTL,
			MaxSize: cfg.RepoMax,
		}),
	}
}

// Teams returns the global team service.
func (f *Factory) Teams() *TeamService {
	return f.teams
}

// Repos returns the repository bundle for a team.
func (f *Factory) Repos(teamID string) *Repos {
	key := cache.FactoryKey("repos", teamID)
	if r, ok := f.repoCache.Get(key); ok {
		f.metrics.RecordCacheEvent("repos", "hit")
		return r
	}
	f.metrics.RecordCacheEvent("repos", "miss")

	r := &Repos{
		Players:    f.store.Players(teamID),
		Members:    f.store.TeamMembers(teamID),
		Matches:    f.store.Matches(teamID),
		Attendance: f.store.Attendance(teamID),
	}
	f.repoCache.Put(key, r)
	return r
}

// Services returns the service bundle for a team.
func (f *Factory) Services(teamID string) *Services {
	key := cache.FactoryKey("services", teamID)
	if s, ok := f.serviceCache.Get(key); ok {
		f.metrics.RecordCacheEvent("services", "hit")
		return s
	}
	f.metrics.RecordCacheEvent("services", "miss")

	r := f.Repos(teamID)
	s := &Services{
		Players:     NewPlayerService(teamID, r.Players, f.logger),
		Members:     NewTeamMemberService(teamID, r.Members, f.logger),
		Matches:     NewMatchService(teamID, r.Matches, r.Players, f.logger),
		Attendance:  NewAttendanceService(teamID, r.Attendance, r.Matches, r.Players, f.logger),
		Permissions: NewPermissionService(r.Players, r.Members, f.logger),
	}
	f.serviceCache.Put(key, s)
	return s
}
