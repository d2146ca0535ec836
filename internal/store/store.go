// Package store is the MongoDB persistence layer. One Store wraps the
// shared client; per-tenant repositories wrap one collection each, using
// string document IDs so hot lookups need no secondary indexes. Collections
// follow the kickai_<team_id>_<kind> naming scheme with one global
// kickai_teams collection for tenant records.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/config"
	"github.com/kickai-football/kickai/internal/observability"
)

// TeamsCollection is the single global collection.
const TeamsCollection = "kickai_teams"

// Store wraps the shared Mongo client and the instruments every repository
// records through.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration

	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// Connect dials MongoDB and verifies the connection with a ping. The
// database name is the configured project ID.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *observability.Logger, metrics *observability.Metrics, tracer *observability.Tracer) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, apperr.Validation("database project_id is required", nil)
	}
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{Level: "error"})
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, apperr.Unavailable("cannot connect to MongoDB", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperr.Unavailable("MongoDB did not answer ping", err)
	}

	return &Store{
		client:  client,
		db:      client.Database(cfg.ProjectID),
		timeout: timeout,
		logger:  logger.WithFields("component", "store"),
		metrics: metrics,
		tracer:  tracer,
	}, nil
}

// Ping verifies database connectivity, for the startup validator.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return apperr.Unavailable("MongoDB did not answer ping", err)
	}
	return nil
}

// ListCollections returns the collection names in the database, for the
// startup validator's connectivity check.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, apperr.Unavailable("cannot list collections", err)
	}
	return names, nil
}

// DatabaseName returns the database this store writes to.
func (s *Store) DatabaseName() string {
	return s.db.Name()
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// CollectionName builds the per-tenant collection name for a kind.
func CollectionName(teamID, kind string) string {
	return fmt.Sprintf("kickai_%s_%s", teamID, kind)
}

// Players returns the player repository for one team.
func (s *Store) Players(teamID string) *PlayerRepo {
	name := CollectionName(teamID, "players")
	return &PlayerRepo{base: s.base(name), teamID: teamID}
}

// TeamMembers returns the team-member repository for one team.
func (s *Store) TeamMembers(teamID string) *TeamMemberRepo {
	name := CollectionName(teamID, "team_members")
	return &TeamMemberRepo{base: s.base(name), teamID: teamID}
}

// Matches returns the match repository for one team.
func (s *Store) Matches(teamID string) *MatchRepo {
	name := CollectionName(teamID, "matches")
	return &MatchRepo{base: s.base(name), teamID: teamID}
}

// Attendance returns the attendance repository for one team.
func (s *Store) Attendance(teamID string) *AttendanceRepo {
	name := CollectionName(teamID, "attendance")
	return &AttendanceRepo{base: s.base(name), teamID: teamID}
}

// Teams returns the global tenant repository.
func (s *Store) Teams() *TeamRepo {
	return &TeamRepo{base: s.base(TeamsCollection)}
}

func (s *Store) base(name string) repoBase {
	return repoBase{
		coll:    mongoCollection{coll: s.db.Collection(name)},
		name:    name,
		timeout: s.timeout,
		metrics: s.metrics,
		tracer:  s.tracer,
	}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// repoBase carries what every repository shares: the collection handle,
// the per-operation timeout, and the instruments.
type repoBase struct {
	coll    collection
	name    string
	timeout time.Duration
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// observe wraps one collection operation with a timeout, a span, and a
// metric sample.
func (b repoBase) observe(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := b.tracer.TraceDatabaseQuery(ctx, op, b.name)
	defer span.End()

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	status := "success"
	if err != nil {
		status = "error"
		b.tracer.RecordError(span, err)
	}
	b.metrics.RecordDatabaseQuery(op, b.name, status, time.Since(start).Seconds())
	return err
}
