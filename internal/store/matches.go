package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/pkg/models"
)

// MatchRepo stores one team's fixtures.
type MatchRepo struct {
	base   repoBase
	teamID string
}

// Insert creates a match record. A duplicate ID is a conflict.
func (r *MatchRepo) Insert(ctx context.Context, m models.Match) error {
	if m.ID == "" || m.TeamID == "" {
		return apperr.Validation("match id and team id are required", nil)
	}
	return r.base.observe(ctx, "insert", func(ctx context.Context) error {
		_, err := r.base.coll.InsertOne(ctx, m)
		if mongodriver.IsDuplicateKeyError(err) {
			return apperr.Conflict(fmt.Sprintf("match %s already exists", m.ID), err)
		}
		if err != nil {
			return apperr.Unavailable("match insert failed", err)
		}
		return nil
	})
}

// ByID looks a match up by document ID.
func (r *MatchRepo) ByID(ctx context.Context, id string) (models.Match, error) {
	var m models.Match
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		if err := r.base.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return apperr.NotFound(
					fmt.Sprintf("No match with ID %s. Use /matches to see the fixture list.", id), err)
			}
			return apperr.Unavailable("match lookup failed", err)
		}
		return validateMatchDoc(m)
	})
	return m, err
}

// List returns the team's matches sorted by date, optionally filtered by
// status.
func (r *MatchRepo) List(ctx context.Context, statuses ...models.MatchStatus) ([]models.Match, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	var out []models.Match
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		cur, err := r.base.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
		if err != nil {
			return apperr.Unavailable("match list failed", err)
		}
		out, err = decodeAll[models.Match](ctx, cur, func(m *models.Match) error {
			return validateMatchDoc(*m)
		})
		return err
	})
	return out, err
}

// SetSquad replaces the selected squad for a match.
func (r *MatchRepo) SetSquad(ctx context.Context, id string, squad []string) error {
	return r.base.observe(ctx, "update", func(ctx context.Context) error {
		res, err := r.base.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
			"squad":      squad,
			"updated_at": time.Now().UTC(),
		}})
		if err != nil {
			return apperr.Unavailable("squad update failed", err)
		}
		if res.MatchedCount == 0 {
			return apperr.NotFound(fmt.Sprintf("No match with ID %s.", id), nil)
		}
		return nil
	})
}

// SetStatus transitions a match's lifecycle status.
func (r *MatchRepo) SetStatus(ctx context.Context, id string, status models.MatchStatus) error {
	return r.base.observe(ctx, "update", func(ctx context.Context) error {
		res, err := r.base.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}})
		if err != nil {
			return apperr.Unavailable("match status update failed", err)
		}
		if res.MatchedCount == 0 {
			return apperr.NotFound(fmt.Sprintf("No match with ID %s.", id), nil)
		}
		return nil
	})
}

// Count returns the number of matches, for match ID generation.
func (r *MatchRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.base.observe(ctx, "count", func(ctx context.Context) error {
		var err error
		n, err = r.base.coll.CountDocuments(ctx, bson.M{})
		if err != nil {
			return apperr.Unavailable("match count failed", err)
		}
		return nil
	})
	return n, err
}

func validateMatchDoc(m models.Match) error {
	if m.ID == "" || m.TeamID == "" || m.Opponent == "" {
		return apperr.Corruption("match record is missing required fields", nil).
			WithContext("match_id", m.ID)
	}
	return nil
}
