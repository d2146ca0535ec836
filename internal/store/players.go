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

// PlayerRepo stores one team's players.
type PlayerRepo struct {
	base   repoBase
	teamID string
}

// Insert creates a player record. A duplicate ID is a conflict.
func (r *PlayerRepo) Insert(ctx context.Context, p models.Player) error {
	if p.ID == "" || p.TeamID == "" {
		return apperr.Validation("player id and team id are required", nil)
	}
	return r.base.observe(ctx, "insert", func(ctx context.Context) error {
		_, err := r.base.coll.InsertOne(ctx, p)
		if mongodriver.IsDuplicateKeyError(err) {
			return apperr.Conflict(fmt.Sprintf("player %s already exists", p.ID), err)
		}
		if err != nil {
			return apperr.Unavailable("player insert failed", err)
		}
		return nil
	})
}

// ByID looks a player up by document ID.
func (r *PlayerRepo) ByID(ctx context.Context, id string) (models.Player, error) {
	var p models.Player
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		if err := r.base.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return apperr.NotFound(
					fmt.Sprintf("No player with ID %s. Try /status with a phone number instead.", id), err)
			}
			return apperr.Unavailable("player lookup failed", err)
		}
		return validatePlayerDoc(p)
	})
	return p, err
}

// ByTelegramID looks a player up by the caller's Telegram identity.
func (r *PlayerRepo) ByTelegramID(ctx context.Context, telegramID int64) (models.Player, error) {
	var p models.Player
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		if err := r.base.coll.FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&p); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return apperr.NotFound("You are not registered as a player. Use /register to join.", err)
			}
			return apperr.Unavailable("player lookup failed", err)
		}
		return validatePlayerDoc(p)
	})
	return p, err
}

// ByPhone looks a player up by E.164 phone number.
func (r *PlayerRepo) ByPhone(ctx context.Context, phone string) (models.Player, error) {
	var p models.Player
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		if err := r.base.coll.FindOne(ctx, bson.M{"phone": phone}).Decode(&p); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return apperr.NotFound("No player with that phone number. Try a player ID instead.", err)
			}
			return apperr.Unavailable("player lookup failed", err)
		}
		return validatePlayerDoc(p)
	})
	return p, err
}

// List returns the team's players, optionally filtered by status, sorted
// by ID.
func (r *PlayerRepo) List(ctx context.Context, statuses ...models.PlayerStatus) ([]models.Player, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	var out []models.Player
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		cur, err := r.base.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return apperr.Unavailable("player list failed", err)
		}
		out, err = decodeAll[models.Player](ctx, cur, func(p *models.Player) error {
			return validatePlayerDoc(*p)
		})
		return err
	})
	return out, err
}

// Update rewrites a player record, bumping updated_at.
func (r *PlayerRepo) Update(ctx context.Context, p models.Player) error {
	if p.ID == "" {
		return apperr.Validation("player id is required", nil)
	}
	p.UpdatedAt = time.Now().UTC()
	return r.base.observe(ctx, "update", func(ctx context.Context) error {
		res, err := r.base.coll.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": p})
		if err != nil {
			return apperr.Unavailable("player update failed", err)
		}
		if res.MatchedCount == 0 {
			return apperr.NotFound(fmt.Sprintf("No player with ID %s.", p.ID), nil)
		}
		return nil
	})
}

// SetStatus transitions a player's lifecycle status.
func (r *PlayerRepo) SetStatus(ctx context.Context, id string, status models.PlayerStatus) error {
	return r.base.observe(ctx, "update", func(ctx context.Context) error {
		res, err := r.base.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}})
		if err != nil {
			return apperr.Unavailable("player status update failed", err)
		}
		if res.MatchedCount == 0 {
			return apperr.NotFound(fmt.Sprintf("No player with ID %s.", id), nil)
		}
		return nil
	})
}

// CountByIDPrefix counts players whose ID starts with prefix followed by
// digits. The player ID generator uses this for the per-team sequence.
func (r *PlayerRepo) CountByIDPrefix(ctx context.Context, prefix string) (int64, error) {
	var n int64
	err := r.base.observe(ctx, "count", func(ctx context.Context) error {
		var err error
		n, err = r.base.coll.CountDocuments(ctx, bson.M{
			"_id": bson.M{"$regex": "^" + prefix + "[0-9]+$"},
		})
		if err != nil {
			return apperr.Unavailable("player count failed", err)
		}
		return nil
	})
	return n, err
}

// validatePlayerDoc rejects records that fail shape validation on read.
func validatePlayerDoc(p models.Player) error {
	if p.ID == "" || p.TeamID == "" || p.Name == "" {
		return apperr.Corruption("player record is missing required fields", nil).
			WithContext("player_id", p.ID)
	}
	return nil
}
