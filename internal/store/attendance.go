package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/pkg/models"
)

// AttendanceRepo stores per-match availability and attendance records.
type AttendanceRepo struct {
	base   repoBase
	teamID string
}

// Upsert records or overwrites a player's status for a match. The composite
// document ID makes repeated recordings idempotent: the newest status wins
// while recorded_at keeps the first recording time.
func (r *AttendanceRepo) Upsert(ctx context.Context, a models.Attendance) error {
	if a.MatchID == "" || a.PlayerID == "" {
		return apperr.Validation("match id and player id are required", nil)
	}
	if !a.Status.IsValid() {
		return apperr.Validation("unknown attendance status "+string(a.Status), nil)
	}
	id := models.AttendanceID(r.teamID, a.MatchID, a.PlayerID)
	return r.base.observe(ctx, "upsert", func(ctx context.Context) error {
		_, err := r.base.coll.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{
				"$set": bson.M{
					"status":      a.Status,
					"recorded_by": a.RecordedBy,
				},
				"$setOnInsert": bson.M{
					"team_id":     r.teamID,
					"match_id":    a.MatchID,
					"player_id":   a.PlayerID,
					"recorded_at": time.Now().UTC(),
				},
			},
			options.Update().SetUpsert(true))
		if err != nil {
			return apperr.Unavailable("attendance upsert failed", err)
		}
		return nil
	})
}

// ByID fetches one record by the composite (team, match, player) ID.
func (r *AttendanceRepo) ByID(ctx context.Context, matchID, playerID string) (models.Attendance, error) {
	id := models.AttendanceID(r.teamID, matchID, playerID)
	var a models.Attendance
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		if err := r.base.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return apperr.NotFound("No availability recorded for that player and match.", err)
			}
			return apperr.Unavailable("attendance lookup failed", err)
		}
		return nil
	})
	return a, err
}

// ForMatch returns every record for a match, sorted by player ID.
func (r *AttendanceRepo) ForMatch(ctx context.Context, matchID string) ([]models.Attendance, error) {
	var out []models.Attendance
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		cur, err := r.base.coll.Find(ctx, bson.M{"match_id": matchID},
			options.Find().SetSort(bson.D{{Key: "player_id", Value: 1}}))
		if err != nil {
			return apperr.Unavailable("attendance list failed", err)
		}
		out, err = decodeAll[models.Attendance](ctx, cur, nil)
		return err
	})
	return out, err
}

// ForPlayer returns every record for a player, newest match first by ID.
func (r *AttendanceRepo) ForPlayer(ctx context.Context, playerID string) ([]models.Attendance, error) {
	var out []models.Attendance
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		cur, err := r.base.coll.Find(ctx, bson.M{"player_id": playerID},
			options.Find().SetSort(bson.D{{Key: "match_id", Value: -1}}))
		if err != nil {
			return apperr.Unavailable("attendance list failed", err)
		}
		out, err = decodeAll[models.Attendance](ctx, cur, nil)
		return err
	})
	return out, err
}
