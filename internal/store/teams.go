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

// TeamRepo stores tenant records in the global teams collection.
type TeamRepo struct {
	base repoBase
}

// ByID fetches a team record.
func (r *TeamRepo) ByID(ctx context.Context, id string) (models.Team, error) {
	var t models.Team
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		if err := r.base.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return apperr.NotFound(fmt.Sprintf("No team with ID %s.", id), err)
			}
			return apperr.Unavailable("team lookup failed", err)
		}
		return nil
	})
	return t, err
}

// ByChatID finds the team owning a Telegram chat, main or leadership.
func (r *TeamRepo) ByChatID(ctx context.Context, chatID string) (models.Team, error) {
	var t models.Team
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		filter := bson.M{"$or": []bson.M{
			{"main_chat_id": chatID},
			{"leadership_chat_id": chatID},
		}}
		if err := r.base.coll.FindOne(ctx, filter).Decode(&t); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return apperr.NotFound("This chat is not linked to any team.", err)
			}
			return apperr.Unavailable("team lookup failed", err)
		}
		return nil
	})
	return t, err
}

// List returns every team record, sorted by ID.
func (r *TeamRepo) List(ctx context.Context) ([]models.Team, error) {
	var out []models.Team
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		cur, err := r.base.coll.Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return apperr.Unavailable("team list failed", err)
		}
		out, err = decodeAll[models.Team](ctx, cur, nil)
		return err
	})
	return out, err
}

// Upsert creates or updates a team record, keeping the original created_at.
func (r *TeamRepo) Upsert(ctx context.Context, t models.Team) error {
	if t.ID == "" || t.Name == "" {
		return apperr.Validation("team id and name are required", nil)
	}
	return r.base.observe(ctx, "upsert", func(ctx context.Context) error {
		_, err := r.base.coll.UpdateOne(ctx,
			bson.M{"_id": t.ID},
			bson.M{
				"$set": bson.M{
					"name":               t.Name,
					"main_chat_id":       t.MainChatID,
					"leadership_chat_id": t.LeadershipChatID,
				},
				"$setOnInsert": bson.M{
					"created_at": time.Now().UTC(),
				},
			},
			options.Update().SetUpsert(true))
		if err != nil {
			return apperr.Unavailable("team upsert failed", err)
		}
		return nil
	})
}
