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

// TeamMemberRepo stores one team's non-playing staff.
type TeamMemberRepo struct {
	base   repoBase
	teamID string
}

// Insert creates a team-member record. A duplicate ID is a conflict.
func (r *TeamMemberRepo) Insert(ctx context.Context, m models.TeamMember) error {
	if m.ID == "" || m.TeamID == "" {
		return apperr.Validation("member id and team id are required", nil)
	}
	return r.base.observe(ctx, "insert", func(ctx context.Context) error {
		_, err := r.base.coll.InsertOne(ctx, m)
		if mongodriver.IsDuplicateKeyError(err) {
			return apperr.Conflict(fmt.Sprintf("team member %s already exists", m.ID), err)
		}
		if err != nil {
			return apperr.Unavailable("team member insert failed", err)
		}
		return nil
	})
}

// ByID looks a member up by document ID.
func (r *TeamMemberRepo) ByID(ctx context.Context, id string) (models.TeamMember, error) {
	var m models.TeamMember
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		if err := r.base.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return apperr.NotFound(fmt.Sprintf("No team member with ID %s.", id), err)
			}
			return apperr.Unavailable("team member lookup failed", err)
		}
		return validateMemberDoc(m)
	})
	return m, err
}

// ByTelegramID looks a member up by the caller's Telegram identity.
func (r *TeamMemberRepo) ByTelegramID(ctx context.Context, telegramID int64) (models.TeamMember, error) {
	var m models.TeamMember
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		if err := r.base.coll.FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&m); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return apperr.NotFound("You are not registered as a team member.", err)
			}
			return apperr.Unavailable("team member lookup failed", err)
		}
		return validateMemberDoc(m)
	})
	return m, err
}

// List returns the team's members, sorted by ID.
func (r *TeamMemberRepo) List(ctx context.Context, statuses ...models.MemberStatus) ([]models.TeamMember, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	var out []models.TeamMember
	err := r.base.observe(ctx, "find", func(ctx context.Context) error {
		cur, err := r.base.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return apperr.Unavailable("team member list failed", err)
		}
		out, err = decodeAll[models.TeamMember](ctx, cur, func(m *models.TeamMember) error {
			return validateMemberDoc(*m)
		})
		return err
	})
	return out, err
}

// Update rewrites a member record, bumping updated_at.
func (r *TeamMemberRepo) Update(ctx context.Context, m models.TeamMember) error {
	if m.ID == "" {
		return apperr.Validation("member id is required", nil)
	}
	m.UpdatedAt = time.Now().UTC()
	return r.base.observe(ctx, "update", func(ctx context.Context) error {
		res, err := r.base.coll.UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": m})
		if err != nil {
			return apperr.Unavailable("team member update failed", err)
		}
		if res.MatchedCount == 0 {
			return apperr.NotFound(fmt.Sprintf("No team member with ID %s.", m.ID), nil)
		}
		return nil
	})
}

// CountByIDPrefix counts members whose ID starts with prefix followed by
// digits.
func (r *TeamMemberRepo) CountByIDPrefix(ctx context.Context, prefix string) (int64, error) {
	var n int64
	err := r.base.observe(ctx, "count", func(ctx context.Context) error {
		var err error
		n, err = r.base.coll.CountDocuments(ctx, bson.M{
			"_id": bson.M{"$regex": "^" + prefix + "[0-9]+$"},
		})
		if err != nil {
			return apperr.Unavailable("team member count failed", err)
		}
		return nil
	})
	return n, err
}

func validateMemberDoc(m models.TeamMember) error {
	if m.ID == "" || m.TeamID == "" || m.Name == "" {
		return apperr.Corruption("team member record is missing required fields", nil).
			WithContext("member_id", m.ID)
	}
	return nil
}
