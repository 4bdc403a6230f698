package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.RewardRepository = (*RewardRepository)(nil)

// RewardRepository reads the merchant reward catalog
type RewardRepository struct {
	collection *mongo.Collection
}

// NewRewardRepository creates a new RewardRepository
func NewRewardRepository(db *mongo.Database) *RewardRepository {
	return &RewardRepository{
		collection: db.Collection("rewards"),
	}
}

// FindByID finds a catalog reward by ID
func (r *RewardRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Reward, error) {
	var reward models.Reward
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reward); err != nil {
		return nil, translate(err)
	}
	return &reward, nil
}

// Upsert inserts or updates a catalog reward, used by the import command.
// Remaining stock follows a changed quantity server side, so redemptions
// committed since the caller read the reward are kept.
func (r *RewardRepository) Upsert(ctx context.Context, reward *models.Reward) error {
	if reward.ID.IsZero() {
		reward.ID = primitive.NewObjectID()
	}
	now := time.Now()
	var remaining interface{}
	if reward.StockQuantity != nil {
		q := *reward.StockQuantity
		remaining = bson.M{"$max": bson.A{0, bson.M{"$cond": bson.A{
			bson.M{"$isNumber": "$stockQuantity"},
			bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$stockRemaining", 0}}, bson.M{"$subtract": bson.A{q, "$stockQuantity"}}}},
			q,
		}}}}
	}
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "merchantId", Value: reward.MerchantID},
		{Key: "title", Value: literal(reward.Title)},
		{Key: "description", Value: literal(reward.Description)},
		{Key: "pointsCost", Value: reward.PointsCost},
		{Key: "validityDays", Value: reward.ValidityDays},
		{Key: "isActive", Value: reward.IsActive},
		{Key: "minRank", Value: literal(reward.MinRank)},
		{Key: "redemptionLimitPerUser", Value: reward.RedemptionLimitPerUser},
		{Key: "stockRemaining", Value: remaining},
		{Key: "stockQuantity", Value: reward.StockQuantity},
		{Key: "createdAt", Value: bson.M{"$ifNull": bson.A{"$createdAt", now}}},
		{Key: "updatedAt", Value: now},
	}}}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": reward.ID}, update, options.Update().SetUpsert(true))
	return translate(err)
}

// literal keeps pipeline stages from reading user text such as "$5 off" as a
// field path.
func literal(v string) bson.M {
	return bson.M{"$literal": v}
}

// DecrementStock takes one unit of an active reward's finite stock
func (r *RewardRepository) DecrementStock(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "isActive": true, "stockRemaining": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"stockRemaining": -1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrGuardFailed
	}
	return nil
}

var _ repositories.RedemptionRepository = (*RedemptionRepository)(nil)

// RedemptionRepository implements the repositories.RedemptionRepository interface
type RedemptionRepository struct {
	collection *mongo.Collection
}

// NewRedemptionRepository creates a new RedemptionRepository
func NewRedemptionRepository(db *mongo.Database) *RedemptionRepository {
	return &RedemptionRepository{
		collection: db.Collection("reward_redemptions"),
	}
}

// Create inserts a redemption; the unique code index rejects duplicates
func (r *RedemptionRepository) Create(ctx context.Context, redemption *models.RewardRedemption) error {
	if redemption.ID.IsZero() {
		redemption.ID = primitive.NewObjectID()
	}
	redemption.CreatedAt = time.Now()
	redemption.UpdatedAt = redemption.CreatedAt
	_, err := r.collection.InsertOne(ctx, redemption)
	return translate(err)
}

// FindByCode finds a redemption by its code
func (r *RedemptionRepository) FindByCode(ctx context.Context, code string) (*models.RewardRedemption, error) {
	var redemption models.RewardRedemption
	if err := r.collection.FindOne(ctx, bson.M{"redemptionCode": code}).Decode(&redemption); err != nil {
		return nil, translate(err)
	}
	return &redemption, nil
}

// ExistsByCode reports whether a redemption code is taken
func (r *RedemptionRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"redemptionCode": code}, options.Count().SetLimit(1))
	return n > 0, err
}

// FindByUser lists a user's redemptions, optionally filtered by status
func (r *RedemptionRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, status models.RedemptionStatus) ([]*models.RewardRedemption, error) {
	filter := bson.M{"userId": userID}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter)
}

func (r *RedemptionRepository) find(ctx context.Context, filter bson.M) ([]*models.RewardRedemption, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var redemptions []*models.RewardRedemption
	if err := cursor.All(ctx, &redemptions); err != nil {
		return nil, err
	}
	if redemptions == nil {
		redemptions = []*models.RewardRedemption{}
	}
	return redemptions, nil
}

// FindByMerchant lists a merchant's redemptions, newest first
func (r *RedemptionRepository) FindByMerchant(ctx context.Context, merchantID primitive.ObjectID, branchID *primitive.ObjectID, status models.RedemptionStatus) ([]*models.RewardRedemption, error) {
	filter := bson.M{"merchantId": merchantID}
	if branchID != nil {
		filter["usedAtBranchId"] = *branchID
	}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter)
}

// CountByUserAndReward counts every redemption of a reward by one user
func (r *RedemptionRepository) CountByUserAndReward(ctx context.Context, userID, rewardID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID, "rewardId": rewardID})
}

// UpdateStatus writes the status transition of a redemption
func (r *RedemptionRepository) UpdateStatus(ctx context.Context, redemption *models.RewardRedemption) error {
	set := bson.M{
		"status":    redemption.Status,
		"updatedAt": time.Now(),
	}
	if redemption.UsedAt != nil {
		set["usedAt"] = redemption.UsedAt
	}
	if redemption.UsedAtBranchID != nil {
		set["usedAtBranchId"] = redemption.UsedAtBranchID
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": redemption.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// ExpireOverdue flips overdue active redemptions to expired
func (r *RedemptionRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"status": models.RedemptionActive, "expiresAt": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": models.RedemptionExpired, "updatedAt": now}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
