package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the prize engine relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"lucky_draws": {
			{Keys: bson.D{{Key: "merchantId", Value: 1}, {Key: "isActive", Value: 1}}},
			{
				Keys: bson.D{{Key: "merchantId", Value: 1}},
				Options: options.Index().
					SetName("one_active_day7_per_merchant").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"isDay7Draw": true, "isActive": true}),
			},
		},
		"lucky_draw_prizes": {
			{Keys: bson.D{{Key: "drawId", Value: 1}, {Key: "displayOrder", Value: 1}}},
		},
		"lucky_draw_history": {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "drawId", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "drawId", Value: 1}}},
			{Keys: bson.D{{Key: "prizeId", Value: 1}}},
			{
				Keys:    bson.D{{Key: "voucherCode", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
		"reward_redemptions": {
			{
				Keys:    bson.D{{Key: "redemptionCode", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "rewardId", Value: 1}}},
			{Keys: bson.D{{Key: "merchantId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}}},
		},
		"daily_check_ins": {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "checkInDate", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"notifications": {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"point_transactions": {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
