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

var _ repositories.DrawRepository = (*DrawRepository)(nil)

// DrawRepository implements the repositories.DrawRepository interface
type DrawRepository struct {
	collection *mongo.Collection
	prizes     *mongo.Collection
}

// NewDrawRepository creates a new DrawRepository
func NewDrawRepository(db *mongo.Database) *DrawRepository {
	return &DrawRepository{
		collection: db.Collection("lucky_draws"),
		prizes:     db.Collection("lucky_draw_prizes"),
	}
}

// Create creates a new draw
func (r *DrawRepository) Create(ctx context.Context, draw *models.Draw) error {
	if draw.ID.IsZero() {
		draw.ID = primitive.NewObjectID()
	}
	draw.CreatedAt = time.Now()
	draw.UpdatedAt = draw.CreatedAt
	_, err := r.collection.InsertOne(ctx, draw)
	return translate(err)
}

// FindByID finds a draw by ID
func (r *DrawRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Draw, error) {
	var draw models.Draw
	if err := r.collection.FindOne(ctx, live(bson.M{"_id": id})).Decode(&draw); err != nil {
		return nil, translate(err)
	}
	return &draw, nil
}

// live hides tombstoned draws.
func live(filter bson.M) bson.M {
	filter["deletedAt"] = nil
	return filter
}

func (r *DrawRepository) find(ctx context.Context, filter bson.M) ([]*models.Draw, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, live(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var draws []*models.Draw
	if err := cursor.All(ctx, &draws); err != nil {
		return nil, err
	}
	if draws == nil {
		draws = []*models.Draw{}
	}
	return draws, nil
}

// FindByMerchant lists every draw of a merchant, newest first
func (r *DrawRepository) FindByMerchant(ctx context.Context, merchantID primitive.ObjectID) ([]*models.Draw, error) {
	return r.find(ctx, bson.M{"merchantId": merchantID})
}

// FindActiveByMerchant lists the active draws of a merchant
func (r *DrawRepository) FindActiveByMerchant(ctx context.Context, merchantID primitive.ObjectID) ([]*models.Draw, error) {
	return r.find(ctx, bson.M{"merchantId": merchantID, "isActive": true})
}

// FindActiveDay7 finds the active Day-7 draw, optionally scoped to a merchant
func (r *DrawRepository) FindActiveDay7(ctx context.Context, merchantID *primitive.ObjectID) (*models.Draw, error) {
	filter := bson.M{"isDay7Draw": true, "isActive": true}
	if merchantID != nil {
		filter["merchantId"] = *merchantID
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var draw models.Draw
	if err := r.collection.FindOne(ctx, live(filter), opts).Decode(&draw); err != nil {
		return nil, translate(err)
	}
	return &draw, nil
}

// CountActiveDay7 counts active Day-7 draws of a merchant, ignoring excludeID
func (r *DrawRepository) CountActiveDay7(ctx context.Context, merchantID primitive.ObjectID, excludeID *primitive.ObjectID) (int64, error) {
	filter := bson.M{"merchantId": merchantID, "isDay7Draw": true, "isActive": true}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	return r.collection.CountDocuments(ctx, live(filter))
}

// Update sets the editable fields of a draw, leaving the spin budget alone
func (r *DrawRepository) Update(ctx context.Context, draw *models.Draw) error {
	draw.UpdatedAt = time.Now()
	res, err := r.collection.UpdateOne(ctx, live(bson.M{"_id": draw.ID}), bson.M{"$set": bson.M{
		"name":               draw.Name,
		"description":        draw.Description,
		"pointsCostPerSpin":  draw.PointsCostPerSpin,
		"isDay7Draw":         draw.IsDay7Draw,
		"maxSpinsPerUserDay": draw.MaxSpinsPerUserDay,
		"isActive":           draw.IsActive,
		"startDate":          draw.StartDate,
		"endDate":            draw.EndDate,
		"updatedAt":          draw.UpdatedAt,
	}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// ResizeSpins changes the spin budget of a draw
func (r *DrawRepository) ResizeSpins(ctx context.Context, id primitive.ObjectID, from, to *int, used int) error {
	return resizeCounter(ctx, r.collection, live(bson.M{"_id": id}), "totalAvailableSpins", "remainingSpins", from, to, used)
}

// Delete tombstones a draw and removes its prizes. The document stays so spin
// history written by a racing transaction never points at a missing draw.
func (r *DrawRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	res, err := r.collection.UpdateOne(ctx, live(bson.M{"_id": id}), bson.M{"$set": bson.M{
		"isActive":  false,
		"deletedAt": now,
		"updatedAt": now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	_, err = r.prizes.DeleteMany(ctx, bson.M{"drawId": id})
	return err
}

// DecrementRemainingSpins takes one spin from a finite budget
func (r *DrawRepository) DecrementRemainingSpins(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "remainingSpins": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"remainingSpins": -1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return repositories.ErrGuardFailed
	}
	return nil
}
