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

// Compile-time check to ensure UserRepository implements the interface
var _ repositories.UserRepository = (*UserRepository)(nil)

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	_, err := r.collection.InsertOne(ctx, user)
	return translate(err)
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Lock stamps lastSpinAt and returns the updated user. Inside a transaction the
// write makes any concurrent transaction on the same user fail with a write conflict.
func (r *UserRepository) Lock(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastSpinAt": at}},
		opts,
	).Decode(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// CreditPoints adds points to both the balance and the lifetime total
func (r *UserRepository) CreditPoints(ctx context.Context, id primitive.ObjectID, points int) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"pointsBalance": points, "pointsLifetime": points},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// DebitPoints subtracts points only while the balance covers them
func (r *UserRepository) DebitPoints(ctx context.Context, id primitive.ObjectID, points int) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "pointsBalance": bson.M{"$gte": points}},
		bson.M{
			"$inc": bson.M{"pointsBalance": -points},
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

// UpdateCheckIn records the latest check-in day and streak
func (r *UserRepository) UpdateCheckIn(ctx context.Context, id primitive.ObjectID, day time.Time, streak int) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"lastCheckInDate": day,
			"totalStreak":     streak,
			"updatedAt":       time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
