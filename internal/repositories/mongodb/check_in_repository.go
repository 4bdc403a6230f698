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

var _ repositories.CheckInRepository = (*CheckInRepository)(nil)

// CheckInRepository implements the repositories.CheckInRepository interface
type CheckInRepository struct {
	collection *mongo.Collection
}

// NewCheckInRepository creates a new CheckInRepository
func NewCheckInRepository(db *mongo.Database) *CheckInRepository {
	return &CheckInRepository{
		collection: db.Collection("daily_check_ins"),
	}
}

// Create records a check-in; the (userId, checkInDate) index rejects a second one per day
func (r *CheckInRepository) Create(ctx context.Context, checkIn *models.DailyCheckIn) error {
	if checkIn.ID.IsZero() {
		checkIn.ID = primitive.NewObjectID()
	}
	checkIn.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, checkIn)
	return translate(err)
}

// FindByUser lists recent check-ins of a user
func (r *CheckInRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.DailyCheckIn, error) {
	opts := options.Find().SetSort(bson.D{{Key: "checkInDate", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var checkIns []*models.DailyCheckIn
	if err := cursor.All(ctx, &checkIns); err != nil {
		return nil, err
	}
	if checkIns == nil {
		checkIns = []*models.DailyCheckIn{}
	}
	return checkIns, nil
}
