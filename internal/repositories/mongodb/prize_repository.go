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

var _ repositories.PrizeRepository = (*PrizeRepository)(nil)

// PrizeRepository implements the repositories.PrizeRepository interface
type PrizeRepository struct {
	collection *mongo.Collection
}

// NewPrizeRepository creates a new PrizeRepository
func NewPrizeRepository(db *mongo.Database) *PrizeRepository {
	return &PrizeRepository{
		collection: db.Collection("lucky_draw_prizes"),
	}
}

// Create creates a new prize
func (r *PrizeRepository) Create(ctx context.Context, prize *models.Prize) error {
	if prize.ID.IsZero() {
		prize.ID = primitive.NewObjectID()
	}
	prize.CreatedAt = time.Now()
	prize.UpdatedAt = prize.CreatedAt
	_, err := r.collection.InsertOne(ctx, prize)
	return translate(err)
}

// FindByID finds a prize by ID
func (r *PrizeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Prize, error) {
	var prize models.Prize
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&prize); err != nil {
		return nil, translate(err)
	}
	return &prize, nil
}

func (r *PrizeRepository) find(ctx context.Context, filter bson.M) ([]*models.Prize, error) {
	// _id is monotonic in creation order, which gives the identity tie-break.
	opts := options.Find().SetSort(bson.D{{Key: "displayOrder", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var prizes []*models.Prize
	if err := cursor.All(ctx, &prizes); err != nil {
		return nil, err
	}
	if prizes == nil {
		prizes = []*models.Prize{}
	}
	return prizes, nil
}

// FindByDraw lists the prize pool of a draw in selection order
func (r *PrizeRepository) FindByDraw(ctx context.Context, drawID primitive.ObjectID) ([]*models.Prize, error) {
	return r.find(ctx, bson.M{"drawId": drawID})
}

// FindEligibleByDraw lists prizes that can currently be won
func (r *PrizeRepository) FindEligibleByDraw(ctx context.Context, drawID primitive.ObjectID) ([]*models.Prize, error) {
	return r.find(ctx, bson.M{
		"drawId":            drawID,
		"probabilityWeight": bson.M{"$gt": 0},
		"$or": bson.A{
			bson.M{"stockRemaining": nil},
			bson.M{"stockRemaining": bson.M{"$gt": 0}},
		},
	})
}

// Update sets the editable fields of a prize, leaving stock counters alone
func (r *PrizeRepository) Update(ctx context.Context, prize *models.Prize) error {
	prize.UpdatedAt = time.Now()
	set := bson.M{
		"name":               prize.Name,
		"description":        prize.Description,
		"prizeType":          prize.PrizeType,
		"voucherDescription": prize.VoucherDescription,
		"voucherExpiryDays":  prize.VoucherExpiryDays,
		"voucherMaxUsage":    prize.VoucherMaxUsage,
		"probabilityWeight":  prize.ProbabilityWeight,
		"displayOrder":       prize.DisplayOrder,
		"imageUrl":           prize.ImageURL,
		"updatedAt":          prize.UpdatedAt,
	}
	if prize.PointsAmount != nil {
		set["pointsAmount"] = *prize.PointsAmount
	}
	if prize.RewardID != nil {
		set["rewardId"] = *prize.RewardID
	}
	if prize.VoucherDiscountPercent != nil {
		set["voucherDiscountPercent"] = *prize.VoucherDiscountPercent
	}
	if prize.VoucherDiscountAmount != nil {
		set["voucherDiscountAmount"] = *prize.VoucherDiscountAmount
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": prize.ID}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// ResizeStock changes the stock quantity of a prize
func (r *PrizeRepository) ResizeStock(ctx context.Context, id primitive.ObjectID, from, to *int, used int) error {
	return resizeCounter(ctx, r.collection, bson.M{"_id": id}, "stockQuantity", "stockRemaining", from, to, used)
}

// Delete removes a prize
func (r *PrizeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// DecrementStock takes one unit of finite stock
func (r *PrizeRepository) DecrementStock(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "stockRemaining": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"stockRemaining": -1},
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
