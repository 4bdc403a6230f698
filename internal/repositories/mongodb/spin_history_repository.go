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

var _ repositories.SpinHistoryRepository = (*SpinHistoryRepository)(nil)

// SpinHistoryRepository implements the repositories.SpinHistoryRepository interface
type SpinHistoryRepository struct {
	collection *mongo.Collection
}

// NewSpinHistoryRepository creates a new SpinHistoryRepository
func NewSpinHistoryRepository(db *mongo.Database) *SpinHistoryRepository {
	return &SpinHistoryRepository{
		collection: db.Collection("lucky_draw_history"),
	}
}

// Create appends a spin to the ledger
func (r *SpinHistoryRepository) Create(ctx context.Context, history *models.SpinHistory) error {
	if history.ID.IsZero() {
		history.ID = primitive.NewObjectID()
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, history)
	return translate(err)
}

// FindByID finds a spin by ID
func (r *SpinHistoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.SpinHistory, error) {
	var history models.SpinHistory
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&history); err != nil {
		return nil, translate(err)
	}
	return &history, nil
}

// FindByUser pages through a user's spins, newest first
func (r *SpinHistoryRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, drawID *primitive.ObjectID, skip, limit int64) ([]*models.SpinHistory, int64, error) {
	filter := bson.M{"userId": userID}
	if drawID != nil {
		filter["drawId"] = *drawID
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var history []*models.SpinHistory
	if err := cursor.All(ctx, &history); err != nil {
		return nil, 0, err
	}
	if history == nil {
		history = []*models.SpinHistory{}
	}
	return history, total, nil
}

// CountForUserSince counts a user's spins on a draw from the given instant.
// Served by the (userId, drawId, createdAt) index.
func (r *SpinHistoryRepository) CountForUserSince(ctx context.Context, userID, drawID primitive.ObjectID, since time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"userId":    userID,
		"drawId":    drawID,
		"createdAt": bson.M{"$gte": since},
	})
}

// CountByDraw counts spins recorded against a draw
func (r *SpinHistoryRepository) CountByDraw(ctx context.Context, drawID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"drawId": drawID})
}

// CountByPrize counts how often a prize was won
func (r *SpinHistoryRepository) CountByPrize(ctx context.Context, prizeID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"prizeId": prizeID})
}

// ExistsByVoucherCode reports whether a voucher code was already issued
func (r *SpinHistoryRepository) ExistsByVoucherCode(ctx context.Context, code string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"voucherCode": code}, options.Count().SetLimit(1))
	return n > 0, err
}

type drawTotals struct {
	TotalSpins         int64                `bson:"totalSpins"`
	Day7Spins          int64                `bson:"day7Spins"`
	PointsSpins        int64                `bson:"pointsSpins"`
	TotalPointsAwarded int64                `bson:"totalPointsAwarded"`
	TotalPointsSpent   int64                `bson:"totalPointsSpent"`
	Participants       []primitive.ObjectID `bson:"participants"`
}

type prizeWins struct {
	PrizeID primitive.ObjectID `bson:"_id"`
	Count   int64              `bson:"count"`
}

// SummarizeDraw aggregates the ledger of a draw
func (r *SpinHistoryRepository) SummarizeDraw(ctx context.Context, drawID primitive.ObjectID) (*models.SpinLedgerSummary, error) {
	summary := &models.SpinLedgerSummary{WinsByPrize: map[primitive.ObjectID]int64{}}

	totalsPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"drawId": drawID}}},
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"totalSpins": bson.M{"$sum": 1},
			"day7Spins": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$spinType", models.SpinTypeDay7Checkin}}, 1, 0},
			}},
			"pointsSpins": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$spinType", models.SpinTypePointsRedemption}}, 1, 0},
			}},
			"totalPointsAwarded": bson.M{"$sum": "$awardedPoints"},
			"totalPointsSpent":   bson.M{"$sum": "$pointsSpent"},
			"participants":       bson.M{"$addToSet": "$userId"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, totalsPipeline)
	if err != nil {
		return nil, err
	}
	var totals []drawTotals
	if err := cursor.All(ctx, &totals); err != nil {
		return nil, err
	}
	if len(totals) > 0 {
		t := totals[0]
		summary.TotalSpins = t.TotalSpins
		summary.Day7Spins = t.Day7Spins
		summary.PointsSpins = t.PointsSpins
		summary.TotalPointsAwarded = t.TotalPointsAwarded
		summary.TotalPointsSpent = t.TotalPointsSpent
		summary.UniqueParticipants = int64(len(t.Participants))
	}

	winsPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"drawId": drawID, "prizeId": bson.M{"$ne": nil}}}},
		{{Key: "$group", Value: bson.M{"_id": "$prizeId", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err = r.collection.Aggregate(ctx, winsPipeline)
	if err != nil {
		return nil, err
	}
	var wins []prizeWins
	if err := cursor.All(ctx, &wins); err != nil {
		return nil, err
	}
	for _, w := range wins {
		summary.WinsByPrize[w.PrizeID] = w.Count
	}
	return summary, nil
}
