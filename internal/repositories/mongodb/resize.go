package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// resizeCounter moves a total/remaining pair to a new total in one guarded
// write. The filter pins the total the caller read, and remaining is adjusted
// server side so decrements committed in the meantime are kept.
func resizeCounter(ctx context.Context, collection *mongo.Collection, filter bson.M, totalField, remainingField string, from, to *int, used int) error {
	if from != nil {
		filter[totalField] = *from
	} else {
		filter[totalField] = nil
	}

	now := time.Now()
	var update interface{}
	switch {
	case to == nil:
		update = bson.M{"$set": bson.M{totalField: nil, remainingField: nil, "updatedAt": now}}
	case from == nil:
		remaining := *to - used
		if remaining < 0 {
			remaining = 0
		}
		update = bson.M{"$set": bson.M{totalField: *to, remainingField: remaining, "updatedAt": now}}
	default:
		update = mongo.Pipeline{{{Key: "$set", Value: bson.D{
			{Key: totalField, Value: *to},
			{Key: remainingField, Value: bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{"$" + remainingField, *to - *from}}}}},
			{Key: "updatedAt", Value: now},
		}}}}
	}

	res, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrGuardFailed
	}
	return nil
}
