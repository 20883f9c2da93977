package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type chatHistoryDoc struct {
	Key       string    `bson:"_id"`
	Turns     []string  `bson:"turns"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// PushChatTurn prepends payload to the list stored under key, trims it to
// maxCount entries and moves the expiry to now+ttl. Turns of a document that
// is already past its expiry but not yet removed by the TTL monitor are
// discarded first. The whole change is one single-document pipeline update,
// so concurrent pushes for the same key never interleave.
func (m *MongoDB) PushChatTurn(ctx context.Context, key, payload string, maxCount int, ttl time.Duration) error {
	db, err := m.db(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	live := bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$gt", Value: bson.A{"$expires_at", now}}},
		bson.D{{Key: "$ifNull", Value: bson.A{"$turns", bson.A{}}}},
		bson.A{},
	}}}
	turns := bson.D{{Key: "$slice", Value: bson.A{
		bson.D{{Key: "$concatArrays", Value: bson.A{
			bson.D{{Key: "$literal", Value: bson.A{payload}}},
			live,
		}}},
		maxCount,
	}}}

	filter := bson.D{{Key: "_id", Value: key}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "turns", Value: turns},
			{Key: "expires_at", Value: now.Add(ttl)},
		}}},
	}
	opts := options.Update().SetUpsert(true)

	_, err = db.Collection(chatHistoryCollection).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("mongodb push chat turn: %w", err)
	}
	return nil
}

// GetChatTurns returns up to maxCount payloads stored under key, newest first.
// Documents past their expiry are treated as absent even before the TTL monitor removes them.
func (m *MongoDB) GetChatTurns(ctx context.Context, key string, maxCount int) ([]string, error) {
	db, err := m.db(ctx)
	if err != nil {
		return nil, err
	}

	filter := bson.D{
		{Key: "_id", Value: key},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: time.Now()}}},
	}
	opts := options.FindOne().SetProjection(bson.D{
		{Key: "turns", Value: bson.D{{Key: "$slice", Value: maxCount}}},
	})

	var doc chatHistoryDoc
	err = db.Collection(chatHistoryCollection).FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		return nil, m.findError(err)
	}
	return doc.Turns, nil
}

// DeleteChatTurns drops the whole list stored under key.
func (m *MongoDB) DeleteChatTurns(ctx context.Context, key string) error {
	db, err := m.db(ctx)
	if err != nil {
		return err
	}

	_, err = db.Collection(chatHistoryCollection).DeleteOne(ctx, bson.D{{Key: "_id", Value: key}})
	if err != nil {
		return fmt.Errorf("mongodb delete chat turns: %w", err)
	}
	return nil
}
