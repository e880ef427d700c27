package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection = "products"
	cartsCollection    = "carts"
	receiptsCollection = "receipts"
)

// ConnectMongoDB connects and pings the server. extra options are applied
// after the URI.
func ConnectMongoDB(ctx context.Context, uri, database string, extra ...*options.ClientOptions) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, append([]*options.ClientOptions{clientOpts}, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// CreateMongoIndexes creates the unique keys the repositories rely on
func CreateMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		productsCollection: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "name", Value: 1}}},
			{
				Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "barcode", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"barcode": bson.M{"$exists": true}}),
			},
		},
		cartsCollection: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		receiptsCollection: {
			{
				Keys:    bson.D{{Key: "receipt_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "issued_at", Value: -1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", collection, err)
		}
	}

	return nil
}

// NewMongoStore wires the MongoDB repositories around db. Transactions need
// a replica set deployment.
func NewMongoStore(db *mongo.Database) *Store {
	client := db.Client()
	return &Store{
		Products: NewMongoProductRepository(db),
		Carts:    NewMongoCartRepository(db),
		Receipts: NewMongoReceiptRepository(db),
		Tx:       NewMongoTxManager(client),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		close: client.Disconnect,
	}
}
