package repository

import (
	"context"
	"errors"
	"time"

	"oeo-pos/internal/domain"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCartRepository struct {
	collection *mongo.Collection
}

// NewMongoCartRepository creates a CartRepository over the carts collection.
// Loading a cart for update bumps its version so that two transactions on the
// same tenant write-conflict instead of both succeeding.
func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection(cartsCollection),
	}
}

func (m *mongoCartRepository) LoadOrCreate(ctx context.Context, tenant domain.TenantID, now time.Time) (*domain.Cart, error) {
	zero, err := toDecimal128(decimal.Zero)
	if err != nil {
		return nil, domain.Persistence("encode cart total", err)
	}

	update := bson.M{
		"$inc": bson.M{"version": 1},
		"$setOnInsert": bson.M{
			"items":      bson.A{},
			"total":      zero,
			"created_at": now,
			"updated_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	filter := bson.M{"tenant_id": string(tenant)}

	// Two concurrent upserts can both miss and race on the tenant_id index.
	// The loser finds the winner's cart on a second try.
	cart, err := m.decode(m.collection.FindOneAndUpdate(ctx, filter, update, opts))
	if mongo.IsDuplicateKeyError(err) {
		return m.decode(m.collection.FindOneAndUpdate(ctx, filter, update, opts))
	}
	return cart, err
}

func (m *mongoCartRepository) FindForUpdate(ctx context.Context, tenant domain.TenantID) (*domain.Cart, error) {
	update := bson.M{"$inc": bson.M{"version": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	return m.decode(m.collection.FindOneAndUpdate(ctx, bson.M{"tenant_id": string(tenant)}, update, opts))
}

func (m *mongoCartRepository) Find(ctx context.Context, tenant domain.TenantID) (*domain.Cart, error) {
	return m.decode(m.collection.FindOne(ctx, bson.M{"tenant_id": string(tenant)}))
}

type singleResult interface {
	Decode(v interface{}) error
}

func (m *mongoCartRepository) decode(result singleResult) (*domain.Cart, error) {
	var doc cartDocument
	if err := result.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, domain.Persistence("find cart", err)
	}

	cart, err := doc.toDomain()
	if err != nil {
		return nil, domain.Persistence("decode cart", err)
	}
	return cart, nil
}

func (m *mongoCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	lines, err := encodeCartLines(cart.Items)
	if err != nil {
		return domain.Persistence("encode cart items", err)
	}
	total, err := toDecimal128(cart.Total)
	if err != nil {
		return domain.Persistence("encode cart total", err)
	}

	filter := bson.M{"tenant_id": string(cart.TenantID)}
	update := bson.M{
		"$set": bson.M{
			"items":      lines,
			"total":      total,
			"updated_at": cart.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": cart.CreatedAt},
		"$inc":         bson.M{"version": 1},
	}

	if _, err := m.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return domain.Persistence("save cart", err)
	}
	return nil
}

func (m *mongoCartRepository) Delete(ctx context.Context, tenant domain.TenantID) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"tenant_id": string(tenant)})
	if err != nil {
		return domain.Persistence("delete cart", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}
