package repository

import (
	"context"
	"errors"
	"time"

	"oeo-pos/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{
		collection: db.Collection(productsCollection),
	}
}

func (m *mongoProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	doc, err := newProductDocument(product)
	if err != nil {
		return domain.Persistence("encode product", err)
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateBarcode
		}
		return domain.Persistence("create product", err)
	}
	return nil
}

func (m *mongoProductRepository) FindByID(ctx context.Context, tenant domain.TenantID, id uuid.UUID) (*domain.Product, error) {
	return m.findOne(ctx, bson.M{"_id": id.String(), "tenant_id": string(tenant)})
}

func (m *mongoProductRepository) FindByBarcode(ctx context.Context, tenant domain.TenantID, barcode string) (*domain.Product, error) {
	return m.findOne(ctx, bson.M{"barcode": barcode, "tenant_id": string(tenant)})
}

func (m *mongoProductRepository) findOne(ctx context.Context, filter bson.M) (*domain.Product, error) {
	var doc productDocument
	if err := m.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, domain.Persistence("find product", err)
	}

	product, err := doc.toDomain()
	if err != nil {
		return nil, domain.Persistence("decode product", err)
	}
	return product, nil
}

func (m *mongoProductRepository) ListByTenant(ctx context.Context, tenant domain.TenantID) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := m.collection.Find(ctx, bson.M{"tenant_id": string(tenant)}, opts)
	if err != nil {
		return nil, domain.Persistence("list products", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, domain.Persistence("decode products", err)
	}

	products := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		product, err := docs[i].toDomain()
		if err != nil {
			return nil, domain.Persistence("decode product", err)
		}
		products = append(products, product)
	}
	return products, nil
}

func (m *mongoProductRepository) DecrementStock(ctx context.Context, tenant domain.TenantID, id uuid.UUID, qty int) error {
	if qty < 1 {
		return domain.Invalid("quantity must be at least 1")
	}

	filter := bson.M{
		"_id":       id.String(),
		"tenant_id": string(tenant),
		"stock":     bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return domain.Persistence("decrement stock", err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	count, err := m.collection.CountDocuments(ctx, bson.M{"_id": id.String(), "tenant_id": string(tenant)})
	if err != nil {
		return domain.Persistence("check product", err)
	}
	if count == 0 {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}
