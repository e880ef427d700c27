package repository

import (
	"context"
	"errors"

	"oeo-pos/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoReceiptRepository struct {
	collection *mongo.Collection
}

func NewMongoReceiptRepository(db *mongo.Database) ReceiptRepository {
	return &mongoReceiptRepository{
		collection: db.Collection(receiptsCollection),
	}
}

func (m *mongoReceiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	doc, err := newReceiptDocument(receipt)
	if err != nil {
		return domain.Persistence("encode receipt", err)
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Persistence("create receipt", ErrDuplicateReceipt)
		}
		return domain.Persistence("create receipt", err)
	}
	return nil
}

func (m *mongoReceiptRepository) FindByReceiptID(ctx context.Context, tenant domain.TenantID, receiptID string) (*domain.Receipt, error) {
	var doc receiptDocument
	filter := bson.M{"receipt_id": receiptID, "tenant_id": string(tenant)}

	if err := m.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReceiptNotFound
		}
		return nil, domain.Persistence("find receipt", err)
	}

	receipt, err := doc.toDomain()
	if err != nil {
		return nil, domain.Persistence("decode receipt", err)
	}
	return receipt, nil
}

func (m *mongoReceiptRepository) List(ctx context.Context, tenant domain.TenantID, page, pageSize int) ([]*domain.Receipt, int, error) {
	_, pageSize, offset := NormalizePage(page, pageSize)
	filter := bson.M{"tenant_id": string(tenant)}

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, domain.Persistence("count receipts", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "issued_at", Value: -1}, {Key: "receipt_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(pageSize))

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, domain.Persistence("list receipts", err)
	}
	defer cursor.Close(ctx)

	var docs []receiptDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, domain.Persistence("decode receipts", err)
	}

	receipts := make([]*domain.Receipt, 0, len(docs))
	for i := range docs {
		receipt, err := docs[i].toDomain()
		if err != nil {
			return nil, 0, domain.Persistence("decode receipt", err)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, int(total), nil
}
