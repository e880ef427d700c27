package repository

import (
	"context"
	"errors"

	"oeo-pos/internal/domain"

	"go.mongodb.org/mongo-driver/mongo"
)

type mongoTxManager struct {
	client *mongo.Client
}

// NewMongoTxManager creates a TxManager backed by MongoDB multi-document
// transactions. The driver retries fn on transient transaction errors, so fn
// must not have side effects outside the store.
func NewMongoTxManager(client *mongo.Client) TxManager {
	return &mongoTxManager{client: client}
}

func (m *mongoTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := m.client.StartSession()
	if err != nil {
		return domain.Persistence("start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, transient(fn(sc))
	})
	return domain.Persistence("run transaction", err)
}

const transientTransactionLabel = "TransientTransactionError"

// transient hands a labeled driver error back unwrapped. The driver only follows
// single-error Unwrap chains when deciding whether to retry, and domain
// errors wrap more than one.
func transient(err error) error {
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel(transientTransactionLabel) {
		return labeled
	}
	return err
}
