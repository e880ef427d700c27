package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Test hooks for package repository_test, which drives the stores through the
// service layer.
var (
	ResetPostgres = resetPostgres
	SetupMongo    = setupMongo
)

func PostgresDB() *sql.DB {
	return testDB
}

func ResetMongo(t *testing.T, db *mongo.Database) {
	t.Helper()
	for _, name := range []string{productsCollection, cartsCollection, receiptsCollection} {
		_, err := db.Collection(name).DeleteMany(context.Background(), bson.M{})
		require.NoError(t, err)
	}
}
