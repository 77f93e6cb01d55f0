package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelworks/studio/internal/db"
	"reelworks/studio/internal/models"
)

var testMongoURIUsers = ""

func init() {
	testMongoURIUsers = os.Getenv("MONGO_URI_TEST")
	if testMongoURIUsers == "" {
		testMongoURIUsers = "mongodb://localhost:27017"
	}
}

func setupTestDBUsers(t *testing.T, dbName string) *mongo.Database {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(testMongoURIUsers))
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	database := client.Database(dbName)
	_ = database.Collection("users").Drop(context.Background())
	if err := db.EnsureIndexes(context.Background(), database); err != nil {
		t.Fatalf("Failed to ensure indexes: %v", err)
	}
	return database
}

func TestUserService_CreateAndAuthenticate(t *testing.T) {
	database := setupTestDBUsers(t, "testdb_user_service_create")
	svc := NewUserService(database)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "Test Client", "client@example.com", "swordfish99", models.RoleClient, "g1")
	assert.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleClient, user.Role)
	assert.NotEqual(t, "swordfish99", user.PasswordHash)

	// Duplicate email hits the unique index.
	_, err = svc.CreateUser(ctx, "Other", "client@example.com", "swordfish99", models.RoleClient, "g1")
	assert.ErrorIs(t, err, ErrEmailExists)

	authed, err := svc.Authenticate(ctx, "client@example.com", "swordfish99")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = svc.Authenticate(ctx, "client@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "swordfish99")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestUserService_SuspendAndClear(t *testing.T) {
	database := setupTestDBUsers(t, "testdb_user_service_suspend")
	svc := NewUserService(database)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "Client", "suspend@example.com", "swordfish99", models.RoleClient, "")
	assert.NoError(t, err)

	transitioned, err := svc.Suspend(ctx, user.ID, "invoice overdue 7+ days")
	assert.NoError(t, err)
	assert.True(t, transitioned)

	// Second suspension is a no-op, not an error.
	transitioned, err = svc.Suspend(ctx, user.ID, "again")
	assert.NoError(t, err)
	assert.False(t, transitioned)

	loaded, err := svc.FindByID(ctx, user.ID)
	assert.NoError(t, err)
	assert.True(t, loaded.Suspended)
	assert.NotNil(t, loaded.SuspendedAt)
	assert.Equal(t, "invoice overdue 7+ days", loaded.SuspensionReason)

	cleared, err := svc.ClearSuspension(ctx, user.ID)
	assert.NoError(t, err)
	assert.True(t, cleared)

	// Clearing twice is also a no-op.
	cleared, err = svc.ClearSuspension(ctx, user.ID)
	assert.NoError(t, err)
	assert.False(t, cleared)

	loaded, err = svc.FindByID(ctx, user.ID)
	assert.NoError(t, err)
	assert.False(t, loaded.Suspended)
	assert.Nil(t, loaded.SuspendedAt)
	assert.Empty(t, loaded.SuspensionReason)

	// Suspending a missing user is an error.
	_, err = svc.Suspend(ctx, "no-such-id", "reason")
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestUserService_GetAllClientIDs(t *testing.T) {
	database := setupTestDBUsers(t, "testdb_user_service_clients")
	svc := NewUserService(database)
	ctx := context.Background()

	client1, err := svc.CreateUser(ctx, "C1", "c1@example.com", "swordfish99", models.RoleClient, "")
	assert.NoError(t, err)
	client2, err := svc.CreateUser(ctx, "C2", "c2@example.com", "swordfish99", models.RoleClient, "")
	assert.NoError(t, err)
	_, err = svc.CreateUser(ctx, "Editor", "e1@example.com", "swordfish99", models.RoleEditor, "")
	assert.NoError(t, err)

	ids, err := svc.GetAllClientIDs(ctx)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{client1.ID, client2.ID}, ids)
}
