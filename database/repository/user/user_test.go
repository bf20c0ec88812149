package userRepo

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"samayog/models"
)

func exerciseUsers(t *testing.T, repo UserRepository) {
	t.Helper()
	ctx := context.Background()
	phone := "98" + uuid.NewString()[:8]
	u := &models.User{ID: uuid.NewString(), FirstName: "Asha", LastName: "Rao", Phone: phone}

	if _, err := repo.GetByPhone(ctx, phone); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByPhone() before Create error = %v, want ErrNotFound", err)
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if u.CreatedAt.IsZero() {
		t.Error("Create() did not stamp CreatedAt")
	}

	got, err := repo.GetByPhone(ctx, phone)
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetByPhone() = %+v, %v", got, err)
	}
	got, err = repo.GetByID(ctx, u.ID)
	if err != nil || got.DisplayName() != "Asha Rao" {
		t.Fatalf("GetByID() = %+v, %v", got, err)
	}

	dup := &models.User{ID: uuid.NewString(), Phone: phone}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Create(duplicate phone) error = %v, want ErrDuplicate", err)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryUserRepo(t *testing.T) {
	exerciseUsers(t, NewMemoryUserRepo())
}

func TestMongoUserRepo(t *testing.T) {
	uri := os.Getenv("SAMAYOG_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("SAMAYOG_TEST_MONGO_URL not set")
	}
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo.Connect() error: %v", err)
	}
	defer client.Disconnect(ctx) //nolint:errcheck

	dbName := "samayog_test_" + uuid.NewString()[:8]
	defer client.Database(dbName).Drop(ctx) //nolint:errcheck

	repo, err := NewMongoUserRepo(ctx, client, dbName)
	if err != nil {
		t.Fatalf("NewMongoUserRepo() error: %v", err)
	}
	exerciseUsers(t, repo)
}
