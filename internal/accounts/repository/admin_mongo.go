package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	accountserrors "hotelbooking/internal/accounts/errors"
	"hotelbooking/pkg/config"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const adminsSequence = "admins"

type mongoAdminRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoAdminRepository(db *mongo.Database, cfg *config.Config) AdminRepository {
	return &mongoAdminRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(mongotx.AdminsCollection),
	}
}

func (r *mongoAdminRepository) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	return r.findOne(ctx, bson.M{"username": strings.ToLower(username)})
}

func (r *mongoAdminRepository) FindByID(ctx context.Context, id int64) (*model.Admin, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoAdminRepository) findOne(ctx context.Context, filter bson.M) (*model.Admin, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var admin model.Admin
	if err := r.collection.FindOne(ctx, filter).Decode(&admin); err != nil {
		if mongotx.IsNoDocuments(err) {
			return nil, accountserrors.ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	return &admin, nil
}

func (r *mongoAdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	id, err := mongotx.NextID(ctx, r.db, adminsSequence)
	if err != nil {
		return err
	}
	admin.ID = id
	admin.Username = strings.ToLower(admin.Username)
	admin.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, admin); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return accountserrors.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (r *mongoAdminRepository) TouchLastLogin(ctx context.Context, id int64) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"last_login_at": time.Now().UTC().Truncate(time.Millisecond)},
	})
	if err != nil {
		return fmt.Errorf("failed to record admin login: %w", err)
	}
	return nil
}
