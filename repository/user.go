package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/apperrors"
	"storefront/models"
)

const (
	userNotFound     = "User not found"
	userExists       = "User already exists"
	invalidVerifyTok = "Invalid or expired verification token"
)

type UserRepository struct {
	base
}

func NewUserRepository(db *mongo.Database, timeout time.Duration) *UserRepository {
	return &UserRepository{base: newBase(db, UsersCollection, timeout)}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = normalizeEmail(u.Email)
	_, err := r.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.Conflict(userExists)
	}
	return mapErr(err, userNotFound, "create user")
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, userNotFound)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)}, userNotFound)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, notFound string) (*models.User, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, mapErr(err, notFound, "find user")
	}
	return &u, nil
}

// Verify marks the owner of token as verified and clears the token.
func (r *UserRepository) Verify(ctx context.Context, token string) (*models.User, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"verificationToken": token},
		bson.M{"$set": bson.M{"isVerified": true}, "$unset": bson.M{"verificationToken": ""}},
		opts,
	).Decode(&u)
	if err != nil {
		return nil, mapErr(err, invalidVerifyTok, "verify user")
	}
	return &u, nil
}

// UpsertAdmin creates or promotes the admin account with the given email.
func (r *UserRepository) UpsertAdmin(ctx context.Context, name, email, passwordHash string) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"email": normalizeEmail(email)},
		bson.M{
			"$set": bson.M{"name": name, "password": passwordHash, "role": models.RoleAdmin, "isVerified": true},
			"$setOnInsert": bson.M{
				"createdAt": time.Now().UTC(),
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return apperrors.Wrap(err, "upsert admin")
	}
	return nil
}
