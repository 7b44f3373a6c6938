package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidtube/services/user/internal/entity"
	"vidtube/services/user/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoUserRepository struct {
	users *mongo.Collection
	now   func() time.Time
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		users: db.Collection(model.UsersCollection),
		now:   time.Now,
	}
}

// EnsureMongoIndexes creates the unique and lookup indexes the repositories
// rely on. It is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(model.UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "fullName", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = db.Collection(model.SubscriptionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "channel", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription indexes: %w", err)
	}

	_, err = db.Collection(model.VideosCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create video indexes: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) Create(ctx context.Context, user *entity.User) error {
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	userModel, err := ToUserModel(user)
	if err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}
	userModel.ID = primitive.NewObjectID()

	if _, err := r.users.InsertOne(ctx, userModel); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	*user = *ToUserEntity(userModel)
	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoUserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*entity.User, error) {
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if len(or) == 0 {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"$or": or})
}

func (r *mongoUserRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (*entity.User, error) {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		"fullName":  fullName,
		"email":     email,
		"updatedAt": r.now(),
	}})
}

func (r *mongoUserRepository) UpdateImage(ctx context.Context, id string, slot entity.ImageSlot, url, assetID string) (*entity.User, error) {
	set := bson.M{"updatedAt": r.now()}
	switch slot {
	case entity.ImageAvatar:
		set["avatar"] = url
		set["avatarAssetId"] = assetID
	case entity.ImageCover:
		set["coverImage"] = url
		set["coverAssetId"] = assetID
	default:
		return nil, fmt.Errorf("unknown image slot %q", slot)
	}
	return r.updateOne(ctx, id, bson.M{"$set": set})
}

func (r *mongoUserRepository) SetPassword(ctx context.Context, id, hash string) error {
	_, err := r.updateOne(ctx, id, bson.M{"$set": bson.M{"password": hash, "updatedAt": r.now()}})
	return err
}

func (r *mongoUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	update := bson.M{"$set": bson.M{"refreshToken": token, "updatedAt": r.now()}}
	if token == "" {
		update = bson.M{
			"$unset": bson.M{"refreshToken": ""},
			"$set":   bson.M{"updatedAt": r.now()},
		}
	}
	_, err := r.updateOne(ctx, id, update)
	return err
}

func (r *mongoUserRepository) RotateRefreshToken(ctx context.Context, id, current, next string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil || current == "" {
		return false, nil
	}

	result, err := r.users.UpdateOne(ctx,
		bson.M{"_id": oid, "refreshToken": current},
		bson.M{"$set": bson.M{"refreshToken": next, "updatedAt": r.now()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return result.MatchedCount == 1, nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	var userModel model.UserModel
	if err := r.users.FindOne(ctx, filter).Decode(&userModel); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return ToUserEntity(&userModel), nil
}

func (r *mongoUserRepository) updateOne(ctx context.Context, id string, update bson.M) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	result := r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	var userModel model.UserModel
	if err := result.Decode(&userModel); err != nil {
		return nil, fmt.Errorf("failed to decode updated user: %w", err)
	}
	return ToUserEntity(&userModel), nil
}
