package persistent

import (
	"context"
	"fmt"
	"time"

	"vidtube/services/user/internal/entity"
	"vidtube/services/user/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoContentRepository struct {
	db  *mongo.Database
	now func() time.Time
}

func NewMongoContentRepository(db *mongo.Database) ContentRepository {
	return &mongoContentRepository{db: db, now: time.Now}
}

func (r *mongoContentRepository) CreateVideo(ctx context.Context, video *entity.Video) error {
	owner, err := primitive.ObjectIDFromHex(video.OwnerID)
	if err != nil {
		return fmt.Errorf("invalid owner id %q: %w", video.OwnerID, err)
	}

	now := r.now()
	videoModel := &model.VideoModel{
		ID:          primitive.NewObjectID(),
		Owner:       owner,
		VideoFile:   video.VideoFile,
		Thumbnail:   video.Thumbnail,
		Title:       video.Title,
		Description: video.Description,
		Duration:    video.Duration,
		Views:       video.Views,
		IsPublished: video.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.db.Collection(model.VideosCollection).InsertOne(ctx, videoModel); err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	video.ID = videoModel.ID.Hex()
	video.CreatedAt = now
	video.UpdatedAt = now
	return nil
}

// Subscribe is idempotent: an existing edge is left as is.
func (r *mongoContentRepository) Subscribe(ctx context.Context, subscriberID, channelID string) error {
	subscriber, err := primitive.ObjectIDFromHex(subscriberID)
	if err != nil {
		return fmt.Errorf("invalid subscriber id %q: %w", subscriberID, err)
	}
	channel, err := primitive.ObjectIDFromHex(channelID)
	if err != nil {
		return fmt.Errorf("invalid channel id %q: %w", channelID, err)
	}

	now := r.now()
	_, err = r.db.Collection(model.SubscriptionsCollection).UpdateOne(ctx,
		bson.M{"subscriber": subscriber, "channel": channel},
		bson.M{
			"$setOnInsert": bson.M{"createdAt": now},
			"$set":         bson.M{"updatedAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}

func (r *mongoContentRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	user, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}
	video, err := primitive.ObjectIDFromHex(videoID)
	if err != nil {
		return fmt.Errorf("invalid video id %q: %w", videoID, err)
	}

	result, err := r.db.Collection(model.UsersCollection).UpdateOne(ctx,
		bson.M{"_id": user},
		bson.M{
			"$push": bson.M{"watchHistory": video},
			"$set":  bson.M{"updatedAt": r.now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to append watch history: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
