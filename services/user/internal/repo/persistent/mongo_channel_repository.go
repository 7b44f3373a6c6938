package persistent

import (
	"context"
	"fmt"

	"vidtube/services/user/internal/entity"
	"vidtube/services/user/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoChannelRepository struct {
	users *mongo.Collection
}

func NewMongoChannelRepository(db *mongo.Database) ChannelRepository {
	return &mongoChannelRepository{users: db.Collection(model.UsersCollection)}
}

func (r *mongoChannelRepository) GetChannelProfile(ctx context.Context, username, viewerID string) (*entity.Channel, error) {
	cursor, err := r.users.Aggregate(ctx, channelProfilePipeline(username, viewerID))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate channel profile: %w", err)
	}
	defer cursor.Close(ctx)

	var channels []model.ChannelModel
	if err := cursor.All(ctx, &channels); err != nil {
		return nil, fmt.Errorf("failed to decode channel profile: %w", err)
	}
	if len(channels) == 0 {
		return nil, ErrNotFound
	}
	return ToChannelEntity(&channels[0]), nil
}

func (r *mongoChannelRepository) GetWatchHistory(ctx context.Context, userID string) ([]entity.WatchedVideo, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}

	cursor, err := r.users.Aggregate(ctx, watchHistoryPipeline(oid))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate watch history: %w", err)
	}
	defer cursor.Close(ctx)

	var results []model.WatchHistoryModel
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode watch history: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	ids := make([]string, len(results[0].WatchHistory))
	for i, id := range results[0].WatchHistory {
		ids[i] = id.Hex()
	}
	videos := make([]entity.WatchedVideo, len(results[0].Videos))
	for i := range results[0].Videos {
		videos[i] = ToWatchedVideoEntity(&results[0].Videos[i])
	}
	return OrderWatchHistory(ids, videos), nil
}

func channelProfilePipeline(username, viewerID string) mongo.Pipeline {
	isSubscribed := bson.M{"$literal": false}
	if viewer, err := primitive.ObjectIDFromHex(viewerID); err == nil {
		isSubscribed = bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}}
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         model.SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         model.SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscribersCount":          bson.M{"$size": "$subscribers"},
			"channelsSubscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed":              isSubscribed,
		}}},
		{{Key: "$project", Value: bson.M{
			"fullName":                  1,
			"username":                  1,
			"email":                     1,
			"avatar":                    1,
			"coverImage":                1,
			"subscribersCount":          1,
			"channelsSubscribedToCount": 1,
			"isSubscribed":              1,
		}}},
		{{Key: "$limit", Value: 1}},
	}
}

func watchHistoryPipeline(userID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         model.VideosCollection,
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "videos",
			"pipeline": bson.A{
				bson.M{"$lookup": bson.M{
					"from":         model.UsersCollection,
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owner",
					"pipeline": bson.A{
						bson.M{"$project": bson.M{"fullName": 1, "username": 1, "avatar": 1}},
					},
				}},
				bson.M{"$addFields": bson.M{"owner": bson.M{"$first": "$owner"}}},
			},
		}}},
		{{Key: "$project", Value: bson.M{"watchHistory": 1, "videos": 1}}},
	}
}
