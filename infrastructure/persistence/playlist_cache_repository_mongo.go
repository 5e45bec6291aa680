package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playlist-service/domain/model"
	"playlist-service/domain/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const playlistCollectionName = "playlist_cache"

// playlistCollection is the subset of *mongo.Collection the repository uses.
type playlistCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
}

type playlistDocument struct {
	PlaylistID string            `bson:"_id"`
	Items      []model.VideoItem `bson:"items"`
	FetchedAt  time.Time         `bson:"fetched_at"`
}

// PlaylistCacheRepositoryMongo keeps one document per playlist keyed by _id.
type PlaylistCacheRepositoryMongo struct {
	coll playlistCollection
}

var _ repository.IPlaylistCache = (*PlaylistCacheRepositoryMongo)(nil)

func NewPlaylistCacheRepositoryMongo(client *mongo.Client, database string) *PlaylistCacheRepositoryMongo {
	if client == nil {
		return &PlaylistCacheRepositoryMongo{}
	}
	return &PlaylistCacheRepositoryMongo{coll: client.Database(database).Collection(playlistCollectionName)}
}

func newPlaylistCacheRepositoryMongo(coll playlistCollection) *PlaylistCacheRepositoryMongo {
	return &PlaylistCacheRepositoryMongo{coll: coll}
}

func (r *PlaylistCacheRepositoryMongo) GetPlaylist(ctx context.Context, playlistID string) (*model.CacheRecord, error) {
	if r.coll == nil {
		return nil, nil
	}
	var doc playlistDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": playlistID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongo find playlist: %w", err)
	}
	return &model.CacheRecord{PlaylistID: doc.PlaylistID, Items: doc.Items, FetchedAt: doc.FetchedAt.UTC()}, nil
}

// UpsertPlaylist matches only documents that are not newer than fetchedAt. When a newer
// document exists the filter misses, the upsert collides on _id, and the write is dropped.
func (r *PlaylistCacheRepositoryMongo) UpsertPlaylist(ctx context.Context, playlistID string, items []model.VideoItem, fetchedAt time.Time) error {
	if r.coll == nil {
		return nil
	}
	if items == nil {
		items = []model.VideoItem{}
	}
	filter := bson.M{"_id": playlistID, "fetched_at": bson.M{"$lte": fetchedAt.UTC()}}
	update := bson.M{"$set": bson.M{"items": items, "fetched_at": fetchedAt.UTC()}}
	_, err := r.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("mongo upsert playlist: %w", err)
	}
	return nil
}
