package persistence

import (
	"context"
	"errors"
	"testing"

	"playlist-service/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mockPlaylistCollection struct {
	mock.Mock
}

func (m *mockPlaylistCollection) FindOne(ctx context.Context, filter interface{}, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	args := m.Called(ctx, filter)
	return args.Get(0).(*mongo.SingleResult)
}

func (m *mockPlaylistCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, _ ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	args := m.Called(ctx, filter, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.UpdateResult), args.Error(1)
}

func TestPlaylistCacheRepositoryMongo_GetPlaylist(t *testing.T) {
	coll := new(mockPlaylistCollection)
	doc := playlistDocument{PlaylistID: "PL123", Items: testItems, FetchedAt: testFetchedAt}
	coll.On("FindOne", mock.Anything, bson.M{"_id": "PL123"}).
		Return(mongo.NewSingleResultFromDocument(doc, nil, bson.NewRegistry())).Once()

	rec, err := newPlaylistCacheRepositoryMongo(coll).GetPlaylist(context.Background(), "PL123")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "PL123", rec.PlaylistID)
	assert.Equal(t, testItems, rec.Items)
	assert.True(t, testFetchedAt.Equal(rec.FetchedAt))
	coll.AssertExpectations(t)
}

func TestPlaylistCacheRepositoryMongo_Miss(t *testing.T) {
	coll := new(mockPlaylistCollection)
	coll.On("FindOne", mock.Anything, bson.M{"_id": "NOPE"}).
		Return(mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, bson.NewRegistry())).Once()

	rec, err := newPlaylistCacheRepositoryMongo(coll).GetPlaylist(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPlaylistCacheRepositoryMongo_UpsertPlaylist(t *testing.T) {
	coll := new(mockPlaylistCollection)
	wantFilter := bson.M{"_id": "PL123", "fetched_at": bson.M{"$lte": testFetchedAt}}
	wantUpdate := bson.M{"$set": bson.M{"items": testItems, "fetched_at": testFetchedAt}}
	coll.On("UpdateOne", mock.Anything, wantFilter, wantUpdate).
		Return(&mongo.UpdateResult{UpsertedCount: 1}, nil).Once()

	require.NoError(t, newPlaylistCacheRepositoryMongo(coll).UpsertPlaylist(context.Background(), "PL123", testItems, testFetchedAt))
	coll.AssertExpectations(t)
}

func TestPlaylistCacheRepositoryMongo_NewerDocumentWins(t *testing.T) {
	coll := new(mockPlaylistCollection)
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	coll.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, dup).Once()

	err := newPlaylistCacheRepositoryMongo(coll).UpsertPlaylist(context.Background(), "PL123", []model.VideoItem{{ID: "old"}}, testFetchedAt)
	assert.NoError(t, err)
}

func TestPlaylistCacheRepositoryMongo_UpsertError(t *testing.T) {
	coll := new(mockPlaylistCollection)
	coll.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("no primary")).Once()

	assert.Error(t, newPlaylistCacheRepositoryMongo(coll).UpsertPlaylist(context.Background(), "PL", nil, testFetchedAt))
}

func TestPlaylistCacheRepositoryMongo_NilClient(t *testing.T) {
	repo := NewPlaylistCacheRepositoryMongo(nil, "db")
	rec, err := repo.GetPlaylist(context.Background(), "PL")
	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, repo.UpsertPlaylist(context.Background(), "PL", nil, testFetchedAt))
}
