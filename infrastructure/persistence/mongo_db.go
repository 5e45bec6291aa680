package persistence

import (
	"context"
	"fmt"
	"net/url"

	"playlist-service/infrastructure/configuration"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// NewMongoDb connects using cfg.URI, or a URI assembled from host/port/user/password.
func NewMongoDb(ctx context.Context, cfg configuration.Db) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(mongoURI(cfg)))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func mongoURI(cfg configuration.Db) string {
	if cfg.URI != "" {
		return cfg.URI
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == "" {
		port = "27017"
	}
	u := &url.URL{Scheme: "mongodb", Host: host + ":" + port, Path: "/"}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}
