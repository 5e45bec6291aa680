package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playlist-service/domain/repository"
	"playlist-service/infrastructure/cache"
	youtubeclient "playlist-service/infrastructure/clients/youtube"
	"playlist-service/infrastructure/configuration"
	"playlist-service/infrastructure/keypool"
	"playlist-service/infrastructure/logger"
	"playlist-service/infrastructure/persistence"
	"playlist-service/infrastructure/pubsub"
	"playlist-service/infrastructure/realtime"
	"playlist-service/infrastructure/servicebus"
	httpHandler "playlist-service/interfaces/http"
	"playlist-service/server"
	"playlist-service/usecase"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	cfg := configuration.C
	if err := cfg.Validate(); err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Invalid configuration")
	}
	if os.Getenv("ENV") == "production" || os.Getenv("ENV") == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	keys, err := keypool.NewKeyRotator(cfg.YouTube.APIKeys)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Cannot build API key pool")
	}

	playlistCache, closeCache, err := InitiatePlaylistCache(ctx, cfg)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("driver", cfg.Cache.Driver).Fatal("Cannot initialize playlist cache")
	}
	defer closeCache()

	source := InitiatePlaylistSource(cfg)
	hub := realtime.NewRefreshHub()
	events, closeEvents := InitiateEvents(ctx, cfg)
	defer closeEvents()

	playlistUC := usecase.NewPlaylistUseCase(source, keys, playlistCache, usecase.PlaylistConfig{
		FreshnessWindow:     cfg.Playlist.FreshnessWindow,
		MaxPages:            cfg.Playlist.MaxPages,
		PageDelay:           cfg.Playlist.PageDelay,
		PlaceholderDuration: cfg.Playlist.PlaceholderDuration,
		PublishTimeout:      cfg.Playlist.PublishTimeout,
	}).WithEvents(append(events, hub)...)

	playlistHandler := httpHandler.NewPlaylistHandler(playlistUC, httpHandler.HealthInfo{
		CacheDriver: cfg.Cache.Driver,
		APIKeys:     keys.Len(),
		Client:      cfg.YouTube.Client,
	})
	router := server.InitiateRouter(playlistHandler, hub.Serve, cfg.App.AllowOrigins)

	logger.GetLogger().WithFields(map[string]interface{}{
		"cacheDriver":     cfg.Cache.Driver,
		"client":          cfg.YouTube.Client,
		"apiKeys":         keys.Len(),
		"freshnessWindow": cfg.Playlist.FreshnessWindow.String(),
		"maxPages":        cfg.Playlist.MaxPages,
		"events":          len(events),
	}).Info("Playlist service initialized")

	g, ctx := errgroup.WithContext(ctx)

	app := cfg.App
	logger.GetLogger().WithFields(map[string]interface{}{"port": app.Port, "tls": app.TLSEnabled}).Info("Starting application")
	httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		var err error
		if app.TLSEnabled && app.TLSCertFile != "" && app.TLSKeyFile != "" {
			logger.GetLogger().WithFields(map[string]interface{}{"cert": app.TLSCertFile, "key": app.TLSKeyFile}).Info("Serving HTTPS")
			err = httpServer.ListenAndServeTLS(app.TLSCertFile, app.TLSKeyFile)
		} else {
			if app.TLSEnabled {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			}
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	// Brokers are closed by the deferred calls; let queued refresh events go out first.
	playlistUC.WaitEvents()

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		closeEvents()
		closeCache()
		os.Exit(2)
	}
}

// InitiatePlaylistCache opens the store selected by cache.driver. The returned func releases it.
func InitiatePlaylistCache(ctx context.Context, cfg configuration.Config) (repository.IPlaylistCache, func(), error) {
	noop := func() {}
	lg := logger.GetLogger().WithField("driver", cfg.Cache.Driver)

	switch cfg.Cache.Driver {
	case configuration.CacheDriverPostgres:
		db, err := persistence.NewPostgreSQLDB(cfg.Database.Psql)
		if err != nil {
			return nil, noop, err
		}
		if err := persistence.EnsurePlaylistCacheSchema(db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		lg.Info("PostgreSQL playlist cache ready")
		return persistence.NewPlaylistCacheRepository(db), func() { _ = db.Close() }, nil

	case configuration.CacheDriverMssql:
		db, err := persistence.NewMSSQLDB(cfg.Database.Mssql)
		if err != nil {
			return nil, noop, err
		}
		if err := persistence.EnsurePlaylistCacheSchemaMSSQL(db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		lg.Info("MSSQL playlist cache ready")
		return persistence.NewPlaylistCacheRepositoryMSSQL(db), func() { _ = db.Close() }, nil

	case configuration.CacheDriverMysql:
		db, err := persistence.NewMySQLGorm(cfg.Database.MySql)
		if err != nil {
			return nil, noop, err
		}
		repo, closeFn, err := persistence.OpenPlaylistCacheGorm(db)
		if err != nil {
			return nil, noop, err
		}
		lg.Info("MySQL playlist cache ready")
		return repo, closeFn, nil

	case configuration.CacheDriverMongo:
		client, err := persistence.NewMongoDb(ctx, cfg.Database.Mongo)
		if err != nil {
			return nil, noop, err
		}
		lg.Info("MongoDB playlist cache ready")
		return persistence.NewPlaylistCacheRepositoryMongo(client, cfg.Database.Mongo.Name), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.GetLogger().WithField("error", err).Error("Error while disconnecting MongoDB")
			}
		}, nil

	case configuration.CacheDriverRedis:
		rc := cfg.RedisClient
		client, err := cache.NewCache(ctx, fmt.Sprintf("%s:%s", rc.Host, rc.Port), rc.Username, rc.Password, rc.DB)
		if err != nil {
			return nil, noop, err
		}
		lg.Info("Redis playlist cache ready")
		return cache.NewRedisPlaylistCache(client, rc.TTL), func() { _ = client.Close() }, nil

	case configuration.CacheDriverDynamo:
		client, err := persistence.NewDynamoClient(ctx, cfg.Dynamo)
		if err != nil {
			return nil, noop, err
		}
		repo := persistence.NewPlaylistCacheRepositoryDynamo(client, cfg.Dynamo.Table)
		if err := repo.CreateTableIfNotExists(ctx); err != nil {
			return nil, noop, err
		}
		lg.Info("DynamoDB playlist cache ready")
		return repo, noop, nil
	}

	lg.Info("In-process playlist cache ready")
	return cache.NewMemoryPlaylistCache(), noop, nil
}

// InitiatePlaylistSource picks the hand-rolled REST client or the generated SDK client.
func InitiatePlaylistSource(cfg configuration.Config) repository.IPlaylistSource {
	clientCfg := &youtubeclient.Config{
		BaseURL:  cfg.YouTube.BaseURL,
		PageSize: cfg.Playlist.PageSize,
		Timeout:  cfg.YouTube.RequestTimeout,
	}
	if cfg.YouTube.Client == configuration.YouTubeClientSDK {
		return youtubeclient.NewYouTubeClient(clientCfg)
	}
	return youtubeclient.NewRestClient(clientCfg, nil)
}

// InitiateEvents connects the optional brokers. A broker that cannot be reached is skipped.
func InitiateEvents(ctx context.Context, cfg configuration.Config) ([]repository.IPlaylistEvents, func()) {
	var (
		events  []repository.IPlaylistEvents
		closers []func()
	)

	if cfg.Pubsub.ProjectID != "" {
		client, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("PubSub not available - continuing without refresh events")
		} else {
			pub := pubsub.NewPlaylistEventPublisher(client, cfg.Pubsub.Topic)
			events = append(events, pub)
			closers = append(closers, func() {
				pub.Close()
				_ = client.Close()
			})
		}
	}

	if cfg.ServiceBus.ConnectionString != "" || cfg.ServiceBus.Namespace != "" {
		client, err := servicebus.NewServiceBus(cfg.ServiceBus)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without refresh events")
		} else if pub, err := servicebus.NewPlaylistEventPublisher(client, cfg.ServiceBus.Queue); err != nil {
			_ = client.Close(ctx)
		} else {
			events = append(events, pub)
			closers = append(closers, func() {
				pub.Close(context.Background())
				_ = client.Close(context.Background())
			})
		}
	}

	var closed bool
	return events, func() {
		if closed {
			return
		}
		closed = true
		for _, c := range closers {
			c()
		}
	}
}
