package configuration

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"playlist-service/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Dynamo      Dynamo      `json:"dynamo"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Logger      Logger      `json:"logger"`
	YouTube     YouTube     `json:"youtube"`
	Playlist    Playlist    `json:"playlist"`
	Cache       Cache       `json:"cache"`
}

type App struct {
	Port         int      `json:"port"`
	TLSEnabled   bool     `json:"tlsEnabled"`
	TLSCertFile  string   `json:"tlsCertFile"`
	TLSKeyFile   string   `json:"tlsKeyFile"`
	AllowOrigins []string `json:"allowOrigins"`
}

type Database struct {
	Psql  Db `json:"psql"`
	MySql Db `json:"mysql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	URI      string `json:"uri"`
}

type RedisClient struct {
	Host     string        `json:"host"`
	Port     string        `json:"port"`
	Password string        `json:"password"`
	Username string        `json:"username"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"`
}

type Dynamo struct {
	Table           string `json:"table"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace        string `json:"namespace"`
	ConnectionString string `json:"connectionString"`
	Queue            string `json:"queue"`
}

type Logger struct {
	Format string `json:"format"`
	Level  string `json:"level"`
}

type YouTube struct {
	APIKeys        []string      `json:"apiKeys"`
	APIKey         string        `json:"apiKey"`
	Client         string        `json:"client"`
	BaseURL        string        `json:"baseURL"`
	RequestTimeout time.Duration `json:"requestTimeout"`
}

// Playlist holds the ingestion tuning knobs.
type Playlist struct {
	FreshnessWindow     time.Duration `json:"freshnessWindow"`
	MaxPages            int           `json:"maxPages"`
	PageDelay           time.Duration `json:"pageDelay"`
	PageSize            int64         `json:"pageSize"`
	PlaceholderDuration string        `json:"placeholderDuration"`
	PublishTimeout      time.Duration `json:"publishTimeout"`
}

type Cache struct {
	Driver string `json:"driver"`
}

const (
	CacheDriverMemory   = "memory"
	CacheDriverPostgres = "postgres"
	CacheDriverMssql    = "mssql"
	CacheDriverMysql    = "mysql"
	CacheDriverMongo    = "mongo"
	CacheDriverRedis    = "redis"
	CacheDriverDynamo   = "dynamodb"
)

var ErrNoAPIKeys = errors.New("no YouTube API keys configured (set YOUTUBE_API_KEYS)")

var C Config

func init() {
	LoadEnvFiles("config.env", ".env")
	LoadConfig()
}

// LoadConfig populates C, logging instead of failing so tests can import the package.
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
	C = cfg
	logger.Configure(C.Logger.Format, C.Logger.Level, os.Getenv("ENV"))
}

// Load reads config[-ENV].json when present and overlays environment variables.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	name := getConfig()
	v.SetConfigName(name)
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("../")
	v.AddConfigPath("../../")
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logger.GetLogger().WithField("config", name).Debug("Config file not found, using environment")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	initYouTube(&cfg)
	initApp(&cfg)
	initPlaylist(&cfg)
	return cfg, nil
}

// Validate reports configuration that makes the service unable to start.
func (c *Config) Validate() error {
	if len(c.YouTube.APIKeys) == 0 {
		return ErrNoAPIKeys
	}
	switch c.Cache.Driver {
	case CacheDriverMemory, CacheDriverPostgres, CacheDriverMssql, CacheDriverMysql,
		CacheDriverMongo, CacheDriverRedis, CacheDriverDynamo:
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	return nil
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", 10001)
	v.SetDefault("cache.driver", CacheDriverMemory)
	v.SetDefault("youtube.client", "rest")
	v.SetDefault("youtube.baseURL", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("youtube.requestTimeout", 10*time.Second)
	v.SetDefault("playlist.freshnessWindow", 24*time.Hour)
	v.SetDefault("playlist.maxPages", 10)
	v.SetDefault("playlist.pageDelay", 100*time.Millisecond)
	v.SetDefault("playlist.pageSize", 50)
	v.SetDefault("playlist.placeholderDuration", "10:00")
	v.SetDefault("playlist.publishTimeout", 5*time.Second)
	v.SetDefault("redisClient.port", "6379")
	v.SetDefault("dynamo.table", "playlist_cache")
	v.SetDefault("pubsub.topic", "playlist-refreshed")
	v.SetDefault("serviceBus.queue", "playlist-refreshed")
	v.SetDefault("database.mssql.port", "1433")
	v.SetDefault("database.psql.port", "5432")
	v.SetDefault("database.mysql.port", "3306")
	v.SetDefault("database.mongo.name", "playlist_service")
}

var envBindings = map[string][]string{
	"app.port":        {"APP_PORT", "PORT"},
	"app.tlsEnabled":  {"TLS_ENABLED"},
	"app.tlsCertFile": {"TLS_CERT_FILE"},
	"app.tlsKeyFile":  {"TLS_KEY_FILE"},

	"database.psql.name":      {"DB_NAME"},
	"database.psql.host":      {"DB_HOST"},
	"database.psql.port":      {"DB_PORT"},
	"database.psql.user":      {"DB_USER"},
	"database.psql.password":  {"DB_PASSWORD"},
	"database.mssql.name":     {"MSSQL_DB_NAME"},
	"database.mssql.host":     {"MSSQL_HOST"},
	"database.mssql.port":     {"MSSQL_PORT"},
	"database.mssql.user":     {"MSSQL_USER"},
	"database.mssql.password": {"MSSQL_PASSWORD"},
	"database.mysql.name":     {"MYSQL_DB_NAME"},
	"database.mysql.host":     {"MYSQL_HOST"},
	"database.mysql.port":     {"MYSQL_PORT"},
	"database.mysql.user":     {"MYSQL_USER"},
	"database.mysql.password": {"MYSQL_PASSWORD"},
	"database.mongo.uri":      {"MONGO_URI"},
	"database.mongo.name":     {"MONGO_DB_NAME"},

	"redisClient.host":     {"REDIS_HOST"},
	"redisClient.port":     {"REDIS_PORT"},
	"redisClient.password": {"REDIS_PASSWORD"},
	"redisClient.username": {"REDIS_USERNAME"},
	"redisClient.db":       {"REDIS_DB"},
	"redisClient.ttl":      {"REDIS_TTL"},

	"dynamo.table":           {"DYNAMODB_TABLE"},
	"dynamo.region":          {"AWS_REGION"},
	"dynamo.endpoint":        {"DYNAMODB_ENDPOINT"},
	"dynamo.accessKeyId":     {"AWS_ACCESS_KEY_ID"},
	"dynamo.secretAccessKey": {"AWS_SECRET_ACCESS_KEY"},

	"pubsub.projectID":            {"EVENTS_PUBSUB_PROJECT", "PUBSUB_PROJECT_ID"},
	"pubsub.topic":                {"EVENTS_PUBSUB_TOPIC"},
	"serviceBus.namespace":        {"EVENTS_SERVICEBUS_NAMESPACE"},
	"serviceBus.connectionString": {"EVENTS_SERVICEBUS_CONNECTION_STRING"},
	"serviceBus.queue":            {"EVENTS_SERVICEBUS_QUEUE"},

	"logger.format": {"LOG_FORMAT"},
	"logger.level":  {"LOG_LEVEL"},

	"youtube.apiKey":         {"YOUTUBE_API_KEY"},
	"youtube.client":         {"YOUTUBE_CLIENT"},
	"youtube.baseURL":        {"YOUTUBE_BASE_URL"},
	"youtube.requestTimeout": {"YOUTUBE_REQUEST_TIMEOUT"},

	"playlist.freshnessWindow":     {"PLAYLIST_FRESHNESS_WINDOW"},
	"playlist.maxPages":            {"PLAYLIST_MAX_PAGES"},
	"playlist.pageDelay":           {"PLAYLIST_PAGE_DELAY"},
	"playlist.pageSize":            {"PLAYLIST_PAGE_SIZE"},
	"playlist.placeholderDuration": {"PLAYLIST_PLACEHOLDER_DURATION"},
	"playlist.publishTimeout":      {"PLAYLIST_PUBLISH_TIMEOUT"},

	"cache.driver": {"CACHE_DRIVER"},
}

func bindEnv(v *viper.Viper) {
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			logger.GetLogger().WithField("key", key).WithField("error", err).Warn("failed binding env")
		}
	}
}

func initApp(C *Config) {
	// CORS_ALLOW_ORIGINS is comma separated; "*" allows any origin.
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		C.App.AllowOrigins = splitList(v)
	}
	if len(C.App.AllowOrigins) == 0 {
		C.App.AllowOrigins = []string{"*"}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	// Prefer local certs if TLS enabled and paths not provided
	if C.App.TLSEnabled {
		if C.App.TLSCertFile == "" {
			if _, err := os.Stat("certs/localhost.crt"); err == nil {
				C.App.TLSCertFile = "certs/localhost.crt"
			}
		}
		if C.App.TLSKeyFile == "" {
			if _, err := os.Stat("certs/localhost.key"); err == nil {
				C.App.TLSKeyFile = "certs/localhost.key"
			}
		}
	}
}

func initPlaylist(C *Config) {
	p := &C.Playlist
	if p.FreshnessWindow <= 0 {
		p.FreshnessWindow = 24 * time.Hour
	}
	if p.MaxPages <= 0 {
		p.MaxPages = 10
	}
	if p.PageDelay < 0 {
		p.PageDelay = 0
	}
	// playlistItems.list accepts at most 50 results per page.
	if p.PageSize <= 0 || p.PageSize > 50 {
		p.PageSize = 50
	}
	if p.PlaceholderDuration == "" {
		p.PlaceholderDuration = "10:00"
	}
	if p.PublishTimeout <= 0 {
		p.PublishTimeout = 5 * time.Second
	}
	C.Cache.Driver = strings.ToLower(strings.TrimSpace(C.Cache.Driver))
	if C.Cache.Driver == "" {
		C.Cache.Driver = CacheDriverMemory
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
