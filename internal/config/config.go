package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Media     MediaConfig
	Engine    EngineConfig
	ViewCount ViewCountConfig
	R2        R2Config
	Mail      MailConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	UploadPerHour  int
	WatchPerMin    int
	CommentPerMin  int
	PublishPerHour int
}

// StorageConfig locates the on-disk workspace tree. Workspaces live at
// {WorkDir}/{location}/{workspaceId}/metadata.json.
type StorageConfig struct {
	WorkDir string
}

type MediaConfig struct {
	FFmpegPath  string
	FFprobePath string
	PosterSize  string // WxH passed to the scale filter
}

type EngineConfig struct {
	TickInterval time.Duration
}

type ViewCountConfig struct {
	FlushThreshold int
	FlushJitter    int
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type MailConfig struct {
	ServiceURL string
	Timeout    int // seconds
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("storage.work_dir", "STORAGE_WORK_DIR")
	_ = viper.BindEnv("media.ffmpeg_path", "FFMPEG_PATH")
	_ = viper.BindEnv("media.ffprobe_path", "FFPROBE_PATH")
	_ = viper.BindEnv("media.poster_size", "POSTER_SIZE")
	_ = viper.BindEnv("engine.tick_interval_ms", "ENGINE_TICK_INTERVAL_MS")
	_ = viper.BindEnv("viewcount.flush_threshold", "VIEWCOUNT_FLUSH_THRESHOLD")
	_ = viper.BindEnv("viewcount.flush_jitter", "VIEWCOUNT_FLUSH_JITTER")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("mail.service_url", "MAIL_SERVICE_URL")
	_ = viper.BindEnv("mail.timeout", "MAIL_SERVICE_TIMEOUT")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.upload_per_hour", 20)
	viper.SetDefault("ratelimit.watch_per_min", 120)
	viper.SetDefault("ratelimit.comment_per_min", 10)
	viper.SetDefault("ratelimit.publish_per_hour", 30)
	viper.SetDefault("storage.work_dir", "./data")
	viper.SetDefault("media.ffmpeg_path", "ffmpeg")
	viper.SetDefault("media.ffprobe_path", "ffprobe")
	viper.SetDefault("media.poster_size", "640x360")
	viper.SetDefault("engine.tick_interval_ms", 1000)
	viper.SetDefault("viewcount.flush_threshold", 50)
	viper.SetDefault("viewcount.flush_jitter", 10)
	viper.SetDefault("mail.service_url", "")
	viper.SetDefault("mail.timeout", 30)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			UploadPerHour:  viper.GetInt("ratelimit.upload_per_hour"),
			WatchPerMin:    viper.GetInt("ratelimit.watch_per_min"),
			CommentPerMin:  viper.GetInt("ratelimit.comment_per_min"),
			PublishPerHour: viper.GetInt("ratelimit.publish_per_hour"),
		},
		Storage: StorageConfig{
			WorkDir: viper.GetString("storage.work_dir"),
		},
		Media: MediaConfig{
			FFmpegPath:  viper.GetString("media.ffmpeg_path"),
			FFprobePath: viper.GetString("media.ffprobe_path"),
			PosterSize:  viper.GetString("media.poster_size"),
		},
		Engine: EngineConfig{
			TickInterval: time.Duration(viper.GetInt("engine.tick_interval_ms")) * time.Millisecond,
		},
		ViewCount: ViewCountConfig{
			FlushThreshold: viper.GetInt("viewcount.flush_threshold"),
			FlushJitter:    viper.GetInt("viewcount.flush_jitter"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		Mail: MailConfig{
			ServiceURL: viper.GetString("mail.service_url"),
			Timeout:    viper.GetInt("mail.timeout"),
		},
	}

	return cfg, nil
}
