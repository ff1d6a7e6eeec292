package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Sync     SyncConfig
	Matching MatchingConfig
}

type AppConfig struct {
	AppName     string `env:"APP_NAME" envDefault:"bizmatch"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
}

type DatabaseConfig struct {
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBName     string `env:"DB_NAME" envDefault:"bizmatch"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBSSLMode  string `env:"DB_SSL_MODE" envDefault:"disable"`

	ConnectTimeout      time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`
	PoolMaxConns        int32         `env:"DB_POOL_MAX_CONNS" envDefault:"10"`
	PoolMinConns        int32         `env:"DB_POOL_MIN_CONNS" envDefault:"0"`
	PoolMaxConnLifetime time.Duration `env:"DB_POOL_MAX_CONN_LIFETIME" envDefault:"1h"`
	PoolMaxConnIdleTime time.Duration `env:"DB_POOL_MAX_CONN_IDLE_TIME" envDefault:"30m"`
}

type RedisConfig struct {
	Host     string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string        `env:"REDIS_PORT" envDefault:"6379"`
	Password string        `env:"REDIS_PASSWORD"`
	TTL      time.Duration `env:"REDIS_TTL" envDefault:"10m"`
}

type SyncConfig struct {
	// Shared secret for the scheduled sync trigger endpoint. The endpoint
	// responds 500 when this is empty.
	Secret string `env:"SYNC_SECRET"`

	CronSpec string `env:"SYNC_CRON_SPEC" envDefault:"@every 6h"`
	Workers  int    `env:"SYNC_WORKERS" envDefault:"4"`

	MaxRetries int           `env:"SYNC_MAX_RETRIES" envDefault:"3"`
	BaseDelay  time.Duration `env:"SYNC_RETRY_BASE_DELAY" envDefault:"1s"`
	MaxDelay   time.Duration `env:"SYNC_RETRY_MAX_DELAY" envDefault:"30s"`

	BizinfoBaseURL  string `env:"BIZINFO_BASE_URL" envDefault:"https://www.bizinfo.go.kr"`
	BizinfoAPIKey   string `env:"BIZINFO_API_KEY"`
	KStartupBaseURL string `env:"KSTARTUP_BASE_URL" envDefault:"https://apis.data.go.kr/B552735/kisedKstartupService01"`
	KStartupAPIKey  string `env:"KSTARTUP_API_KEY"`
	SMESBaseURL     string `env:"SMES_BASE_URL" envDefault:"https://www.smes.go.kr"`
	SeoulBizFeedURL string `env:"SEOULBIZ_FEED_URL" envDefault:"https://www.seoulsbdc.or.kr/rss/notice.do"`
}

type MatchingConfig struct {
	DefaultMinScore   int           `env:"MATCH_MIN_SCORE" envDefault:"30"`
	DefaultMaxResults int           `env:"MATCH_MAX_RESULTS" envDefault:"50"`
	LockTTL           time.Duration `env:"MATCH_LOCK_TTL" envDefault:"30s"`
}

func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
