package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"auction_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"auction_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"vehicle_auction_db"`

	RedisEventsHost string `env:"REDIS_EVENTS_HOST" envDefault:"localhost"`
	RedisEventsPort uint16 `env:"REDIS_EVENTS_PORT" envDefault:"6379" validate:"min=1000,max=65535"`

	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`

	// Bidding rules. A zero increment means any strictly higher amount is
	// acceptable; "ladder" switches to the price-tiered schedule.
	BidMinIncrement    float64 `env:"BID_MIN_INCREMENT"     envDefault:"0" validate:"min=0"`
	BidIncrementPolicy string  `env:"BID_INCREMENT_POLICY"  envDefault:"fixed" validate:"oneof=fixed ladder"`

	// Anti-snipe defaults applied to auctions created without overrides.
	AntiSnipeTriggerMinutes   int `env:"ANTISNIPE_TRIGGER_MINUTES"   envDefault:"5"  validate:"min=0"`
	AntiSnipeExtensionMinutes int `env:"ANTISNIPE_EXTENSION_MINUTES" envDefault:"10" validate:"min=0"`
	AntiSnipeMaxExtensions    int `env:"ANTISNIPE_MAX_EXTENSIONS"    envDefault:"3"  validate:"min=0"`

	LifecycleTickInterval time.Duration `env:"LIFECYCLE_TICK_INTERVAL" envDefault:"1m"`
	AutoBidTickInterval   time.Duration `env:"AUTOBID_TICK_INTERVAL"   envDefault:"10s"`

	VehicleCacheSize int `env:"VEHICLE_CACHE_SIZE" envDefault:"512" validate:"min=1"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
