package config

import (
	"errors"

	"nebulavault/internal/storage/blob"
	"nebulavault/pkg/database/postgres"
	"nebulavault/pkg/database/redis"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPPort  string `env:"HTTP_PORT" env-default:"8080"`
	JWTSecret string `env:"JWT_SECRET"`

	// AdminIdentity is the single privileged principal: it may pause the
	// system, change fees, quotas and thresholds, and suspend users.
	AdminIdentity string `env:"ADMIN_IDENTITY" env-default:"admin"`
	AdminSecret   string `env:"ADMIN_SECRET"`

	DefaultQuota          uint64 `env:"DEFAULT_QUOTA_BYTES" env-default:"1073741824"`
	MaxQuota              uint64 `env:"MAX_QUOTA_BYTES" env-default:"10737418240"`
	StorageFee            uint64 `env:"STORAGE_FEE" env-default:"1000"`
	VerificationThreshold uint64 `env:"VERIFICATION_THRESHOLD" env-default:"3"`
	ChunkSize             int    `env:"CHUNK_SIZE_BYTES" env-default:"32768"`

	Postgres postgres.Config
	Redis    redis.Config
	Blob     blob.Config
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(".env", &cfg); err != nil {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, errors.New("cannot read vault config")
		}
	}
	return &cfg, nil
}
