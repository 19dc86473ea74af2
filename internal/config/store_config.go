package config

import "time"

type StoreConfig interface {
	GetDatabaseURL() string
	GetDBMaxConns() int32
	GetDBMinConns() int32
	GetDBAutoMigrate() bool
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetProfileCacheTTL() time.Duration
}

type Store struct {
	DatabaseURL   string `env:"DATABASE_URL"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns    int32  `env:"DB_MIN_CONNS" envDefault:"2"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"`

	// RedisAddr enables the onboarding flag cache when set
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"10m"`
}

var _ StoreConfig = Store{}

func (s Store) GetDatabaseURL() string {
	return s.DatabaseURL
}

func (s Store) GetDBMaxConns() int32 {
	return s.DBMaxConns
}

func (s Store) GetDBMinConns() int32 {
	return s.DBMinConns
}

func (s Store) GetDBAutoMigrate() bool {
	return s.DBAutoMigrate
}

func (s Store) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Store) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Store) GetRedisDB() int {
	return s.RedisDB
}

func (s Store) GetProfileCacheTTL() time.Duration {
	return s.ProfileCacheTTL
}
