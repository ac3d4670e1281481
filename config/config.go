// Package config loads process configuration for castore tools.
package config

import (
	"errors"
	"io/fs"
	"reflect"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates configuration. Each section maps to one concern.
type Config struct {
	Namespace string      `mapstructure:"namespace"`
	LogLevel  string      `mapstructure:"log_level"`
	Cache     CacheConfig `mapstructure:"cache"`
	Lock      LockConfig  `mapstructure:"lock"`
	Redis     RedisConfig `mapstructure:"redis"`
	DB        DBConfig    `mapstructure:"db"`
}

type CacheConfig struct {
	// Provider is one of redis, ristretto, bigcache, sturdyc, ttlcache.
	Provider     string        `mapstructure:"provider"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	MissingTTL   time.Duration `mapstructure:"missing_ttl"`
	CacheMissing bool          `mapstructure:"cache_missing"`
	MaxEntries   int64         `mapstructure:"max_entries"`
	Concurrency  int           `mapstructure:"concurrency"`
}

type LockConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	BackoffMin time.Duration `mapstructure:"backoff_min"`
	BackoffMax time.Duration `mapstructure:"backoff_max"`
	Wait       time.Duration `mapstructure:"wait"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	GenTTL   time.Duration `mapstructure:"gen_ttl"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Cache providers.
const (
	ProviderRedis     = "redis"
	ProviderRistretto = "ristretto"
	ProviderBigCache  = "bigcache"
	ProviderSturdyc   = "sturdyc"
	ProviderTTLCache  = "ttlcache"
)

func DefaultConfig() *Config {
	return &Config{
		Namespace: "castore",
		LogLevel:  "info",
		Cache: CacheConfig{
			Provider:    ProviderTTLCache,
			DefaultTTL:  10 * time.Minute,
			MissingTTL:  30 * time.Second,
			MaxEntries:  100_000,
			Concurrency: 10,
		},
		Lock: LockConfig{
			TTL:        10 * time.Second,
			BackoffMin: 10 * time.Millisecond,
			BackoffMax: 200 * time.Millisecond,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		DB:    DBConfig{Driver: "sqlite3"},
	}
}

// Load reads configuration from .env files, an optional castore.yaml and
// environment variables, then validates it. Environment variables use the
// prefix "CASTORE" and the dot in keys is replaced by an underscore, so
// "cache.provider" becomes "CASTORE_CACHE_PROVIDER". Variables already set
// in the environment win over .env files. Without arguments ".env" is
// loaded when present.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	v := viper.New()
	v.SetConfigName("castore")
	v.AddConfigPath(".")
	v.SetEnvPrefix("CASTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Namespace, validation.Required),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Cache),
		validation.Field(&c.Lock),
		validation.Field(&c.Redis, validation.When(c.Cache.Provider == ProviderRedis, validation.By(func(any) error {
			return validation.Validate(c.Redis.Addr, validation.Required.Error("is required for the redis provider"))
		}))),
		validation.Field(&c.DB),
	)
}

func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Provider, validation.Required,
			validation.In(ProviderRedis, ProviderRistretto, ProviderBigCache, ProviderSturdyc, ProviderTTLCache)),
		validation.Field(&c.DefaultTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.MissingTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.Concurrency, validation.Min(0)),
		validation.Field(&c.MaxEntries, validation.Min(int64(0))),
	)
}

func (c LockConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
		validation.Field(&c.Wait, validation.Min(time.Duration(0))),
		validation.Field(&c.BackoffMax, validation.When(c.BackoffMin > 0 && c.BackoffMax > 0,
			validation.Min(c.BackoffMin).Error("must not be below backoff_min"))),
	)
}

func (c DBConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.In("sqlite3", "postgres", "pgx")),
	)
}
