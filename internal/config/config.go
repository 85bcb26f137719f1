package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`
	GRPCAddr string `mapstructure:"grpc_addr"`

	Env      string `mapstructure:"env"`     // "dev" | "prod"
	DBPath   string `mapstructure:"db_path"` // e.g. "./data/kinetic.db"
	LogLevel string `mapstructure:"log_level"`

	// SeedFile replaces the built-in demo network when set.
	SeedFile string `mapstructure:"seed_file"`

	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	S3       S3Config       `mapstructure:"s3"`
	LevelDB  LevelDBConfig  `mapstructure:"leveldb"`
	Economy  EconomyConfig  `mapstructure:"economy"`
}

type SnapshotConfig struct {
	Driver     string `mapstructure:"driver"` // none | memory | sqlite | postgres | s3 | leveldb
	ID         string `mapstructure:"id"`
	DebounceMS int    `mapstructure:"debounce_ms"`
	TimeoutMS  int    `mapstructure:"timeout_ms"`
	Compress   bool   `mapstructure:"compress"`
}

func (s SnapshotConfig) Debounce() time.Duration { return time.Duration(s.DebounceMS) * time.Millisecond }
func (s SnapshotConfig) Timeout() time.Duration  { return time.Duration(s.TimeoutMS) * time.Millisecond }

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
	Prefix    string `mapstructure:"prefix"`
}

type LevelDBConfig struct {
	Path string `mapstructure:"path"`
}

type EconomyConfig struct {
	InitialCredits  int `mapstructure:"initial_credits"`
	ViewCost        int `mapstructure:"view_cost"`
	ConsumeBatchMax int `mapstructure:"consume_batch_max"`
}

var defaults = map[string]any{
	"http_addr":                 ":8080",
	"grpc_addr":                 ":9090",
	"env":                       "dev",
	"db_path":                   "./data/kinetic.db",
	"log_level":                 "info",
	"seed_file":                 "",
	"snapshot.driver":           "sqlite",
	"snapshot.id":               "kinetic-demo",
	"snapshot.debounce_ms":      500,
	"snapshot.timeout_ms":       5000,
	"snapshot.compress":         false,
	"postgres.dsn":              "",
	"s3.bucket":                 "",
	"s3.region":                 "us-east-1",
	"s3.endpoint":               "",
	"s3.path_style":             false,
	"s3.prefix":                 "",
	"leveldb.path":              "./data/kinetic.leveldb",
	"economy.initial_credits":   30,
	"economy.view_cost":         10,
	"economy.consume_batch_max": 5,
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"http-addr":       "http_addr",
	"grpc-addr":       "grpc_addr",
	"env":             "env",
	"db-path":         "db_path",
	"log-level":       "log_level",
	"seed-file":       "seed_file",
	"snapshot-driver": "snapshot.driver",
	"snapshot-id":     "snapshot.id",
}

var drivers = map[string]bool{
	"none": true, "memory": true, "sqlite": true, "postgres": true, "s3": true, "leveldb": true,
}

// Load resolves the configuration from, lowest precedence first: built-in
// defaults, the YAML file at path (optional), KINETIC_* environment
// variables and the flags that were set on the command line.
func Load(flags *pflag.FlagSet, path string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("kinetic")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.normalize(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// FromEnv is Load without a file or flags.
func FromEnv() (Config, error) {
	return Load(nil, "")
}

func (c *Config) normalize() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env != "dev" && c.Env != "prod" {
		// fail-soft: treat unknown as dev
		c.Env = "dev"
	}

	c.Snapshot.Driver = strings.ToLower(strings.TrimSpace(c.Snapshot.Driver))
	if c.Snapshot.Driver == "" {
		c.Snapshot.Driver = "none"
	}
	if !drivers[c.Snapshot.Driver] {
		return fmt.Errorf("unknown snapshot driver %q", c.Snapshot.Driver)
	}
	if strings.TrimSpace(c.Snapshot.ID) == "" {
		c.Snapshot.ID = "kinetic-demo"
	}
	c.Snapshot.DebounceMS = positiveOr(c.Snapshot.DebounceMS, 500)
	c.Snapshot.TimeoutMS = positiveOr(c.Snapshot.TimeoutMS, 5000)

	if c.Economy.InitialCredits < 0 {
		c.Economy.InitialCredits = 30
	}
	c.Economy.ViewCost = positiveOr(c.Economy.ViewCost, 10)
	c.Economy.ConsumeBatchMax = positiveOr(c.Economy.ConsumeBatchMax, 5)
	return nil
}

func positiveOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
