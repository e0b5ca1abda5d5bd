package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cardboard-bank/bankload/loadtest/seed"
	"github.com/cardboard-bank/bankload/loadtest/swarm"
)

// Local store drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
)

var (
	// ErrReadingConfigFailed is returned when the config file cannot be read or parsed.
	ErrReadingConfigFailed = errors.New("reading config failed")

	// ErrInvalidConfig is returned when the merged config does not pass validation.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the complete configuration of the seed generator, the load run and the fake bank.
type Config struct {
	LocalStore    LocalStoreConfig    `yaml:"local_store"`
	BankAPI       BankAPIConfig       `yaml:"bank_api"`
	Swarm         SwarmConfig         `yaml:"swarm"`
	Seed          SeedConfig          `yaml:"seed"`
	FakeBank      FakeBankConfig      `yaml:"fake_bank"`
	Observability ObservabilityConfig `yaml:"observability"`
	LogLevel      string              `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// LocalStoreConfig selects and tunes the local store backend.
type LocalStoreConfig struct {
	Driver          string        `yaml:"driver" validate:"required,oneof=sqlite3 postgres pgx"`
	DSN             string        `yaml:"dsn" validate:"required"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `yaml:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" validate:"gte=0"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" validate:"gte=0"`
	BusyTimeout     time.Duration `yaml:"busy_timeout" validate:"gte=0"`
}

// BankAPIConfig points the simulated users at the banking API.
type BankAPIConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,http_url"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// SwarmConfig controls the load run.
type SwarmConfig struct {
	Users             int           `yaml:"users" validate:"gt=0"`
	SpawnRate         float64       `yaml:"spawn_rate" validate:"gt=0"`
	RunTime           time.Duration `yaml:"run_time" validate:"gte=0"`
	MinWait           time.Duration `yaml:"min_wait" validate:"gte=0"`
	MaxWait           time.Duration `yaml:"max_wait" validate:"gtefield=MinWait"`
	StatsInterval     time.Duration `yaml:"stats_interval" validate:"gte=0"`
	MinInitialBalance int64         `yaml:"min_initial_balance" validate:"gt=0"`
	MaxInitialBalance int64         `yaml:"max_initial_balance" validate:"gtefield=MinInitialBalance"`
}

// SeedConfig controls the seed generator.
type SeedConfig struct {
	Identities int    `yaml:"identities" validate:"gt=0"`
	FakerSeed  uint64 `yaml:"faker_seed"`
}

// FakeBankConfig controls the fake banking API server.
type FakeBankConfig struct {
	ListenAddr string `yaml:"listen_addr" validate:"required,hostname_port"`
	Secret     string `yaml:"secret" validate:"required,min=16"`
}

// ObservabilityConfig enables OpenTelemetry export over OTLP gRPC.
type ObservabilityConfig struct {
	Enabled         bool          `yaml:"enabled"`
	ServiceName     string        `yaml:"service_name" validate:"required"`
	TracesEndpoint  string        `yaml:"traces_endpoint" validate:"required_if=Enabled true,omitempty,hostname_port"`
	MetricsEndpoint string        `yaml:"metrics_endpoint" validate:"required_if=Enabled true,omitempty,hostname_port"`
	Insecure        bool          `yaml:"insecure"`
	ExportInterval  time.Duration `yaml:"export_interval" validate:"gte=0"`
}

// Default returns the configuration used when neither a file nor the environment set a value.
func Default() Config {
	defaults := swarm.DefaultConfig()

	return Config{
		LocalStore: LocalStoreConfig{
			Driver:          DriverSQLite,
			DSN:             "./data.db",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 5 * time.Minute,
			BusyTimeout:     5 * time.Second,
		},
		BankAPI: BankAPIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		Swarm: SwarmConfig{
			Users:             defaults.Users,
			SpawnRate:         defaults.SpawnRate,
			MinWait:           defaults.MinWait,
			MaxWait:           defaults.MaxWait,
			StatsInterval:     30 * time.Second,
			MinInitialBalance: 100,
			MaxInitialBalance: 1_000_000,
		},
		Seed: SeedConfig{
			Identities: seed.DefaultIdentityCount,
		},
		FakeBank: FakeBankConfig{
			ListenAddr: "localhost:8080",
			Secret:     "bankload-fakebank-secret",
		},
		Observability: ObservabilityConfig{
			ServiceName:     "bankload",
			TracesEndpoint:  "localhost:4317",
			MetricsEndpoint: "localhost:4317",
			Insecure:        true,
			ExportInterval:  5 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (skipped when path is
// empty), then BANKLOAD_* environment variables. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path) //nolint:gosec
		if err != nil {
			return Config{}, errors.Join(ErrReadingConfigFailed, err)
		}

		if err = yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.Join(ErrReadingConfigFailed, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, validationErrors.Error())
		}

		return errors.Join(ErrInvalidConfig, err)
	}

	return nil
}

// SwarmRunConfig converts the swarm section for swarm.New.
func (c Config) SwarmRunConfig() swarm.Config {
	return swarm.Config{
		Users:         c.Swarm.Users,
		SpawnRate:     c.Swarm.SpawnRate,
		RunTime:       c.Swarm.RunTime,
		MinWait:       c.Swarm.MinWait,
		MaxWait:       c.Swarm.MaxWait,
		StatsInterval: c.Swarm.StatsInterval,
	}
}
