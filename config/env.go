package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "BANKLOAD_"

// ErrInvalidEnvValue is returned when an environment variable cannot be parsed.
var ErrInvalidEnvValue = errors.New("invalid environment value")

type lookupFunc func(key string) (string, bool)

type envBinding struct {
	key   string
	apply func(value string) error
}

func applyEnv(cfg *Config, lookup lookupFunc) error {
	bindings := []envBinding{
		{"LOCAL_STORE_DRIVER", setString(&cfg.LocalStore.Driver)},
		{"LOCAL_STORE_DSN", setString(&cfg.LocalStore.DSN)},
		{"LOCAL_STORE_MAX_OPEN_CONNS", setInt(&cfg.LocalStore.MaxOpenConns)},
		{"LOCAL_STORE_MAX_IDLE_CONNS", setInt(&cfg.LocalStore.MaxIdleConns)},
		{"LOCAL_STORE_BUSY_TIMEOUT", setDuration(&cfg.LocalStore.BusyTimeout)},
		{"BANK_API_BASE_URL", setString(&cfg.BankAPI.BaseURL)},
		{"BANK_API_TIMEOUT", setDuration(&cfg.BankAPI.Timeout)},
		{"SWARM_USERS", setInt(&cfg.Swarm.Users)},
		{"SWARM_SPAWN_RATE", setFloat(&cfg.Swarm.SpawnRate)},
		{"SWARM_RUN_TIME", setDuration(&cfg.Swarm.RunTime)},
		{"SWARM_MIN_WAIT", setDuration(&cfg.Swarm.MinWait)},
		{"SWARM_MAX_WAIT", setDuration(&cfg.Swarm.MaxWait)},
		{"SWARM_STATS_INTERVAL", setDuration(&cfg.Swarm.StatsInterval)},
		{"SEED_IDENTITIES", setInt(&cfg.Seed.Identities)},
		{"SEED_FAKER_SEED", setUint(&cfg.Seed.FakerSeed)},
		{"FAKE_BANK_LISTEN_ADDR", setString(&cfg.FakeBank.ListenAddr)},
		{"FAKE_BANK_SECRET", setString(&cfg.FakeBank.Secret)},
		{"OBSERVABILITY_ENABLED", setBool(&cfg.Observability.Enabled)},
		{"OBSERVABILITY_SERVICE_NAME", setString(&cfg.Observability.ServiceName)},
		{"OBSERVABILITY_TRACES_ENDPOINT", setString(&cfg.Observability.TracesEndpoint)},
		{"OBSERVABILITY_METRICS_ENDPOINT", setString(&cfg.Observability.MetricsEndpoint)},
		{"LOG_LEVEL", setString(&cfg.LogLevel)},
	}

	for _, binding := range bindings {
		value, found := lookup(EnvPrefix + binding.key)
		if !found {
			continue
		}

		if err := binding.apply(value); err != nil {
			return fmt.Errorf("%w: %s%s=%q: %w", ErrInvalidEnvValue, EnvPrefix, binding.key, value, err)
		}
	}

	return nil
}

func setString(target *string) func(string) error {
	return func(value string) error {
		*target = value
		return nil
	}
}

func setInt(target *int) func(string) error {
	return func(value string) error {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return err
		}

		*target = parsed

		return nil
	}
}

func setUint(target *uint64) func(string) error {
	return func(value string) error {
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}

		*target = parsed

		return nil
	}
}

func setFloat(target *float64) func(string) error {
	return func(value string) error {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}

		*target = parsed

		return nil
	}
}

func setBool(target *bool) func(string) error {
	return func(value string) error {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}

		*target = parsed

		return nil
	}
}

func setDuration(target *time.Duration) func(string) error {
	return func(value string) error {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}

		*target = parsed

		return nil
	}
}
