package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardboard-bank/bankload/config"
	"github.com/cardboard-bank/bankload/loadtest/bankapi"
	"github.com/cardboard-bank/bankload/loadtest/bankuser"
	"github.com/cardboard-bank/bankload/loadtest/localstore"
	"github.com/cardboard-bank/bankload/loadtest/swarm"
)

const serviceVersion = "dev"

var errNotSeeded = errors.New("local store holds no identities, run the seed command first")

var (
	flagConfig    string
	flagHost      string
	flagUsers     int
	flagSpawnRate float64
	flagRunTime   time.Duration
	flagSeed      uint64
)

var rootCmd = &cobra.Command{
	Use:   "bankload",
	Short: "Run simulated bank customers against a banking API",
	Long: `bankload spawns simulated customers that register or log in with a seeded identity,
make sure they own an account and then keep transferring money between known accounts.

Run the seed command first to fill the local store with identities.`,
	Example: `  bankload --host http://localhost:8080 --users 100 --spawn-rate 10 --run-time 10m
  bankload --config bankload.yaml`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg)
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "YAML config file")
	rootCmd.Flags().StringVar(&flagHost, "host", "", "Base URL of the banking API")
	rootCmd.Flags().IntVarP(&flagUsers, "users", "u", 0, "Number of simulated users")
	rootCmd.Flags().Float64VarP(&flagSpawnRate, "spawn-rate", "r", 0, "Users started per second")
	rootCmd.Flags().DurationVarP(&flagRunTime, "run-time", "t", 0, "Stop after this duration, e.g. 90s or 10m (default: run until interrupted)")
	rootCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "Seed for the per-user random generators (default: random)")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.BankAPI.BaseURL = flagHost
	}
	if flags.Changed("users") {
		cfg.Swarm.Users = flagUsers
	}
	if flags.Changed("spawn-rate") {
		cfg.Swarm.SpawnRate = flagSpawnRate
	}
	if flags.Changed("run-time") {
		cfg.Swarm.RunTime = flagRunTime
	}

	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg config.Config) error {
	log.Printf("🏦 Starting bankload against %s", cfg.BankAPI.BaseURL)

	logger := config.NewLogger(cfg.LogLevel, os.Stderr)

	observability, err := config.NewObservability(ctx, cfg.Observability, serviceVersion)
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := observability.Shutdown(); shutdownErr != nil {
			log.Printf("⚠️  Observability shutdown failed: %v", shutdownErr)
		}
	}()

	store, err := config.OpenLocalStore(ctx, cfg.LocalStore, localStoreOptions(logger, observability)...)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err = checkSeeded(ctx, store.Store); err != nil {
		return err
	}

	client, err := bankapi.NewClient(cfg.BankAPI.BaseURL, clientOptions(cfg, logger, observability)...)
	if err != nil {
		return err
	}

	seed := flagSeed
	if seed == 0 {
		seed = rand.Uint64() //nolint:gosec
	}

	factory := func(userIndex int) (swarm.Behavior, error) {
		rng := rand.New(rand.NewPCG(seed, uint64(userIndex)+1)) //nolint:gosec
		return bankuser.NewUser(store.Store, client, rng, userOptions(cfg, logger, observability)...)
	}

	runner, err := swarm.New(cfg.SwarmRunConfig(), factory, swarmOptions(seed, logger, observability)...)
	if err != nil {
		return err
	}

	logRunConfiguration(cfg, seed)

	if err = runner.Run(ctx); err != nil {
		return err
	}

	logSummary(runner.Stats())

	return nil
}

func checkSeeded(ctx context.Context, store *localstore.Store) error {
	identities, err := store.CountIdentities(ctx)
	if err != nil {
		return fmt.Errorf("local store is not initialized, run the seed command first: %w", err)
	}

	if identities == 0 {
		return errNotSeeded
	}

	log.Printf("👥 Local store holds %d identities", identities)

	return nil
}

func localStoreOptions(logger *slog.Logger, observability *config.Observability) []localstore.Option {
	options := []localstore.Option{localstore.WithLogger(logger)}
	if observability.Enabled() {
		options = append(options,
			localstore.WithContextualLogger(observability.ContextualLogger),
			localstore.WithMetrics(observability.MetricsCollector),
			localstore.WithTracing(observability.TracingCollector))
	}

	return options
}

func clientOptions(cfg config.Config, logger *slog.Logger, observability *config.Observability) []bankapi.Option {
	options := []bankapi.Option{bankapi.WithTimeout(cfg.BankAPI.Timeout), bankapi.WithLogger(logger)}
	if observability.Enabled() {
		options = append(options,
			bankapi.WithContextualLogger(observability.ContextualLogger),
			bankapi.WithMetrics(observability.MetricsCollector),
			bankapi.WithTracing(observability.TracingCollector))
	}

	return options
}

func userOptions(cfg config.Config, logger *slog.Logger, observability *config.Observability) []bankuser.Option {
	options := []bankuser.Option{
		bankuser.WithInitialBalanceRange(cfg.Swarm.MinInitialBalance, cfg.Swarm.MaxInitialBalance),
		bankuser.WithLogger(logger),
	}
	if observability.Enabled() {
		options = append(options,
			bankuser.WithContextualLogger(observability.ContextualLogger),
			bankuser.WithMetrics(observability.MetricsCollector),
			bankuser.WithTracing(observability.TracingCollector))
	}

	return options
}

func swarmOptions(seed uint64, logger *slog.Logger, observability *config.Observability) []swarm.Option {
	options := []swarm.Option{swarm.WithSeed(seed), swarm.WithLogger(logger)}
	if observability.Enabled() {
		options = append(options,
			swarm.WithContextualLogger(observability.ContextualLogger),
			swarm.WithMetrics(observability.MetricsCollector))
	}

	return options
}

func logRunConfiguration(cfg config.Config, seed uint64) {
	runTime := "until interrupted"
	if cfg.Swarm.RunTime > 0 {
		runTime = cfg.Swarm.RunTime.String()
	}

	log.Printf("📊 Run Configuration:")
	log.Printf("  - Users: %d, spawn rate %.2f/s", cfg.Swarm.Users, cfg.Swarm.SpawnRate)
	log.Printf("  - Wait between tasks: %s to %s", cfg.Swarm.MinWait, cfg.Swarm.MaxWait)
	log.Printf("  - Run time: %s", runTime)
	log.Printf("  - Local store: %s", cfg.LocalStore.Driver)
	log.Printf("  - Seed: %d", seed)
	log.Printf("🚀 Swarm starting, press Ctrl+C to stop...")
}

func logSummary(stats swarm.Stats) {
	log.Printf("✅ Swarm finished")
	log.Printf("  - Users: %d spawned, %d bootstrapped, %d failed",
		stats.UsersSpawned, stats.UsersBootstrapped, stats.UsersFailed)
	log.Printf("  - Tasks: %d run, %d errors", stats.TasksRun, stats.TaskErrors)

	for outcome, count := range stats.Outcomes {
		log.Printf("  - %s: %d", outcome, count)
	}
}
