package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/cardboard-bank/bankload/config"
	"github.com/cardboard-bank/bankload/testutil/fakebank"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

var (
	flagConfig string
	flagListen string
	flagSecret string
)

var rootCmd = &cobra.Command{
	Use:   "fakebank",
	Short: "Serve an in-memory banking API for local load runs",
	Long: `fakebank serves the banking endpoints the simulated users call: registration,
authentication, account listing and creation, balance lookup and transfers. All state is kept
in memory and lost on exit.`,
	Example: `  fakebank --listen localhost:8080`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("listen") {
			cfg.FakeBank.ListenAddr = flagListen
		}
		if cmd.Flags().Changed("secret") {
			cfg.FakeBank.Secret = flagSecret
		}
		if err = cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg.FakeBank)
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "YAML config file")
	rootCmd.Flags().StringVarP(&flagListen, "listen", "l", "", "Listen address, host:port")
	rootCmd.Flags().StringVar(&flagSecret, "secret", "", "HS256 token signing secret")
}

func serve(ctx context.Context, cfg config.FakeBankConfig) error {
	gin.SetMode(gin.ReleaseMode)

	bank, err := fakebank.NewServer(fakebank.WithSecret([]byte(cfg.Secret)))
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           bank.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Printf("🏦 Fake bank listening on http://%s", cfg.ListenAddr)
		serverDone <- server.ListenAndServe()
	}()

	select {
	case err = <-serverDone:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Printf("🛑 Shutting down fake bank...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Printf("✅ Fake bank stopped: %d transactions accepted", len(bank.Transactions()))

	return nil
}
