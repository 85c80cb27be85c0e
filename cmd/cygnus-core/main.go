// Command cygnus-core runs the portfolio synchronization engine: a local,
// read-only aggregator that polls wallet balances across EVM, Solana-like and
// Sui-like networks and serves the combined portfolio over HTTP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/adapter"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/app/port"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/app/service"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/infrastructure/accountrepo"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/infrastructure/configloader"
	netclient "github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/infrastructure/network/client"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/infrastructure/oracle"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/infrastructure/restapi"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/pkg/logger"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/pkg/metrics"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/store"
)

var version = "dev"

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "cygnus-core",
		Short:         "Multi-chain portfolio synchronization engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yml", "path to the configuration file")

	root.AddCommand(serveCmd(), syncCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cygnus-core %s\n", version)
		},
	}
}

// engine bundles everything wireUp constructs.
type engine struct {
	cfg          *configloader.Config
	log          *zap.Logger
	metrics      *metrics.Metrics
	store        *store.Store
	repo         *accountrepo.FileRepository
	loader       *service.Loader
	orchestrator *service.Orchestrator
}

// wireUp builds the full object graph from configuration. withLoader is false
// for one-shot runs that have no background scheduling.
func wireUp(ctx context.Context, withLoader bool) (*engine, error) {
	cfg, err := configloader.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging.Level, false)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	priceTTL := time.Duration(cfg.Oracle.CacheTTLMinutes) * time.Minute
	st := store.New(priceTTL, service.RecomputeTotals, log)

	repo := accountrepo.New(cfg.Storage.DataDir, log)
	accounts, err := repo.Load()
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		if err := st.AddAccount(account); err != nil {
			log.Warn("Skipping invalid persisted account", zap.String("id", account.ID), zap.Error(err))
		}
	}

	rpcTimeout := time.Duration(cfg.Sync.RPCCallTimeoutSeconds) * time.Second
	evmProvider := netclient.NewEVMClientProvider(cfg.Networks, rpcTimeout, log)

	var solanaClient, suiClient port.BalanceClient
	for _, network := range cfg.Networks {
		switch network.Kind {
		case entity.NetworkSolana:
			if solanaClient == nil {
				solanaClient = netclient.NewSolanaClient(network.Endpoints(), rpcTimeout, log)
			}
		case entity.NetworkSui:
			if suiClient == nil {
				suiClient = netclient.NewSuiClient(network.Endpoints(), rpcTimeout, log)
			}
		}
	}

	registry := adapter.NewRegistry(cfg.Networks, evmProvider, solanaClient, suiClient, log)

	oracleTimeout := time.Duration(cfg.Oracle.RequestTimeoutMillis) * time.Millisecond
	oracleClient := oracle.New(cfg.Oracle.BaseURL, oracleTimeout, log)
	limiter := rate.NewLimiter(rate.Limit(cfg.Oracle.RateLimit), cfg.Oracle.BurstLimit)

	var loader *service.Loader
	if withLoader {
		loaderCfg := service.LoaderConfig{
			StaggerDelay: time.Duration(cfg.Loader.StaggerDelayMillis) * time.Millisecond,
			SoftTimeout:  time.Duration(cfg.Loader.SoftTimeoutMillis) * time.Millisecond,
			BackoffBase:  time.Duration(cfg.Loader.BackoffBaseMillis) * time.Millisecond,
			MaxAttempts:  cfg.Loader.MaxAttempts,
		}
		balanceLoad := func(ctx context.Context, asset entity.Asset) error {
			for _, row := range st.Assets() {
				if row.Key() == asset.Key() && row.Balance != "" {
					return nil
				}
			}
			return fmt.Errorf("balance for %s not yet available", asset.Key())
		}
		priceLoad := func(ctx context.Context, asset entity.Asset) error {
			if _, ok := st.Price(asset.Symbol); ok {
				return nil
			}
			price, err := oracleClient.Price(ctx, asset.Symbol, cfg.Oracle.VsCurrency)
			if err != nil {
				return err
			}
			st.SetPrice(asset.Symbol, price)
			return nil
		}
		loader = service.NewLoader(ctx, loaderCfg, balanceLoad, priceLoad, log)
	}

	orchCfg := service.OrchestratorConfig{
		Interval:              time.Duration(cfg.Sync.IntervalSeconds) * time.Second,
		MaxConcurrentAccounts: cfg.Sync.MaxConcurrentAccounts,
		OracleTimeout:         oracleTimeout,
		VsCurrency:            cfg.Oracle.VsCurrency,
	}
	orch := service.NewOrchestrator(st, registry, oracleClient, loader, limiter, m, orchCfg, log)

	return &engine{
		cfg:          cfg,
		log:          log,
		metrics:      m,
		store:        st,
		repo:         repo,
		loader:       loader,
		orchestrator: orch,
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sync engine and the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eng, err := wireUp(ctx, true)
			if err != nil {
				return err
			}
			defer eng.log.Sync()

			handler := restapi.NewHandler(eng.store, eng.loader, eng.orchestrator, eng.repo, eng.log)
			router := restapi.SetupRouter(handler, eng.metrics.Registry)
			srv := &http.Server{
				Addr:         ":" + eng.cfg.Server.Port,
				Handler:      router,
				ReadTimeout:  time.Duration(eng.cfg.Server.ReadTimeout) * time.Second,
				WriteTimeout: time.Duration(eng.cfg.Server.WriteTimeout) * time.Second,
			}

			go eng.orchestrator.Run(ctx)
			go func() {
				eng.log.Info("HTTP server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					eng.log.Error("HTTP server failed", zap.Error(err))
					stop()
				}
			}()

			<-ctx.Done()
			eng.log.Info("Shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				eng.log.Error("HTTP server shutdown failed", zap.Error(err))
			}
			eng.loader.Stop()
			if err := eng.repo.Save(eng.store.Accounts()); err != nil {
				eng.log.Error("Failed to persist accounts on shutdown", zap.Error(err))
			}
			return nil
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle and print the resulting snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eng, err := wireUp(ctx, false)
			if err != nil {
				return err
			}
			defer eng.log.Sync()

			if err := eng.orchestrator.RunCycle(ctx); err != nil {
				return err
			}

			out, err := json.MarshalIndent(eng.store.Snapshot(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
