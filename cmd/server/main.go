package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/biplawofficial/TradeAutomation/internal/exchange"
	"github.com/biplawofficial/TradeAutomation/internal/journal"
	"github.com/biplawofficial/TradeAutomation/internal/server"
	"github.com/biplawofficial/TradeAutomation/internal/services"
	"github.com/biplawofficial/TradeAutomation/internal/store"
	"github.com/biplawofficial/TradeAutomation/pkg/config"
	"github.com/biplawofficial/TradeAutomation/pkg/logger"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		settingsPath = flag.String("settings", getenv("TRADE_SETTINGS", "settings.yaml"), "optional YAML settings file")
		listenAddr   = flag.String("listen", "", "HTTP listen address (overrides settings)")
	)
	flag.Parse()

	cfg, err := config.Load(*settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	dcx, err := exchange.NewCoinDCX(exchange.CoinDCXConfig{
		Credentials: cfg.CoinDCX,
		Pair:        cfg.Pair,
		Depth:       cfg.OrderbookDepth,
	})
	if err != nil {
		logger.Errorf("init coindcx client: %v", err)
		os.Exit(1)
	}
	delta, err := exchange.NewDelta(exchange.DeltaConfig{
		Credentials: cfg.Delta,
		Product:     cfg.DeltaProduct,
	})
	if err != nil {
		logger.Errorf("init delta client: %v", err)
		os.Exit(1)
	}

	jnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		logger.Errorf("open execution journal: %v", err)
		os.Exit(1)
	}
	defer jnl.Close()

	st := store.New()
	flow := services.NewTradeFlow(dcx, jnl, cfg.SettleDelay, cfg.DefaultLeverage)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := services.NewScheduler(st, dcx, jnl)
	scheduler.Start(ctx)

	srv := server.New(cfg, dcx, delta, st, jnl, flow)
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("trade backend listening on %s (pair=%s)", cfg.ListenAddr, cfg.Pair)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server error: %v", err)
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	cancel() // stops the scheduler loop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	fmt.Println("server stopped")
}
