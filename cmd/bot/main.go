package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"TruthTrader/internal/broker"
	"TruthTrader/internal/config"
	"TruthTrader/internal/feed"
	"TruthTrader/internal/gate"
	"TruthTrader/internal/notifier"
	"TruthTrader/internal/reconcile"
	"TruthTrader/internal/recorder"
	"TruthTrader/internal/scheduler"
	"TruthTrader/internal/sentiment"
	"TruthTrader/internal/trader"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] TruthTrader starting...")

	once := flag.Bool("once", false, "run a single poll cycle and exit")
	flag.Parse()

	// Load .env before reading config so env overrides pick it up.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetch client
	fetcher := feed.NewClient(
		cfg.Source.URL,
		cfg.Source.Username,
		cfg.Source.Password,
		cfg.Source.CookieFile,
		cfg.Source.MaxRetries,
		time.Duration(cfg.Source.InitialDelaySec)*time.Second,
		cfg.Proxy,
	)
	log.Printf("[INFO] content source: %s", fetcher.Name())

	// Init brokerage
	alpaca := broker.NewAlpacaClient(cfg.Alpaca.BaseURL, cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Proxy)

	// Init classifier
	classifier := sentiment.NewHTTPClassifier(cfg.Sentiment.EndpointURL, cfg.Sentiment.APIToken, cfg.Proxy)

	// Init notifier
	var notif notifier.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notif = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	} else {
		log.Println("[INFO] telegram not configured, notifications disabled")
		notif = notifier.NewNoopNotifier()
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	t := &trader.Trader{
		Fetcher:       fetcher,
		Gate:          gate.New(cfg.Trading.MarkerFile),
		Classifier:    classifier,
		Reconciler:    reconcile.NewReconciler(alpaca, cfg.Trading.RiskOnSymbol, cfg.Trading.RiskOffSymbol),
		Guard:         reconcile.NewSessionGuard(alpaca, time.Duration(cfg.Trading.CloseGuardMin)*time.Minute),
		Notifier:      notif,
		Recorder:      rec,
		MinConfidence: cfg.Sentiment.MinConfidence,
	}

	// Context for graceful shutdown; an interrupted cycle aborts before
	// marking the signal handled, which is safe to replay.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once {
		result := t.RunCycle(ctx)
		log.Printf("[INFO] cycle finished: %s", result.Outcome)
		if sr, ok := rec.(*recorder.SQLiteRecorder); ok {
			sr.Close()
		}
		os.Exit(result.ExitCode())
	}

	sched := scheduler.NewScheduler(ctx, t)
	if err := sched.RegisterAll(cfg.Schedule.PollCron, cfg.Schedule.CloseGuardCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing poll cycle now")
		go sched.RunNow()
	}

	log.Println("[INFO] TruthTrader is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] TruthTrader stopped")
}
