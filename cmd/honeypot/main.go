package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"scam-honeypot/internal/analytics"
	"scam-honeypot/internal/auth"
	"scam-honeypot/internal/config"
	"scam-honeypot/internal/detect"
	"scam-honeypot/internal/honeypot"
	"scam-honeypot/internal/httpapi"
	"scam-honeypot/internal/llm"
	"scam-honeypot/internal/logging"
	"scam-honeypot/internal/metrics"
	"scam-honeypot/internal/report"
	"scam-honeypot/internal/scheduler"
	"scam-honeypot/internal/session"
	"scam-honeypot/internal/storage"
	"scam-honeypot/internal/strategy"
	"scam-honeypot/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("honeypot stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}

	classifierOpts := []detect.Option{detect.WithLogger(logger.Named("detect"))}
	if gen != nil && cfg.LLMVerifyScams {
		classifierOpts = append(classifierOpts, detect.WithVerifier(detect.NewLLMVerifier(gen), cfg.LLMTimeout))
	}
	classifier := detect.New(classifierOpts...)

	persona, err := strategy.LoadPersona(cfg.PersonaPromptPath)
	if err != nil {
		return err
	}
	strategyOpts := []strategy.Option{strategy.WithPersona(persona), strategy.WithLogger(logger.Named("strategy"))}
	if gen != nil {
		strategyOpts = append(strategyOpts, strategy.WithGenerator(gen, cfg.LLMTimeout))
	}
	strategist := strategy.New(strategyOpts...)

	store := session.NewStore()

	var sender report.Sender = report.LogSender{Logger: logger.Named("report")}
	if cfg.CallbackURL != "" {
		sender = report.NewHTTPSender(cfg.CallbackURL, cfg.CallbackTimeout)
	} else {
		logger.Warn("CALLBACK_URL is empty, final reports are only logged")
	}
	dispatcher := report.NewDispatcher(store, sender,
		report.WithWorkers(cfg.DispatchWorkers),
		report.WithQueue(cfg.DispatchQueue),
		report.WithMinTurns(cfg.ReportMinTurns),
		report.WithLogger(logger.Named("dispatch")),
		report.WithObserver(m),
	)

	var recorder *storage.FileRecorder
	if cfg.TranscriptPath != "" {
		recorder, err = storage.NewFileRecorder(cfg.TranscriptPath)
		if err != nil {
			logger.Warn("transcript disabled", zap.Error(err), zap.String("path", cfg.TranscriptPath))
		}
	}
	engineOpts := []honeypot.Option{
		honeypot.WithObserver(m),
		honeypot.WithLogger(logger.Named("engine")),
	}
	if recorder != nil {
		engineOpts = append(engineOpts, honeypot.WithRecorder(recorder))
	}
	engine := honeypot.New(store, classifier, strategist, dispatcher, engineOpts...)

	keys, err := newKeyService(cfg, logger)
	if err != nil {
		return err
	}

	sched, err := newScheduler(cfg, engine, recorder, logger)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.TelegramBotToken != "" {
		bot, err := telegram.New(cfg.TelegramBotToken, cfg.TelegramOperatorChatID, engine, logger.Named("telegram"), cfg.RequestTimeout)
		if err != nil {
			logger.Warn("telegram channel disabled", zap.Error(err))
		} else {
			go bot.Start(ctx)
		}
	}

	srv, err := httpapi.NewServer(engine, keys, logger.Named("http"), &httpapi.Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		RequestTimeout: cfg.RequestTimeout,
	}, httpapi.WithMetrics(m.Handler()))
	if err != nil {
		return err
	}

	logger.Info("honeypot starting",
		zap.String("addr", cfg.Addr()),
		zap.Bool("llm", engine.LLMEnabled()),
		zap.Bool("verifier", engine.VerifierEnabled()),
		zap.Int("api_keys", len(keys.List())),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("dispatcher shutdown", zap.Error(err), zap.Int("pending", dispatcher.Pending()))
	}
	return nil
}

func newGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.Client, error) {
	client, err := llm.NewFactory(cfg).CreateClient(ctx, cfg.LLMProvider)
	if err != nil {
		if errors.Is(err, llm.ErrUnavailable) {
			logger.Warn("llm disabled, using templates only", zap.Error(err))
			return nil, nil
		}
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	if client == nil {
		logger.Info("no llm provider configured, using templates only")
		return nil, nil
	}
	return llm.NewLimited(client, cfg.LLMRatePerSec, cfg.LLMBurst, cfg.LLMTimeout), nil
}

func newKeyService(cfg *config.Config, logger *zap.Logger) (*auth.Service, error) {
	var repo auth.Repository
	if cfg.APIKeysFile != "" {
		r, err := auth.NewFileRepository(cfg.APIKeysFile)
		if err != nil {
			logger.Warn("failed to init api key file", zap.Error(err), zap.String("path", cfg.APIKeysFile))
		} else {
			repo = r
		}
	}
	svc, err := auth.NewWithRepo(repo, cfg.APIKeys())
	if err != nil {
		return nil, fmt.Errorf("init api keys: %w", err)
	}
	if !svc.Enabled() {
		logger.Warn("no API keys configured, every /api request will be rejected")
	}
	return svc, nil
}

func newScheduler(cfg *config.Config, engine *honeypot.Engine, recorder *storage.FileRecorder, logger *zap.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.New(logger.Named("scheduler"))

	if recorder != nil && cfg.StatsCron != "" {
		err := s.Add("daily_stats", cfg.StatsCron, func(context.Context) error {
			day := time.Now().UTC()
			events, err := recorder.LoadSince(day.Truncate(24 * time.Hour))
			if err != nil {
				return fmt.Errorf("load transcript: %w", err)
			}
			stats := analytics.AnalyzeDailyLogs(events, day)
			logger.Info("daily stats",
				zap.String("date", stats.Date),
				zap.Int("turns", stats.TotalTurns),
				zap.Int("sessions", stats.Sessions),
				zap.Int("scam_sessions", stats.ScamSessions),
			)
			fmt.Fprintln(os.Stderr, stats.GenerateReportSummary())
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if cfg.SessionIdleTTL > 0 {
		spec := fmt.Sprintf("@every %s", cfg.SessionIdleTTL/2)
		err := s.Add("session_sweep", spec, func(context.Context) error {
			if n := engine.Sweep(cfg.SessionIdleTTL); n > 0 {
				logger.Info("idle sessions dropped", zap.Int("count", n), zap.Int("active", engine.ActiveSessions()))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
