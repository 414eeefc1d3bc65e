// Package signald runs the cycle signal service: it re-evaluates the stored
// weekly series on a fixed interval and publishes the outcome to SQLite,
// Redis, notifiers and the API.
package signald

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"cyclewatch/config"
	"cyclewatch/internal/api"
	"cyclewatch/internal/indicator"
	"cyclewatch/internal/metrics"
	"cyclewatch/internal/notification"
	redisstore "cyclewatch/internal/store/redis"
	sqlitestore "cyclewatch/internal/store/sqlite"

	goredis "github.com/go-redis/redis/v8"
)

// Service wires all dependencies, manages lifecycle and owns the refresh loop.
type Service struct {
	cfg *config.Config
	log *slog.Logger

	sqlWriter   *sqlitestore.Writer
	sqlReader   *sqlitestore.Reader
	redisWriter *redisstore.Writer // nil when Redis is unavailable
	redisReader *redisstore.Reader // nil when Redis is unavailable

	prom   *metrics.Metrics
	health *metrics.HealthStatus
	server *api.Server
	eval   *Evaluator
}

// New opens SQLite and, if reachable, Redis. A Redis failure is logged and
// the service runs without the cache.
func New(cfg *config.Config, log *slog.Logger) (*Service, error) {
	svc := &Service{
		cfg:    cfg,
		log:    log,
		prom:   metrics.NewMetrics(),
		health: metrics.NewHealthStatus(),
	}
	svc.prom.InitSignals(indicator.SignalNames())

	if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	var err error
	svc.sqlWriter, err = sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		return nil, err
	}
	svc.sqlReader, err = sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		svc.sqlWriter.Close()
		return nil, err
	}
	svc.health.SetSQLiteOK(true)

	svc.redisWriter, err = redisstore.New(redisstore.WriterConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn("redis unavailable, continuing without cache", slog.String("error", err.Error()))
		svc.redisWriter = nil
	} else {
		svc.health.SetRedisEnabled(true)
		svc.redisWriter.OnSkip = func(op string) {
			svc.prom.RedisSkippedWrites.WithLabelValues(op).Inc()
		}
		svc.redisWriter.Breaker().OnStateChange = func(from, to redisstore.State) {
			log.Warn("redis circuit breaker", slog.String("from", from.String()), slog.String("to", to.String()))
			svc.prom.SetBreakerState(int(to))
		}
		svc.redisReader, err = redisstore.NewReader(redisstore.ReaderConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn("redis reader unavailable, status served from memory only", slog.String("error", err.Error()))
			svc.redisReader = nil
		}
	}

	hub := api.NewHub(32)
	hub.OnClientCount = func(n int) { svc.prom.WSClients.Set(float64(n)) }
	apiCfg := api.Config{
		Asset:          cfg.Asset,
		HistoryLimit:   cfg.HistoryLimit,
		Metrics:        svc.prom,
		Health:         svc.health,
		MetricsHandler: metrics.Handler(),
		Store:          svc.sqlReader,
	}
	if svc.redisReader != nil {
		apiCfg.Cache = svc.redisReader
	}
	svc.server = api.NewServer(apiCfg, hub)

	svc.eval = &Evaluator{
		Asset:        cfg.Asset,
		HistoryLimit: cfg.HistoryLimit,
		Series:       svc.sqlReader,
		Store:        svc.sqlWriter,
		Notifier:     svc.buildNotifier(),
		Sink:         svc.server,
		Metrics:      svc.prom,
		Health:       svc.health,
		Log:          log,
	}
	if svc.redisWriter != nil {
		svc.eval.Cache = svc.redisWriter
	}
	return svc, nil
}

func (svc *Service) buildNotifier() notification.Notifier {
	names := []string{"log"}
	backends := []notification.Notifier{notification.NewLogNotifier()}
	if svc.cfg.WebhookURL != "" {
		names = append(names, "webhook")
		backends = append(backends, notification.NewThrottled(
			notification.NewWebhookNotifier(svc.cfg.WebhookURL), svc.cfg.NotifyMinInterval, 3))
	}
	if svc.cfg.TelegramEnabled() {
		names = append(names, "telegram")
		backends = append(backends, notification.NewThrottled(
			notification.NewTelegramNotifier(svc.cfg.TelegramBotToken, svc.cfg.TelegramChatID), svc.cfg.NotifyMinInterval, 3))
	}
	multi := notification.NewMulti(backends...)
	multi.OnError = func(i int, err error) {
		if errors.Is(err, notification.ErrThrottled) {
			return
		}
		svc.prom.NotifierFailures.WithLabelValues(names[i]).Inc()
	}
	svc.log.Info("notifiers configured", slog.Any("backends", names))
	return multi
}

// Run evaluates once, then on the refresh schedule, serving the API until
// ctx is cancelled.
func (svc *Service) Run(ctx context.Context) error {
	cfg := svc.cfg
	svc.log.Info("starting",
		slog.String("asset", cfg.Asset),
		slog.String("http", cfg.HTTPAddr),
		slog.String("schedule", ScheduleSpec(cfg.RefreshCron, cfg.RefreshInterval)),
		slog.Bool("redis", svc.redisWriter != nil))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           svc.server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var rdb *goredis.Client
	if svc.redisWriter != nil {
		rdb = svc.redisWriter.Client()
	}
	svc.health.StartLivenessChecker(ctx, rdb, svc.sqlWriter.DB(), 15*time.Second)

	// Errors are recorded in health and logged; the service keeps going.
	svc.eval.Evaluate(ctx)

	sched := NewScheduler(svc.log)
	spec := ScheduleSpec(cfg.RefreshCron, cfg.RefreshInterval)
	if err := sched.Start(ctx, spec, func(ctx context.Context) { svc.eval.Evaluate(ctx) }); err != nil {
		srv.Close()
		svc.close()
		return err
	}
	svc.log.Info("next evaluation", slog.Time("at", sched.Next()))

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = fmt.Errorf("http server: %w", err)
	}
	sched.Stop()

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		svc.log.Warn("http shutdown", slog.String("error", err.Error()))
	}
	svc.close()
	svc.log.Info("shutdown complete")
	return runErr
}

func (svc *Service) close() {
	if svc.redisReader != nil {
		svc.redisReader.Close()
	}
	if svc.redisWriter != nil {
		svc.redisWriter.Close()
	}
	svc.sqlReader.Close()
	svc.sqlWriter.Close()
}
