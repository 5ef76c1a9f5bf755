// Package scheduler содержит фоновый сервис: сверку статусов гарантий
// и ежедневную рассылку напоминаний через RabbitMQ.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/warranty-tracker/internal/config"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/clock"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/warranty"
	"github.com/magabrotheeeer/warranty-tracker/internal/metrics"
	"github.com/magabrotheeeer/warranty-tracker/internal/rabbitmq"
	reconcilerservice "github.com/magabrotheeeer/warranty-tracker/internal/services/reconciler"
	schedulerservice "github.com/magabrotheeeer/warranty-tracker/internal/services/scheduler"
	"github.com/magabrotheeeer/warranty-tracker/internal/storage/repository"
)

// Job одна периодическая задача.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// App представляет приложение планировщика.
type App struct {
	jobs        []Job
	runOnStart  bool
	metricsAddr string
	registry    *prometheus.Registry
	db          *repository.Storage
	conn        *amqp.Connection
	ch          *amqp.Channel
	logger      *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	var err error
	for range 10 {
		if err = repository.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.scheduler.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect storage: %w", op, err)
	}
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: failed to connect RabbitMQ: %w", op, err)
	}

	topology := rabbitmq.NotificationTopology(cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey, 0)
	ch, err := rabbitmq.SetupChannel(conn, topology)
	if err != nil {
		closeResources(nil, conn, logger)
		_ = db.Close()
		return nil, fmt.Errorf("%s: failed to setup RabbitMQ channel: %w", op, err)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	calc := warranty.NewCalculator(clock.Real{})

	reconciler := reconcilerservice.NewReconcilerService(db, calc, collector, logger, cfg.Scheduler.BatchSize)
	notifier := schedulerservice.NewSchedulerService(db, rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange),
		calc, collector, logger, cfg.RabbitMQ.RoutingKey)

	return &App{
		jobs: []Job{
			{
				Name:     "reconcile",
				Interval: cfg.Scheduler.ReconcileInterval,
				Run: func(ctx context.Context) error {
					_, _, err := reconciler.Reconcile(ctx)
					return err
				},
			},
			{
				Name:     "notify",
				Interval: cfg.Scheduler.NotifyInterval,
				Run: func(ctx context.Context) error {
					_, _, err := notifier.Run(ctx)
					return err
				},
			},
		},
		runOnStart:  cfg.Scheduler.RunOnStart,
		metricsAddr: cfg.MetricsAddress,
		registry:    reg,
		db:          db,
		conn:        conn,
		ch:          ch,
		logger:      logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает задачи и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := metrics.Serve(ctx, a.metricsAddr, a.registry, a.logger); err != nil {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	RunJobs(ctx, a.jobs, a.runOnStart, a.logger)

	a.logger.Info("shutting down scheduler service")
	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}

// RunJobs запускает каждую задачу по своему тикеру и возвращается, когда
// ctx отменен и все запущенные проходы завершились.
func RunJobs(ctx context.Context, jobs []Job, runOnStart bool, logger *slog.Logger) {
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			runJob(ctx, job, runOnStart, logger)
		}(job)
	}
	wg.Wait()
}

func runJob(ctx context.Context, job Job, runOnStart bool, logger *slog.Logger) {
	log := logger.With(slog.String("job", job.Name))

	tick := func() {
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			log.Error("job failed", sl.Err(err))
			return
		}
		log.Debug("job finished", slog.Duration("took", time.Since(start)))
	}

	if job.Interval <= 0 {
		log.Warn("job disabled: interval is not positive")
		return
	}
	if runOnStart {
		tick()
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}
