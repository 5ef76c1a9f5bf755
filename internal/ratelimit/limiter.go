package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/warranty-tracker/internal/lib/clock"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
)

// Recorder получает сведения о принятых решениях (метрики).
type Recorder interface {
	ObserveRateLimit(category string, allowed bool)
	ObserveRateLimitSweep(removed int)
}

// Limiter проверяет запросы по категориям и периодически чистит хранилище.
type Limiter struct {
	store   Store
	configs map[Category]Config
	clock   clock.Clock
	log     *slog.Logger
	rec     Recorder

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLimiter создает Limiter. Категории, отсутствующие в configs, берутся из DefaultConfigs.
func NewLimiter(store Store, configs map[Category]Config, clk clock.Clock, log *slog.Logger, rec Recorder) *Limiter {
	merged := DefaultConfigs()
	for c, cfg := range configs {
		if cfg.Window > 0 && cfg.MaxRequests > 0 {
			merged[c] = cfg
		}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Limiter{
		store:   store,
		configs: merged,
		clock:   clk,
		log:     log,
		rec:     rec,
	}
}

// Config возвращает параметры категории.
func (l *Limiter) Config(category Category) (Config, bool) {
	cfg, ok := l.configs[category]
	return cfg, ok
}

// Check проверяет запрос identifier в категории category.
//
// Ограничитель рекомендательный: при ошибке хранилища запрос пропускается,
// ошибка только логируется. Неизвестная категория не ограничивается.
func (l *Limiter) Check(ctx context.Context, category Category, identifier string) Decision {
	cfg, ok := l.configs[category]
	if !ok {
		return Decision{Allowed: true}
	}

	now := l.clock.Now()
	d, err := l.store.Check(ctx, Key(category, identifier), cfg, now)
	if err != nil {
		l.log.Warn("rate limit store failed, allowing request",
			slog.String("category", string(category)), sl.Err(err))
		d = Decision{
			Allowed:   true,
			Limit:     cfg.MaxRequests,
			Remaining: cfg.MaxRequests,
			ResetTime: now.Add(cfg.Window),
		}
	}

	if l.rec != nil {
		l.rec.ObserveRateLimit(string(category), d.Allowed)
	}
	return d
}

// Sweep выполняет один проход очистки.
func (l *Limiter) Sweep(ctx context.Context) int {
	removed, err := l.store.Sweep(ctx, l.clock.Now())
	if err != nil {
		l.log.Warn("rate limit sweep interrupted", sl.Err(err))
	}
	if removed > 0 {
		l.log.Debug("rate limit sweep finished", slog.Int("removed", removed))
	}
	if l.rec != nil {
		l.rec.ObserveRateLimitSweep(removed)
	}
	return removed
}

// Start запускает периодическую очистку с интервалом interval.
func (l *Limiter) Start(ctx context.Context, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep(ctx)
			}
		}
	}(l.done)
}

// Stop останавливает очистку и дожидается завершения горутины.
func (l *Limiter) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
