package ratelimit

import (
	"context"
	"sync"
	"time"
)

type sample struct {
	at    time.Time
	count int
}

type bucket struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
	dead    bool // удален при очистке; держатель указателя должен взять новый
}

// evict удаляет отметки с временем <= now-window. Вызывается под b.mu.
func (b *bucket) evict(now time.Time) {
	windowStart := now.Add(-b.window)
	kept := b.samples[:0]
	for _, s := range b.samples {
		if s.at.After(windowStart) {
			kept = append(kept, s)
		}
	}
	b.samples = kept
}

// MemoryStore хранилище отметок в памяти процесса.
//
// Карта ключей защищена общим RWMutex, каждая корзина — своим мьютексом,
// поэтому проверка одного ключа не блокирует остальные, а очистка
// не держит блокировку всей карты во время обхода.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
}

// NewMemoryStore создает пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*bucket),
	}
}

func (s *MemoryStore) bucket(key string, window time.Duration) *bucket {
	s.mu.RLock()
	b, ok := s.buckets[key]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.buckets[key]; ok {
		return b
	}
	b = &bucket{window: window}
	s.buckets[key] = b
	return b
}

// Check реализует Store.
func (s *MemoryStore) Check(_ context.Context, key string, cfg Config, now time.Time) (Decision, error) {
	for {
		b := s.bucket(key, cfg.Window)
		b.mu.Lock()
		if b.dead {
			b.mu.Unlock()
			continue
		}
		d := b.check(cfg, now)
		b.mu.Unlock()
		return retryAfter(d, now), nil
	}
}

func (b *bucket) check(cfg Config, now time.Time) Decision {
	b.window = cfg.Window
	b.evict(now)

	total := 0
	for _, s := range b.samples {
		total += s.count
	}

	if total >= cfg.MaxRequests {
		reset := now.Add(cfg.Window)
		if len(b.samples) > 0 {
			reset = b.samples[0].at.Add(cfg.Window)
		}
		return Decision{
			Allowed:   false,
			Limit:     cfg.MaxRequests,
			Remaining: 0,
			ResetTime: reset,
		}
	}

	b.samples = append(b.samples, sample{at: now, count: 1})
	return Decision{
		Allowed:   true,
		Limit:     cfg.MaxRequests,
		Remaining: cfg.MaxRequests - total - 1,
		ResetTime: b.samples[0].at.Add(cfg.Window),
	}
}

// Sweep реализует Store. Ключи копируются под блокировкой чтения,
// затем каждая корзина проверяется под своим мьютексом.
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.buckets))
	for k := range s.buckets {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		s.mu.RLock()
		b, ok := s.buckets[key]
		s.mu.RUnlock()
		if !ok {
			continue
		}

		b.mu.Lock()
		b.evict(now)
		if len(b.samples) == 0 && !b.dead {
			b.dead = true
			s.mu.Lock()
			if s.buckets[key] == b {
				delete(s.buckets, key)
				removed++
			}
			s.mu.Unlock()
		}
		b.mu.Unlock()
	}
	return removed, nil
}

// Len возвращает число отслеживаемых ключей.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}
