// Package ratelimit реализует ограничение частоты запросов скользящим окном.
//
// Для каждой пары (категория, идентификатор) хранится список отметок времени
// за последнее окно. Запрос отклоняется, если сумма отметок в окне достигла
// MaxRequests. Старые отметки вытесняются при каждой проверке, поэтому
// в отличие от фиксированного окна счетчик не обнуляется на границах.
//
// MemoryStore живет в памяти процесса: перезапуск или несколько экземпляров
// сервиса теряют/не делят счетчики. Для горизонтального масштабирования
// используется RedisStore с тем же алгоритмом.
package ratelimit

import (
	"context"
	"time"
)

// Category группа эндпоинтов со своими лимитами.
type Category string

const (
	// CategoryAuth эндпоинты входа: маленькое окно, маленький лимит.
	CategoryAuth Category = "auth"
	// CategoryAI вызовы модели распознавания: большое окно, маленький лимит,
	// ключ — id пользователя, если он известен.
	CategoryAI Category = "ai"
	// CategoryGeneral остальные API-запросы.
	CategoryGeneral Category = "general"
)

// Config параметры окна для категории.
type Config struct {
	Window      time.Duration `yaml:"window"`
	MaxRequests int           `yaml:"max_requests"`
}

// DefaultConfigs возвращает лимиты по умолчанию.
func DefaultConfigs() map[Category]Config {
	return map[Category]Config{
		CategoryAuth:    {Window: 15 * time.Minute, MaxRequests: 5},
		CategoryAI:      {Window: time.Hour, MaxRequests: 10},
		CategoryGeneral: {Window: time.Minute, MaxRequests: 100},
	}
}

// Decision результат проверки. Отказ — штатный исход, а не ошибка.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetTime момент, когда самая старая отметка в окне истечет.
	ResetTime time.Time
	// RetryAfter сколько ждать до освобождения слота; 0 для разрешенных запросов.
	RetryAfter time.Duration
}

// Store хранит отметки запросов.
type Store interface {
	// Check атомарно вытесняет устаревшие отметки ключа, сравнивает сумму с лимитом
	// и, если запрос разрешен, добавляет новую отметку now.
	Check(ctx context.Context, key string, cfg Config, now time.Time) (Decision, error)
	// Sweep удаляет ключи, у которых все отметки устарели, и возвращает их число.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Key строит ключ хранилища для категории и идентификатора.
func Key(category Category, identifier string) string {
	return string(category) + ":" + identifier
}

func retryAfter(d Decision, now time.Time) Decision {
	if d.Allowed {
		d.RetryAfter = 0
		return d
	}
	if wait := d.ResetTime.Sub(now); wait > 0 {
		d.RetryAfter = wait
	}
	return d
}
