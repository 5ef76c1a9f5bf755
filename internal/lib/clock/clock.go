// Package clock отделяет чтение текущего времени от бизнес-логики,
// чтобы в тестах можно было подставить фиксированное время.
package clock

import (
	"sync"
	"time"
)

// Clock возвращает текущее время. Каждое обращение читает время заново.
type Clock interface {
	Now() time.Time
}

// Real использует системные часы.
type Real struct{}

// Now возвращает time.Now().
func (Real) Now() time.Time {
	return time.Now()
}

// Fixed управляемые часы для тестов.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed создает часы, остановленные на now.
func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

// Now возвращает установленное время.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set переставляет часы.
func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

// Advance сдвигает часы вперед на d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
