package service

import (
	"sync"

	"pump_screener/internal/models"
)

// History - последние сигналы для новых подписчиков дашборда.
// Внутри хранится в порядке эмиссии, наружу отдаётся newest-first.
type History struct {
	mu     sync.RWMutex
	limit  int // 0 = без лимита
	events []models.SignalEvent
}

func NewHistory(limit int) *History {
	if limit < 0 {
		limit = 0
	}
	return &History{limit: limit}
}

// Push добавляет батч в голову истории: каждое событие встаёт первым,
// так что последнее эмитированное оказывается в начале.
func (h *History) Push(events []models.SignalEvent) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append(h.events, events...)
	if h.limit > 0 && len(h.events) > h.limit {
		drop := len(h.events) - h.limit
		h.events = append(h.events[:0:0], h.events[drop:]...)
	}
}

// Snapshot - копия, newest first.
func (h *History) Snapshot() []models.SignalEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.SignalEvent, len(h.events))
	for i, ev := range h.events {
		out[len(h.events)-1-i] = ev
	}
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
}
