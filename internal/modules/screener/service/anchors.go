package service

import (
	"sync"

	"pump_screener/internal/models"
)

// AnchorTable - состояние якорей по символам. Записи создаются лениво
// и живут до конца процесса.
type AnchorTable struct {
	mu    sync.Mutex
	state map[string]*models.AnchorState
}

func NewAnchorTable() *AnchorTable {
	return &AnchorTable{state: make(map[string]*models.AnchorState)}
}

// Evaluate прогоняет тикер через детекторы под локом таблицы.
// Первый тикер символа только засевает якоря.
func (a *AnchorTable) Evaluate(t models.Ticker, cfg models.FilterConfig, m tickMeta) []models.SignalEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.state[t.Symbol]
	if !ok {
		a.state[t.Symbol] = &models.AnchorState{
			PriceAnchor:  t.Price,
			VolumeAnchor: t.Volume,
			TradeAnchor:  t.Trades,
		}
		return nil
	}
	return detect(st, t, cfg, m)
}

// ResetStreaks обнуляет счётчики PRICE UP, якоря не трогает.
func (a *AnchorTable) ResetStreaks() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, st := range a.state {
		st.PriceUpStreak = 0
	}
}

// Get возвращает копию состояния символа.
func (a *AnchorTable) Get(symbol string) (models.AnchorState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.state[symbol]
	if !ok {
		return models.AnchorState{}, false
	}
	return *st, true
}

func (a *AnchorTable) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.state)
}
