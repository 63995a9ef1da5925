package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pump_screener/internal/models"
	"pump_screener/pkg/logger"
)

// maxPriceSteps - потолок шагов за один тик при крошечном пороге.
const maxPriceSteps = 1000

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// detect прогоняет три независимых детектора против одного и того же
// снимка прошлых якорей. PRICE UP может дать несколько событий за тик.
func detect(st *models.AnchorState, t models.Ticker, cfg models.FilterConfig, m tickMeta) []models.SignalEvent {
	var out []models.SignalEvent
	out = detectPrice(out, st, t, cfg.PriceThreshold, m)
	out = detectVolume(out, st, t, cfg.VolumeBurst, m)
	out = detectTrades(out, st, t, cfg.TradesThreshold, m)
	return out
}

// detectPrice - ступенчатый рост. Якорь двигается только если сработал
// хотя бы один шаг, и тогда встаёт ровно на текущую цену.
func detectPrice(out []models.SignalEvent, st *models.AnchorState, t models.Ticker, threshold float64, m tickMeta) []models.SignalEvent {
	prev := st.PriceAnchor
	if !t.Price.GreaterThan(prev) {
		return out
	}
	if !prev.IsPositive() {
		// деления на ноль нет - просто пересаживаем якорь
		st.PriceAnchor = t.Price
		return out
	}
	if threshold <= 0 {
		return out
	}

	thr := decimal.NewFromFloat(threshold)
	pct := t.Price.Sub(prev).Div(prev).Mul(hundred)
	if pct.LessThan(thr) {
		return out
	}

	steps := maxPriceSteps
	if n := pct.Div(thr).Floor(); n.LessThan(decimal.NewFromInt(maxPriceSteps)) {
		steps = int(n.IntPart())
	} else {
		logger.Warn("[ENGINE] %s: %s%% rise at threshold %v, steps capped at %d", t.Symbol, pct.StringFixed(2), threshold, maxPriceSteps)
	}
	rate := thr.Div(hundred)
	change := round2(threshold)

	for step := 0; step < steps; step++ {
		st.PriceUpStreak++

		stepAnchor := prev.Mul(one.Add(rate.Mul(decimal.NewFromInt(int64(step + 1)))))
		stepPrev := prev
		if step > 0 {
			stepPrev = prev.Mul(one.Add(rate.Mul(decimal.NewFromInt(int64(step)))))
		}

		out = append(out, models.SignalEvent{
			ID:        uuid.NewString(),
			Kind:      models.SignalPriceUp,
			Symbol:    t.Symbol,
			Price:     stepAnchor,
			PrevPrice: stepPrev,
			ChangePct: change,
			Streak:    st.PriceUpStreak,
			Step:      step + 1,
			Steps:     steps,
			Vol24h:    m.vol,
			Trades24h: m.trades,
			Change24h: t.Change24h,
			Time:      m.at,
			Alert:     st.PriceUpStreak >= 3,
		})
	}

	st.PriceAnchor = t.Price
	return out
}

// detectVolume: падение тащит якорь вниз молча, всплеск >= порога даёт
// одно событие и поднимает якорь.
func detectVolume(out []models.SignalEvent, st *models.AnchorState, t models.Ticker, burst float64, m tickMeta) []models.SignalEvent {
	prev := st.VolumeAnchor
	if t.Volume.LessThan(prev) {
		st.VolumeAnchor = t.Volume
		return out
	}
	if !prev.IsPositive() {
		st.VolumeAnchor = t.Volume
		return out
	}

	pct := t.Volume.Sub(prev).Div(prev).Mul(hundred)
	if burst <= 0 || pct.LessThan(decimal.NewFromFloat(burst)) {
		return out
	}

	delta := t.Volume.Sub(prev)
	out = append(out, models.SignalEvent{
		ID:           uuid.NewString(),
		Kind:         models.SignalVolumeUp,
		Symbol:       t.Symbol,
		Price:        t.Price,
		VolChangePct: pct.Round(2).InexactFloat64(),
		VolDeltaUSD:  delta,
		VolDelta:     GroupThousands(delta.IntPart()),
		Vol24h:       m.vol,
		Trades24h:    m.trades,
		Change24h:    t.Change24h,
		Time:         m.at,
	})
	st.VolumeAnchor = t.Volume
	return out
}

// detectTrades - та же политика, что у объёма, по количеству сделок.
func detectTrades(out []models.SignalEvent, st *models.AnchorState, t models.Ticker, threshold float64, m tickMeta) []models.SignalEvent {
	prev := st.TradeAnchor
	if t.Trades < prev {
		st.TradeAnchor = t.Trades
		return out
	}
	if prev <= 0 {
		st.TradeAnchor = t.Trades
		return out
	}

	pct := decimal.NewFromInt(t.Trades - prev).Div(decimal.NewFromInt(prev)).Mul(hundred)
	if threshold <= 0 || pct.LessThan(decimal.NewFromFloat(threshold)) {
		return out
	}

	out = append(out, models.SignalEvent{
		ID:              uuid.NewString(),
		Kind:            models.SignalTradesUp,
		Symbol:          t.Symbol,
		Price:           t.Price,
		TradesChangePct: pct.Round(2).InexactFloat64(),
		TradesDelta:     t.Trades - prev,
		Vol24h:          m.vol,
		Trades24h:       m.trades,
		Change24h:       t.Change24h,
		Time:            m.at,
	})
	st.TradeAnchor = t.Trades
	return out
}
