package service

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pump_screener/internal/models"
)

const quoteSuffix = "USDT"

// admit - фильтры в строгом порядке, до первого отказа. Символ попадает
// в seen до проверки списков, в eligible только после всех порогов.
func admit(raw models.RawTicker, cfg models.FilterConfig, lists ListsView, cov *Coverage) (models.Ticker, bool) {
	s := raw.Symbol
	if s == "" || !strings.HasSuffix(s, quoteSuffix) || strings.Contains(s, "_") {
		return models.Ticker{}, false
	}

	cov.RecordSeen(s)

	if lists.Ignored(s) {
		return models.Ticker{}, false
	}
	if !lists.Allowed(s) {
		return models.Ticker{}, false
	}

	t, ok := parseTicker(raw)
	if !ok {
		return models.Ticker{}, false
	}

	if cfg.MinVolume > 0 && t.Volume.LessThan(decimal.NewFromFloat(cfg.MinVolume)) {
		return models.Ticker{}, false
	}
	if cfg.MaxVolume > 0 && t.Volume.GreaterThan(decimal.NewFromFloat(cfg.MaxVolume)) {
		return models.Ticker{}, false
	}
	if cfg.MaxPrice > 0 && t.Price.GreaterThan(decimal.NewFromFloat(cfg.MaxPrice)) {
		return models.Ticker{}, false
	}
	if cfg.MinPrice > 0 && t.Price.LessThan(decimal.NewFromFloat(cfg.MinPrice)) {
		return models.Ticker{}, false
	}
	if cfg.Min24hChange != 0 && t.Change24h < cfg.Min24hChange {
		return models.Ticker{}, false
	}
	if cfg.Max24hChange != 0 && t.Change24h > cfg.Max24hChange {
		return models.Ticker{}, false
	}

	cov.RecordEligible(s)
	return t, true
}

// parseTicker - битые поля это штатный шум апстрима, просто пропускаем.
func parseTicker(raw models.RawTicker) (models.Ticker, bool) {
	price, err := decimal.NewFromString(string(raw.LastPrice))
	if err != nil {
		return models.Ticker{}, false
	}
	vol, err := decimal.NewFromString(string(raw.QuoteVolume))
	if err != nil {
		return models.Ticker{}, false
	}
	trades, err := strconv.ParseInt(string(raw.TradeCount), 10, 64)
	if err != nil {
		return models.Ticker{}, false
	}
	chg, err := strconv.ParseFloat(string(raw.PriceChangePct), 64)
	if err != nil {
		return models.Ticker{}, false
	}

	return models.Ticker{
		Symbol:    raw.Symbol,
		Price:     price,
		Volume:    vol,
		Trades:    trades,
		Change24h: chg,
	}, true
}
