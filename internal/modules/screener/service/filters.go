package service

import (
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"pump_screener/internal/models"
	"pump_screener/internal/modules/config"
	"pump_screener/pkg/logger"
)

const minAllowed24hChange = -99

// Ключи формы /update_params.
const (
	FieldMinVolume       = "min_vol"
	FieldMaxVolume       = "max_vol"
	FieldMinPrice        = "min_price"
	FieldMaxPrice        = "max_price"
	FieldMin24hChange    = "min_24h_chg"
	FieldMax24hChange    = "max_24h_chg"
	FieldPriceThreshold  = "price_thr"
	FieldVolumeBurst     = "vol_burst"
	FieldTradesThreshold = "trades_thr"
)

// FilterStore держит текущие пороги. Чтение без блокировок, запись
// подменяет снапшот целиком.
type FilterStore struct {
	cur atomic.Pointer[models.FilterConfig]
}

func NewFilterStore(cfg *config.Config) *FilterStore {
	s := &FilterStore{}
	initial := cfg.Filters
	initial.Min24hChange = math.Max(initial.Min24hChange, minAllowed24hChange)
	s.cur.Store(&initial)
	return s
}

func (s *FilterStore) Get() models.FilterConfig {
	return *s.cur.Load()
}

// Update разбирает каждое поле отдельно; мусор во входе заменяется
// дефолтом поля, вызов целиком не падает никогда.
func (s *FilterStore) Update(raw map[string]string) error {
	next := models.FilterConfig{
		MinVolume:       parseInt(raw[FieldMinVolume], 0),
		MaxVolume:       parseInt(raw[FieldMaxVolume], 100_000_000_000),
		MaxPrice:        parseFloat(raw[FieldMaxPrice], 1_000_000),
		MinPrice:        parseFloat(raw[FieldMinPrice], 0),
		Min24hChange:    math.Max(parseFloat(raw[FieldMin24hChange], 0), minAllowed24hChange),
		Max24hChange:    parseFloat(raw[FieldMax24hChange], 0),
		PriceThreshold:  parseFloat(raw[FieldPriceThreshold], 0),
		VolumeBurst:     parseFloat(raw[FieldVolumeBurst], 0),
		TradesThreshold: parseFloat(raw[FieldTradesThreshold], 0),
	}
	s.cur.Store(&next)

	logger.Info(
		"Params updated: PriceThreshold=%v, VolBurst=%v, TradesThr=%v, MinVol=%v, MaxVol=%v, MinPrice=%v, MaxPrice=%v, Min24h%%=%v, Max24h%%=%v",
		next.PriceThreshold, next.VolumeBurst, next.TradesThreshold,
		next.MinVolume, next.MaxVolume, next.MinPrice, next.MaxPrice,
		next.Min24hChange, next.Max24hChange,
	)
	return nil
}

// cleanNumber убирает пробелы (разделители тысяч) и меняет запятую на точку.
func cleanNumber(val string) string {
	return strings.ReplaceAll(strings.Join(strings.Fields(val), ""), ",", ".")
}

func parseFloat(val string, def float64) float64 {
	cleaned := cleanNumber(val)
	if cleaned == "" {
		return def
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// parseInt - объёмы задаются целыми, "1.5" считается мусором.
func parseInt(val string, def int64) float64 {
	cleaned := cleanNumber(val)
	if cleaned == "" {
		return float64(def)
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return float64(def)
	}
	return float64(n)
}
