package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"pump_screener/internal/models"
	"pump_screener/internal/modules/config"
	"pump_screener/pkg/logger"
)

// Ingest - куда отдаём REST-снимок.
type Ingest interface {
	Submit(batch []models.RawTicker) bool
}

// restTicker - строка ответа /fapi/v1/ticker/24hr.
type restTicker struct {
	Symbol             string           `json:"symbol"`
	LastPrice          models.RawNumber `json:"lastPrice"`
	QuoteVolume        models.RawNumber `json:"quoteVolume"`
	Count              models.RawNumber `json:"count"`
	PriceChangePercent models.RawNumber `json:"priceChangePercent"`
}

// Warmuper засевает якоря одним REST-снимком, чтобы первый же
// тик стрима уже сравнивался с рынком.
type Warmuper struct {
	url    string
	http   *http.Client
	ingest Ingest
}

func NewWarmuper(cfg *config.Config, ingest Ingest) *Warmuper {
	return &Warmuper{
		url:    cfg.Binance.RESTURL,
		http:   &http.Client{Timeout: 10 * time.Second},
		ingest: ingest,
	}
}

func (w *Warmuper) Warmup(ctx context.Context) (int, error) {
	batch, err := w.fetch(ctx)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if !w.ingest.Submit(batch) {
		return 0, errors.New("engine queue is full")
	}
	return len(batch), nil
}

func (w *Warmuper) fetch(ctx context.Context) ([]models.RawTicker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "get tickers")
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("non-2xx: %d %s", resp.StatusCode, string(b))
	}

	var rows []restTicker
	if err := sonic.Unmarshal(b, &rows); err != nil {
		return nil, errors.Wrap(err, "decode tickers")
	}

	out := make([]models.RawTicker, 0, len(rows))
	for _, r := range rows {
		if r.Symbol == "" {
			continue
		}
		out = append(out, models.RawTicker{
			EventType:      "24hrTicker",
			Symbol:         r.Symbol,
			LastPrice:      r.LastPrice,
			QuoteVolume:    r.QuoteVolume,
			TradeCount:     r.Count,
			PriceChangePct: r.PriceChangePercent,
		})
	}
	logger.Debug("[BOOT] fetched %d tickers", len(out))
	return out, nil
}
