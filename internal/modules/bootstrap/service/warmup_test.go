package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"pump_screener/internal/models"
	"pump_screener/internal/modules/config"
	"pump_screener/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Nop()
	os.Exit(m.Run())
}

type captureIngest struct {
	batches [][]models.RawTicker
	full    bool
}

func (c *captureIngest) Submit(batch []models.RawTicker) bool {
	if c.full {
		return false
	}
	c.batches = append(c.batches, batch)
	return true
}

func newWarmuper(t *testing.T, status int, body string, ingest Ingest) *Warmuper {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Binance.RESTURL = srv.URL
	return NewWarmuper(cfg, ingest)
}

func TestWarmupSubmitsSnapshot(t *testing.T) {
	body := `[
		{"symbol":"ABCUSDT","priceChange":"0.1","priceChangePercent":"1.00","lastPrice":"10.10","lastQty":"3","quoteVolume":"5000000.5","count":1200},
		{"symbol":"","lastPrice":"1"}
	]`
	ingest := &captureIngest{}
	w := newWarmuper(t, http.StatusOK, body, ingest)

	n, err := w.Warmup(context.Background())
	if err != nil {
		t.Fatalf("Warmup error: %v", err)
	}
	if n != 1 || len(ingest.batches) != 1 {
		t.Fatalf("n = %d, batches = %d", n, len(ingest.batches))
	}
	want := models.RawTicker{
		EventType:      "24hrTicker",
		Symbol:         "ABCUSDT",
		LastPrice:      "10.10",
		QuoteVolume:    "5000000.5",
		TradeCount:     "1200",
		PriceChangePct: "1.00",
	}
	if got := ingest.batches[0][0]; got != want {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestWarmupErrors(t *testing.T) {
	if _, err := newWarmuper(t, http.StatusTeapot, "nope", &captureIngest{}).Warmup(context.Background()); err == nil {
		t.Fatal("expected error on non-2xx")
	}
	if _, err := newWarmuper(t, http.StatusOK, "{", &captureIngest{}).Warmup(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
	full := &captureIngest{full: true}
	if _, err := newWarmuper(t, http.StatusOK, `[{"symbol":"ABCUSDT","lastPrice":"1"}]`, full).Warmup(context.Background()); err == nil {
		t.Fatal("expected error on full queue")
	}
}
