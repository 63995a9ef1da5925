package service

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pump_screener/internal/models"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func TestCSVAppend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	c := NewCSV(dir, "binance_data_")
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return day }

	rec := models.AuditRecord{
		Symbol:      "ABCUSDT",
		Type:        "VOLUME UP",
		Price:       "1.5",
		ChangePct:   "0",
		Change24h:   "2.5",
		VolDeltaUSD: "60 000",
		TradesDelta: "0",
		Vol24h:      "1.1M",
		Trades24h:   "500",
		Time:        "10:00:00",
		Message:     "Vol Chg: +6% ($60 000)",
	}
	for i := 0; i < 2; i++ {
		if err := c.Append(context.Background(), rec); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	path := c.PathFor(day)
	if filepath.Base(path) != "binance_data_2024-03-01.csv" {
		t.Fatalf("path = %s", path)
	}
	rows := readRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "Symbol" || len(rows[0]) != len(models.AuditHeader) {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][5] != "60 000" || rows[2][10] != rec.Message {
		t.Fatalf("row = %v", rows[1])
	}
}

func TestCSVRollsOverByDay(t *testing.T) {
	c := NewCSV(t.TempDir(), "p_")
	day := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	c.now = func() time.Time { return day }

	if err := c.EnsureHeader(); err != nil {
		t.Fatal(err)
	}
	// повторный вызов не дублирует заголовок
	if err := c.EnsureHeader(); err != nil {
		t.Fatal(err)
	}
	if rows := readRows(t, c.PathFor(day)); len(rows) != 1 {
		t.Fatalf("header rows = %d", len(rows))
	}

	next := day.Add(2 * time.Minute)
	c.now = func() time.Time { return next }
	if err := c.Append(context.Background(), models.AuditRecord{Message: models.SessionMarker}); err != nil {
		t.Fatal(err)
	}
	rows := readRows(t, c.PathFor(next))
	if len(rows) != 2 || rows[1][10] != models.SessionMarker {
		t.Fatalf("next day rows = %v", rows)
	}
}

type failingLog struct{ err error }

func (f failingLog) Append(context.Context, models.AuditRecord) error { return f.err }

type countingLog struct{ n int }

func (c *countingLog) Append(context.Context, models.AuditRecord) error {
	c.n++
	return nil
}

func TestMultiCollectsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	ok := &countingLog{}

	m := NewMulti(failingLog{errA}, nil, ok, failingLog{errB})
	if len(m) != 3 {
		t.Fatalf("nil log kept, len = %d", len(m))
	}

	err := m.Append(context.Background(), models.AuditRecord{})
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("err = %v, want both", err)
	}
	if ok.n != 1 {
		t.Fatal("healthy log skipped after failure")
	}

	if err := NewMulti(ok).Append(context.Background(), models.AuditRecord{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
