package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pump_screener/internal/models"
	"pump_screener/pkg/logger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProcessFirstTickSeedsAnchors(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{PriceThreshold: 0.1, VolumeBurst: 5, TradesThreshold: 5})

	evs := e.Process(context.Background(), []models.RawTicker{tick("ABCUSDT", "10.00", "1000000", 500)})
	if len(evs) != 0 {
		t.Fatalf("first tick must not emit, got %d events", len(evs))
	}

	st, ok := e.Anchor("ABCUSDT")
	if !ok {
		t.Fatal("anchor not created")
	}
	if !st.PriceAnchor.Equal(dec("10")) || !st.VolumeAnchor.Equal(dec("1000000")) || st.TradeAnchor != 500 {
		t.Fatalf("unexpected seed state: %+v", st)
	}
	if st.PriceUpStreak != 0 {
		t.Fatalf("streak = %d, want 0", st.PriceUpStreak)
	}
}

func TestProcessPriceSteps(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{PriceThreshold: 0.1})
	ctx := context.Background()

	e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10.00", "1000000", 500)})
	evs := e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10.03", "1000000", 500)})

	if len(evs) != 3 {
		t.Fatalf("got %d events, want 3", len(evs))
	}

	wantPrice := []string{"10.01", "10.02", "10.03"}
	wantPrev := []string{"10", "10.01", "10.02"}
	for i, ev := range evs {
		if ev.Kind != models.SignalPriceUp {
			t.Fatalf("event %d kind = %s", i, ev.Kind)
		}
		if ev.Streak != i+1 || ev.Step != i+1 || ev.Steps != 3 {
			t.Fatalf("event %d streak/step = %d/%d/%d", i, ev.Streak, ev.Step, ev.Steps)
		}
		if !ev.Price.Equal(dec(wantPrice[i])) {
			t.Fatalf("event %d price = %s, want %s", i, ev.Price, wantPrice[i])
		}
		if !ev.PrevPrice.Equal(dec(wantPrev[i])) {
			t.Fatalf("event %d prev = %s, want %s", i, ev.PrevPrice, wantPrev[i])
		}
		if ev.ChangePct != 0.1 {
			t.Fatalf("event %d change = %v", i, ev.ChangePct)
		}
		if ev.Alert != (i == 2) {
			t.Fatalf("event %d alert = %v", i, ev.Alert)
		}
		if !ev.Time.Equal(fixedNow) {
			t.Fatalf("event %d time = %v", i, ev.Time)
		}
		if ev.ID == "" {
			t.Fatalf("event %d has no id", i)
		}
	}

	st, _ := e.Anchor("ABCUSDT")
	if !st.PriceAnchor.Equal(dec("10.03")) {
		t.Fatalf("anchor = %s, want 10.03", st.PriceAnchor)
	}
	if st.PriceUpStreak != 3 {
		t.Fatalf("streak = %d, want 3", st.PriceUpStreak)
	}

	if len(e.sink.signals) != 3 {
		t.Fatalf("sink got %d signals", len(e.sink.signals))
	}
	if len(e.sink.alerts) != 1 || e.sink.alerts[0] != "ABCUSDT PUMP 3x" {
		t.Fatalf("alerts = %v", e.sink.alerts)
	}
	if len(e.audit.recs) != 3 {
		t.Fatalf("audit got %d rows", len(e.audit.recs))
	}
	if got := e.audit.recs[2].Message; got != "Change: +0.1% (Step 3/3)" {
		t.Fatalf("audit message = %q", got)
	}

	// история newest-first: последний шаг первым
	h := e.History()
	if len(h) != 3 || h[0].Step != 3 || h[2].Step != 1 {
		t.Fatalf("history order broken: %+v", h)
	}
}

func TestProcessSubThresholdKeepsAnchor(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{PriceThreshold: 1})
	ctx := context.Background()

	e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10", "1000", 1)})
	if evs := e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10.05", "1000", 1)}); len(evs) != 0 {
		t.Fatalf("0.5%% rise with 1%% threshold emitted %d events", len(evs))
	}
	st, _ := e.Anchor("ABCUSDT")
	if !st.PriceAnchor.Equal(dec("10")) {
		t.Fatalf("anchor moved to %s", st.PriceAnchor)
	}

	// накопленный рост всё-таки срабатывает
	evs := e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10.10", "1000", 1)})
	if len(evs) != 1 {
		t.Fatalf("cumulative 1%% rise: got %d events, want 1", len(evs))
	}
}

func TestProcessPriceStepsCapped(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{PriceThreshold: 1e-12})
	ctx := context.Background()

	e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10", "1000", 1)})
	evs := e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "20", "1000", 1)})
	if len(evs) != maxPriceSteps {
		t.Fatalf("got %d events, want %d", len(evs), maxPriceSteps)
	}
	if last := evs[len(evs)-1]; last.Steps != maxPriceSteps || last.Step != maxPriceSteps {
		t.Fatalf("last step = %d/%d", last.Step, last.Steps)
	}
	st, _ := e.Anchor("ABCUSDT")
	if !st.PriceAnchor.Equal(dec("20")) {
		t.Fatalf("anchor = %s, want 20", st.PriceAnchor)
	}
}

func TestProcessPriceDropKeepsAnchor(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{PriceThreshold: 1})
	ctx := context.Background()

	e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10", "1000", 1)})
	e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "9", "1000", 1)})

	st, _ := e.Anchor("ABCUSDT")
	if !st.PriceAnchor.Equal(dec("10")) {
		t.Fatalf("price drop moved anchor to %s", st.PriceAnchor)
	}
}

func TestProcessVolumeBurst(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{VolumeBurst: 5})
	ctx := context.Background()

	e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "1", "1000000", 1)})
	evs := e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "1", "1060000", 1)})

	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	ev := evs[0]
	if ev.Kind != models.SignalVolumeUp {
		t.Fatalf("kind = %s", ev.Kind)
	}
	if !ev.VolDeltaUSD.Equal(dec("60000")) {
		t.Fatalf("delta = %s", ev.VolDeltaUSD)
	}
	if ev.VolChangePct != 6 {
		t.Fatalf("pct = %v", ev.VolChangePct)
	}
	if ev.VolDelta != "60 000" {
		t.Fatalf("formatted delta = %q", ev.VolDelta)
	}
	st, _ := e.Anchor("ABCUSDT")
	if !st.VolumeAnchor.Equal(dec("1060000")) {
		t.Fatalf("anchor = %s", st.VolumeAnchor)
	}
	if got := e.audit.recs[0].VolDeltaUSD; got != "60 000" {
		t.Fatalf("audit delta = %q", got)
	}
}

func TestProcessVolumeFallRebases(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{VolumeBurst: 5})
	ctx := context.Background()

	e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "1", "1000000", 1)})
	if evs := e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "1", "800000", 1)}); len(evs) != 0 {
		t.Fatalf("fall emitted %d events", len(evs))
	}
	st, _ := e.Anchor("ABCUSDT")
	if !st.VolumeAnchor.Equal(dec("800000")) {
		t.Fatalf("anchor = %s, want 800000", st.VolumeAnchor)
	}

	// +5% от нового якоря
	evs := e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "1", "840000", 1)})
	if len(evs) != 1 || evs[0].VolChangePct != 5 {
		t.Fatalf("burst from rebased anchor: %+v", evs)
	}
}

func TestProcessTradesBurst(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{TradesThreshold: 10})
	ctx := context.Background()

	e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "1", "1000", 1000)})
	if evs := e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "1", "1000", 1050)}); len(evs) != 0 {
		t.Fatalf("5%% rise emitted %d events", len(evs))
	}
	evs := e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "1", "1000", 1200)})
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	if evs[0].Kind != models.SignalTradesUp || evs[0].TradesDelta != 200 || evs[0].TradesChangePct != 20 {
		t.Fatalf("unexpected event: %+v", evs[0])
	}
	if got := e.audit.recs[0].Message; got != "Trades Chg: +20% (+200)" {
		t.Fatalf("audit message = %q", got)
	}
}

func TestProcessDetectorOrder(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{PriceThreshold: 1, VolumeBurst: 1, TradesThreshold: 1})
	ctx := context.Background()

	e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10", "1000", 100)})
	evs := e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10.1", "2000", 200)})

	want := []models.SignalKind{models.SignalPriceUp, models.SignalVolumeUp, models.SignalTradesUp}
	if len(evs) != len(want) {
		t.Fatalf("got %d events", len(evs))
	}
	for i := range want {
		if evs[i].Kind != want[i] {
			t.Fatalf("event %d = %s, want %s", i, evs[i].Kind, want[i])
		}
	}
}

func TestProcessRejectsNonUSDTAndUnderscore(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{PriceThreshold: 0.1})
	ctx := context.Background()

	batch := []models.RawTicker{
		tick("XYZ_PERP", "1", "1000", 1),
		tick("BTCUSDT_240628", "1", "1000", 1),
		tick("ETHBUSD", "1", "1000", 1),
	}
	e.Process(ctx, batch)

	if n := e.anchors.Len(); n != 0 {
		t.Fatalf("anchors created for rejected symbols: %d", n)
	}
	snap := e.CoverageSnapshot()
	if snap.SeenTotal != 0 {
		t.Fatalf("rejected symbols counted as seen: %d", snap.SeenTotal)
	}
}

func TestProcessFiltersAndCoverage(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{
		MinVolume: 1000,
		MaxPrice:  50,
	})
	ctx := context.Background()

	bad := tick("BADUSDT", "1", "1000", 1)
	bad.LastPrice = "n/a"

	e.Process(ctx, []models.RawTicker{
		tick("AAAUSDT", "1", "5000", 1),   // проходит
		tick("BBBUSDT", "1", "10", 1),     // мал объём
		tick("CCCUSDT", "100", "5000", 1), // дорогой
		bad,
	})

	snap := e.CoverageSnapshot()
	if snap.SeenTotal != 4 || snap.EligibleTotal != 1 || snap.FilteredTotal != 3 {
		t.Fatalf("coverage = %+v", snap)
	}
	if snap.Timestamp != "12:30:45" {
		t.Fatalf("ts = %q", snap.Timestamp)
	}
	if _, ok := e.Anchor("BBBUSDT"); ok {
		t.Fatal("filtered symbol got anchors")
	}
	if _, ok := e.Anchor("AAAUSDT"); !ok {
		t.Fatal("eligible symbol has no anchors")
	}
}

func TestProcessLists(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{})
	ctx := context.Background()

	if err := e.AddToIgnore(ctx, "aaausdt"); err != nil {
		t.Fatal(err)
	}
	e.Process(ctx, []models.RawTicker{tick("AAAUSDT", "1", "1000", 1), tick("BBBUSDT", "1", "1000", 1)})
	if _, ok := e.Anchor("AAAUSDT"); ok {
		t.Fatal("ignored symbol evaluated")
	}
	if _, ok := e.Anchor("BBBUSDT"); !ok {
		t.Fatal("empty monitor list must allow everything")
	}

	if err := e.AddToMonitor(ctx, "CCCUSDT"); err != nil {
		t.Fatal(err)
	}
	e.Process(ctx, []models.RawTicker{tick("DDDUSDT", "1", "1000", 1), tick("CCCUSDT", "1", "1000", 1)})
	if _, ok := e.Anchor("DDDUSDT"); ok {
		t.Fatal("symbol outside monitor list evaluated")
	}
	if _, ok := e.Anchor("CCCUSDT"); !ok {
		t.Fatal("monitored symbol not evaluated")
	}

	snap := e.CoverageSnapshot()
	if snap.MonitorCount != 1 || snap.IgnoreCount != 1 {
		t.Fatalf("list counts = %d/%d", snap.MonitorCount, snap.IgnoreCount)
	}
	// ignored и вне monitor всё равно видны в seen
	if snap.SeenTotal != 4 || snap.EligibleTotal != 2 {
		t.Fatalf("coverage = %+v", snap)
	}
}

func TestResetSession(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{PriceThreshold: 1})
	ctx := context.Background()

	e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10", "1000", 1)})
	e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10.2", "1000", 1)})
	if len(e.History()) != 2 {
		t.Fatalf("history = %d", len(e.History()))
	}

	e.ResetSession(ctx)

	if len(e.History()) != 0 {
		t.Fatal("history not cleared")
	}
	st, _ := e.Anchor("ABCUSDT")
	if st.PriceUpStreak != 0 {
		t.Fatalf("streak = %d after reset", st.PriceUpStreak)
	}
	if !st.PriceAnchor.Equal(dec("10.2")) {
		t.Fatalf("reset touched anchor: %s", st.PriceAnchor)
	}
	if snap := e.CoverageSnapshot(); snap.SeenTotal != 0 || snap.EligibleTotal != 0 {
		t.Fatalf("coverage not reset: %+v", snap)
	}

	last := e.audit.recs[len(e.audit.recs)-1]
	if last.Message != models.SessionMarker || last.Time != "12:30:45" {
		t.Fatalf("session marker = %+v", last)
	}

	// следующий шаг сравнивается со старым якорем, счётчик с нуля
	evs := e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10.302", "1000", 1)})
	if len(evs) != 1 || evs[0].Streak != 1 {
		t.Fatalf("after reset: %+v", evs)
	}
}

func TestAuditErrorDoesNotStopProcessing(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{PriceThreshold: 1})
	e.audit.err = errDisk
	ctx := context.Background()

	e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10", "1000", 1)})
	evs := e.Process(ctx, []models.RawTicker{tick("ABCUSDT", "10.1", "1000", 1)})
	if len(evs) != 1 || len(e.sink.signals) != 1 {
		t.Fatalf("audit failure blocked events: %d/%d", len(evs), len(e.sink.signals))
	}
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{})
	batch := []models.RawTicker{tick("ABCUSDT", "1", "1", 1)}

	for i := 0; i < cap(e.queue); i++ {
		if !e.Submit(batch) {
			t.Fatalf("submit %d rejected", i)
		}
	}
	if e.Submit(batch) {
		t.Fatal("submit into full queue accepted")
	}
	if e.Submit(nil) {
		t.Fatal("empty batch accepted")
	}
}

func TestSubmitDropWarningIsThrottled(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	prev := logger.InfoLogger
	logger.InfoLogger = zap.New(core)
	defer func() { logger.InfoLogger = prev }()

	e := newTestEngine(t, models.FilterConfig{})
	batch := []models.RawTicker{tick("ABCUSDT", "1", "1", 1)}
	for i := 0; i < cap(e.queue); i++ {
		e.Submit(batch)
	}

	for i := 0; i < 5; i++ {
		e.Submit(batch)
	}
	if n := logs.Len(); n != 1 {
		t.Fatalf("warnings after burst = %d, want 1", n)
	}

	e.now = func() time.Time { return fixedNow.Add(dropLogEvery) }
	e.Submit(batch)
	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("warnings after interval = %d, want 2", len(entries))
	}
	if !strings.Contains(entries[1].Message, "dropped 5 batches") {
		t.Fatalf("second warning = %q", entries[1].Message)
	}
}

func TestRunProcessesQueue(t *testing.T) {
	e := newTestEngine(t, models.FilterConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	e.Submit([]models.RawTicker{tick("ABCUSDT", "1", "1", 1)})
	waitFor(t, func() bool {
		_, ok := e.Anchor("ABCUSDT")
		return ok
	})

	cancel()
	<-done
}
