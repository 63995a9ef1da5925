package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pump_screener/internal/models"
	"pump_screener/internal/modules/config"
	"pump_screener/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Nop()
	os.Exit(m.Run())
}

type fakeIngest struct {
	mu      sync.Mutex
	batches [][]models.RawTicker
	status  []models.ConnectionStatus
}

func (f *fakeIngest) Submit(batch []models.RawTicker) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	return true
}

func (f *fakeIngest) ConnectionStatus(_ context.Context, st models.ConnectionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = append(f.status, st)
}

func (f *fakeIngest) counts() (int, []models.ConnectionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches), append([]models.ConnectionStatus(nil), f.status...)
}

type fakeTracker struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeTracker) TouchTick(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

func TestClientStreamsBatches(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"result":null,"id":1}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte("["+binanceTicker+"]"))
		// держим соединение, пока клиент не уйдёт
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Binance.WSURL = "ws" + strings.TrimPrefix(srv.URL, "http")

	ingest := &fakeIngest{}
	tracker := &fakeTracker{}
	c := NewClient(cfg, ingest, tracker)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if n, _ := ingest.counts(); n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	n, status := ingest.counts()
	if n != 1 {
		t.Fatalf("batches = %d, want 1", n)
	}
	if len(status) == 0 || status[0].Status != models.ConnectionOK {
		t.Fatalf("status = %+v", status)
	}
	if c.Status().Status != models.ConnectionOK {
		t.Fatalf("client status = %+v", c.Status())
	}
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if tracker.t.IsZero() {
		t.Fatal("tick tracker not touched")
	}
}

func TestClientReportsDialError(t *testing.T) {
	cfg := &config.Config{}
	cfg.Binance.WSURL = "ws://127.0.0.1:1/ws"

	ingest := &fakeIngest{}
	c := NewClient(cfg, ingest, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, st := ingest.counts(); len(st) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	_, status := ingest.counts()
	if len(status) == 0 || status[0].Status != models.ConnectionError {
		t.Fatalf("status = %+v", status)
	}
	if !strings.HasPrefix(status[0].Msg, "Stream Status: ") {
		t.Fatalf("msg = %q", status[0].Msg)
	}
}
