package service

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"pump_screener/internal/metrics"
	"pump_screener/internal/models"
	"pump_screener/pkg/logger"
)

// Имена сообщений для дашборда.
const (
	EventHistory          = "history"
	EventNewSignal        = "new_signal"
	EventAlert            = "alert"
	EventStats            = "stats"
	EventConnectionStatus = "connection_status"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type AlertPayload struct {
	Symbol string `json:"symbol"`
	Msg    string `json:"msg"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub - раздача событий подключённым дашбордам. Медленный клиент
// отключается, движок никогда не ждёт.
type Hub struct {
	sendBuf int

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		sendBuf: 256,
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Attach регистрирует соединение и первым сообщением отдаёт историю.
// Снимок истории берётся под тем же локом, что и регистрация: событие
// либо уже в истории, либо придёт живым сообщением.
func (h *Hub) Attach(conn *websocket.Conn, history func() []models.SignalEvent) {
	c := &client{conn: conn, send: make(chan []byte, h.sendBuf)}

	h.mu.Lock()
	events := history()
	if events == nil {
		events = []models.SignalEvent{}
	}
	if b, err := encode(EventHistory, events); err == nil {
		c.send <- b
	} else {
		logger.Error("[DASH] encode history: %v", err)
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.DashboardClients.Set(float64(n))

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) detach(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.DashboardClients.Set(float64(n))
}

func (h *Hub) broadcast(event string, data any) {
	b, err := encode(event, data)
	if err != nil {
		logger.Error("[DASH] encode %s: %v", event, err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		metrics.DashboardDropped.Inc()
		logger.Debug("[DASH] drop slow client %s", c.conn.RemoteAddr())
		h.detach(c)
	}
}

func encode(event string, data any) ([]byte, error) {
	return sonic.Marshal(Message{Event: event, Data: data})
}

func (h *Hub) writePump(c *client) {
	t := time.NewTicker(pingPeriod)
	defer func() {
		t.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				logger.Debug("[DASH] write error: %v", err)
				h.detach(c)
				return
			}
		case <-t.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.detach(c)
				return
			}
		}
	}
}

// readPump нужен только чтобы заметить закрытие и обработать pong.
func (h *Hub) readPump(c *client) {
	defer h.detach(c)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ---- Sink ----

func (h *Hub) OnSignal(_ context.Context, ev models.SignalEvent) {
	h.broadcast(EventNewSignal, ev)
}

func (h *Hub) OnAlert(_ context.Context, symbol, msg string) {
	h.broadcast(EventAlert, AlertPayload{Symbol: symbol, Msg: msg})
}

func (h *Hub) OnCoverageTick(_ context.Context, snap models.CoverageSnapshot) {
	h.broadcast(EventStats, snap)
}

func (h *Hub) OnConnectionStatus(_ context.Context, st models.ConnectionStatus) {
	h.broadcast(EventConnectionStatus, st)
}
