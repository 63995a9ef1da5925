package service

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pump_screener/internal/models"
	"pump_screener/internal/modules/config"
	"pump_screener/pkg/logger"
)

const (
	readLimit  = 16 << 20 // !ticker@arr ~ несколько сотен КБ
	readWait   = 60 * time.Second
	writeWait  = 5 * time.Second
	maxBackoff = 30 * time.Second
)

// Ingest - куда отдаём батчи и статус соединения (движок).
type Ingest interface {
	Submit(batch []models.RawTicker) bool
	ConnectionStatus(ctx context.Context, st models.ConnectionStatus)
}

type TickTracker interface {
	TouchTick(t time.Time)
}

// Client - стример Binance futures !ticker@arr.
type Client struct {
	url          string
	pingInterval time.Duration
	statusEvery  time.Duration

	wsDialer *websocket.Dialer
	ingest   Ingest
	tracker  TickTracker

	mu     sync.RWMutex
	status models.ConnectionStatus
}

func NewClient(cfg *config.Config, ingest Ingest, tracker TickTracker) *Client {
	return &Client{
		url:          cfg.Binance.WSURL,
		pingInterval: cfg.Binance.PingInterval,
		statusEvery:  cfg.Binance.StatusEvery,
		wsDialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		ingest:       ingest,
		tracker:      tracker,
		status:       models.ConnectionStatus{Status: models.ConnectionError, Msg: "connecting"},
	}
}

// Start держит соединение до отмены ctx, переподключаясь с backoff.
func (c *Client) Start(ctx context.Context) {
	if c.statusEvery > 0 {
		go c.statusLoop(ctx)
	}

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		connected, err := c.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = time.Second
		}

		msg := "stream closed"
		if err != nil {
			msg = err.Error()
		}
		logger.Warn("[WS] binance stream lost: %s, retry in %s", msg, backoff)
		c.setStatus(ctx, models.ConnectionStatus{Status: models.ConnectionError, Msg: "Stream Status: " + msg})

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
	}
}

// consume - одно соединение: dial, ping, read-loop.
func (c *Client) consume(ctx context.Context) (bool, error) {
	logger.Info("[WS] connect %s", c.url)
	conn, _, err := c.wsDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	c.setStatus(ctx, models.ConnectionStatus{Status: models.ConnectionOK})

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	// Binance шлёт свои ping; отвечаем pong и продлеваем дедлайн
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	if c.pingInterval > 0 {
		go c.pingLoop(pingCtx, conn)
	}

	// закрываем соединение по отмене, чтобы разблокировать ReadMessage
	go func() {
		<-pingCtx.Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))

		batch, err := DecodeFrame(msg)
		if err != nil {
			logger.Debug("[WS] skip frame: %v", err)
			continue
		}
		if len(batch) == 0 {
			continue
		}
		if c.tracker != nil {
			c.tracker.TouchTick(time.Now())
		}
		c.ingest.Submit(batch)
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(c.pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.Warn("[WS] ping failed: %v", err)
				return
			}
		}
	}
}

// statusLoop периодически повторяет текущий статус для новых подписчиков.
func (c *Client) statusLoop(ctx context.Context) {
	t := time.NewTicker(c.statusEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.ingest.ConnectionStatus(ctx, c.Status())
		}
	}
}

func (c *Client) Status() models.ConnectionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Client) setStatus(ctx context.Context, st models.ConnectionStatus) {
	c.mu.Lock()
	c.status = st
	c.mu.Unlock()
	c.ingest.ConnectionStatus(ctx, st)
}
