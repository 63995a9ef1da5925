package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"pump_screener/internal/models"
	"pump_screener/pkg/logger"
)

type backend interface {
	push(ctx context.Context, payload []byte) error
}

// redisBackend публикует событие в канал и держит хвост последних
// событий в списке <channel>:recent.
type redisBackend struct {
	client  *redis.Client
	channel string
	recent  string
	keep    int64
}

func (r redisBackend) push(ctx context.Context, payload []byte) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Publish(ctx, r.channel, payload)
		p.LPush(ctx, r.recent, payload)
		if r.keep > 0 {
			p.LTrim(ctx, r.recent, 0, r.keep-1)
		}
		return nil
	})
	return errors.Wrap(err, "redis pipeline")
}

// Bus - подписчик движка, пересылающий сигналы и алерты в Redis.
type Bus struct {
	b     backend
	queue chan []byte

	dropped atomic.Int64
	wg      sync.WaitGroup
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type alertPayload struct {
	Symbol string `json:"symbol"`
	Msg    string `json:"msg"`
}

func NewBus(client *redis.Client, channel string, keep int64) *Bus {
	return newBus(redisBackend{
		client:  client,
		channel: channel,
		recent:  channel + ":recent",
		keep:    keep,
	}, 1024)
}

func newBus(b backend, size int) *Bus {
	return &Bus{b: b, queue: make(chan []byte, size)}
}

func (s *Bus) Dropped() int64 { return s.dropped.Load() }

func (s *Bus) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case payload := <-s.queue:
				if err := s.b.push(ctx, payload); err != nil {
					logger.Error("[BUS] push: %v", err)
				}
			}
		}
	}()
}

func (s *Bus) Wait() { s.wg.Wait() }

func (s *Bus) enqueue(event string, data any) {
	payload, err := sonic.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		logger.Error("[BUS] encode %s: %v", event, err)
		return
	}
	select {
	case s.queue <- payload:
	default:
		s.dropped.Add(1)
	}
}

func (s *Bus) OnSignal(_ context.Context, ev models.SignalEvent) {
	s.enqueue("new_signal", ev)
}

func (s *Bus) OnAlert(_ context.Context, symbol, msg string) {
	s.enqueue("alert", alertPayload{Symbol: symbol, Msg: msg})
}

func (s *Bus) OnCoverageTick(context.Context, models.CoverageSnapshot)     {}
func (s *Bus) OnConnectionStatus(context.Context, models.ConnectionStatus) {}
