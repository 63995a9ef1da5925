package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pump_screener/internal/models"
	"pump_screener/internal/modules/config"
	"pump_screener/pkg/logger"
)

const queueSize = 64

type sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram - алерты в чат. Без токена или chat_id работает вхолостую.
type Telegram struct {
	bot    *tgbot.BotAPI
	send   sender
	chatID int64

	queue chan tgbot.Chattable

	mu       sync.RWMutex
	coverage models.CoverageSnapshot
	conn     models.ConnectionStatus

	dropped atomic.Int64
}

func NewTelegram(cfg *config.Config) *Telegram {
	t := &Telegram{chatID: cfg.Telegram.ChatID, queue: make(chan tgbot.Chattable, queueSize)}
	if cfg.Telegram.Token == "" {
		logger.Info("[TG] token is empty, alerts disabled")
		return t
	}

	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		// без телеграма скринер всё равно полезен
		logger.Error("[TG] init bot: %v, alerts disabled", err)
		return t
	}
	t.bot = b
	t.send = b
	logger.Info("[TG] authorized as @%s", b.Self.UserName)
	return t
}

func (t *Telegram) Enabled() bool { return t.send != nil && t.chatID != 0 }

// Dropped - сколько сообщений не влезло в очередь.
func (t *Telegram) Dropped() int64 { return t.dropped.Load() }

func (t *Telegram) enqueue(c tgbot.Chattable) {
	select {
	case t.queue <- c:
	default:
		t.dropped.Add(1)
		logger.Warn("[TG] queue full, message dropped")
	}
}

// Start запускает отправку и, если бот поднят, приём команд.
func (t *Telegram) Start(ctx context.Context) {
	if t.send == nil {
		return
	}
	go t.sendLoop(ctx)
	if t.bot != nil {
		go t.updatesLoop(ctx)
	}
}

func (t *Telegram) Stop() {
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
}

func (t *Telegram) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-t.queue:
			if _, err := t.send.Send(c); err != nil {
				logger.Error("[TG] send: %v", err)
			}
		}
	}
}

func (t *Telegram) updatesLoop(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(update)
		}
	}
}

func (t *Telegram) handleUpdate(update tgbot.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}

	var text string
	switch msg.Command() {
	case "start", "help":
		text = "Команды:\n/stats - покрытие рынка\n/status - состояние потока Binance"
	case "stats":
		t.mu.RLock()
		text = formatCoverage(t.coverage)
		t.mu.RUnlock()
	case "status":
		t.mu.RLock()
		text = formatConnection(t.conn)
		t.mu.RUnlock()
	default:
		return
	}

	reply := tgbot.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID
	t.enqueue(reply)
}

// ---- Sink ----

func (t *Telegram) OnSignal(context.Context, models.SignalEvent) {}

func (t *Telegram) OnAlert(_ context.Context, symbol, msg string) {
	if !t.Enabled() {
		return
	}
	t.enqueue(tgbot.NewMessage(t.chatID, formatAlert(symbol, msg)))
}

func (t *Telegram) OnCoverageTick(_ context.Context, snap models.CoverageSnapshot) {
	t.mu.Lock()
	t.coverage = snap
	t.mu.Unlock()
}

func (t *Telegram) OnConnectionStatus(_ context.Context, st models.ConnectionStatus) {
	t.mu.Lock()
	t.conn = st
	t.mu.Unlock()
}

func formatAlert(symbol, msg string) string {
	return fmt.Sprintf("🚀 %s %s\nhttps://www.binance.com/en/futures/%s", symbol, msg, symbol)
}

func formatCoverage(s models.CoverageSnapshot) string {
	return fmt.Sprintf(
		"📊 Покрытие\n\n"+
			"Всего USDT: %d\n"+
			"Прошли фильтры: %d\n"+
			"Отсеяно: %d\n"+
			"Monitor: %d / Ignore: %d",
		s.SeenTotal, s.EligibleTotal, s.FilteredTotal, s.MonitorCount, s.IgnoreCount,
	)
}

func formatConnection(st models.ConnectionStatus) string {
	switch st.Status {
	case models.ConnectionOK:
		return "✅ Поток Binance подключён"
	case "":
		return "⏳ Подключение ещё не установлено"
	default:
		return "❌ " + st.Msg
	}
}
