package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"pump_screener/internal/models"
)

const timeLayout = "15:04:05"

// tickMeta - общие поля всех событий одного тикера.
type tickMeta struct {
	vol    string
	trades string
	at     time.Time
}

func newTickMeta(t models.Ticker, at time.Time) tickMeta {
	return tickMeta{
		vol:    FormatVolume(t.Volume),
		trades: FormatTrades(t.Trades),
		at:     at,
	}
}

// FormatVolume: >= 1M -> "120.5M", иначе "500K".
func FormatVolume(v decimal.Decimal) string {
	f := v.InexactFloat64()
	if f >= 1_000_000 {
		return fmt.Sprintf("%.1fM", f/1_000_000)
	}
	return fmt.Sprintf("%.0fK", f/1_000)
}

// FormatTrades: >= 1M -> "1.2M", >= 1K -> "15.3K", иначе как есть.
func FormatTrades(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// GroupThousands: 1234567 -> "1 234 567".
func GroupThousands(n int64) string {
	return strings.ReplaceAll(humanize.Comma(n), ",", " ")
}

// RenderPrice: до 8 знаков, без хвостовых нулей и точки.
func RenderPrice(p decimal.Decimal) string {
	return p.Round(8).String()
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// auditRecord - строка аудит-лога для события.
func auditRecord(ev models.SignalEvent) models.AuditRecord {
	rec := models.AuditRecord{
		Symbol:      ev.Symbol,
		Type:        string(ev.Kind),
		Price:       RenderPrice(ev.Price),
		ChangePct:   fmtFloat(ev.ChangePct),
		Change24h:   fmtFloat(ev.Change24h),
		VolDeltaUSD: "0",
		TradesDelta: "0",
		Vol24h:      ev.Vol24h,
		Trades24h:   ev.Trades24h,
		Time:        ev.Time.Format(timeLayout),
	}

	switch ev.Kind {
	case models.SignalPriceUp:
		rec.Message = fmt.Sprintf("Change: +%s%% (Step %d/%d)", fmtFloat(ev.ChangePct), ev.Step, ev.Steps)
	case models.SignalVolumeUp:
		delta := GroupThousands(ev.VolDeltaUSD.IntPart())
		rec.VolDeltaUSD = delta
		rec.Message = fmt.Sprintf("Vol Chg: +%s%% ($%s)", fmtFloat(ev.VolChangePct), delta)
	case models.SignalTradesUp:
		rec.TradesDelta = GroupThousands(ev.TradesDelta)
		rec.Message = fmt.Sprintf("Trades Chg: +%s%% (+%d)", fmtFloat(ev.TradesChangePct), ev.TradesDelta)
	}
	return rec
}

// sessionRecord - строка-разделитель новой сессии.
func sessionRecord(ts string) models.AuditRecord {
	return models.AuditRecord{
		Type:    "SESSION",
		Time:    ts,
		Message: models.SessionMarker,
	}
}
