package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SignalKind string

const (
	SignalPriceUp  SignalKind = "PRICE UP"
	SignalVolumeUp SignalKind = "VOLUME UP"
	SignalTradesUp SignalKind = "TRADES UP"
)

// SignalEvent - событие детектора. После создания не меняется.
type SignalEvent struct {
	ID     string          `json:"id"`
	Kind   SignalKind      `json:"type"`
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`

	// PRICE UP
	PrevPrice decimal.Decimal `json:"prev"`
	ChangePct float64         `json:"change"`
	Streak    int             `json:"count,omitempty"`
	Step      int             `json:"step,omitempty"`
	Steps     int             `json:"steps,omitempty"`

	// VOLUME UP
	VolChangePct float64         `json:"vol_change_pct,omitempty"`
	VolDeltaUSD  decimal.Decimal `json:"vol_delta_usd"`
	VolDelta     string          `json:"vol_delta,omitempty"`

	// TRADES UP
	TradesChangePct float64 `json:"trades_change_pct,omitempty"`
	TradesDelta     int64   `json:"trades_delta,omitempty"`

	Vol24h    string    `json:"vol_24h"`
	Trades24h string    `json:"trades"`
	Change24h float64   `json:"24h_chg"`
	Time      time.Time `json:"time"`
	Alert     bool      `json:"alert"`
}
