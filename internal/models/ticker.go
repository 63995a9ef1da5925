package models

import (
	"bytes"

	"github.com/shopspring/decimal"
)

// RawNumber - числовое поле тикера как пришло с биржи.
// Binance отдаёт цены строками, а n числом; принимаем оба варианта.
type RawNumber string

func (n *RawNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		b = b[1 : len(b)-1]
	}
	*n = RawNumber(b)
	return nil
}

// RawTicker - элемент потока !ticker@arr (24hrTicker).
type RawTicker struct {
	EventType      string    `json:"e,omitempty"`
	Symbol         string    `json:"s"`
	LastPrice      RawNumber `json:"c"`
	QuoteVolume    RawNumber `json:"q"`
	TradeCount     RawNumber `json:"n"`
	PriceChangePct RawNumber `json:"P"`
}

// Ticker - распарсенный тикер, прошедший проверку формата.
type Ticker struct {
	Symbol    string
	Price     decimal.Decimal
	Volume    decimal.Decimal // 24h quote volume
	Trades    int64           // 24h trade count
	Change24h float64         // 24h price change, %
}
