package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"

	"pump_screener/internal/models"
)

const eventTicker = "24hrTicker"

type frame struct {
	Stream    string          `json:"stream"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"e"`
	EventTime int64           `json:"E"`
	Result    json.RawMessage `json:"result"`
	ID        *int64          `json:"id"`
}

// wireTicker - тикер как его шлёт Binance. Поля E, C, Q, p объявлены явно:
// без точного совпадения декодер сматчит их с e, c, q, P без учёта регистра.
type wireTicker struct {
	Event       string           `json:"e"`
	EventTime   int64            `json:"E"`
	Symbol      string           `json:"s"`
	Change      models.RawNumber `json:"p"`
	ChangePct   models.RawNumber `json:"P"`
	Last        models.RawNumber `json:"c"`
	LastQty     models.RawNumber `json:"Q"`
	CloseTime   int64            `json:"C"`
	QuoteVolume models.RawNumber `json:"q"`
	Trades      models.RawNumber `json:"n"`
}

func (w wireTicker) raw() models.RawTicker {
	return models.RawTicker{
		EventType:      w.Event,
		Symbol:         w.Symbol,
		LastPrice:      w.Last,
		QuoteVolume:    w.QuoteVolume,
		TradeCount:     w.Trades,
		PriceChangePct: w.ChangePct,
	}
}

// DecodeFrame разбирает сообщение стрима в батч тикеров.
// Поддерживаются: массив тикеров, combined-stream {"stream","data":[...]},
// одиночный 24hrTicker. Ответ на подписку ({"result":..,"id":..}) - пустой батч.
func DecodeFrame(msg []byte) ([]models.RawTicker, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return nil, nil
	}

	switch msg[0] {
	case '[':
		return decodeList(msg)
	case '{':
	default:
		return nil, fmt.Errorf("unexpected frame start %q", msg[0])
	}

	var f frame
	if err := sonic.Unmarshal(msg, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	data := bytes.TrimSpace(f.Data)
	switch {
	case len(data) > 0 && data[0] == '[':
		return decodeList(data)
	case len(data) > 0 && data[0] == '{':
		return decodeOne(data)
	case f.Event == eventTicker:
		return decodeOne(msg)
	case len(f.Result) > 0 || f.ID != nil:
		return nil, nil
	}
	return nil, nil
}

// decodeList: битый элемент не валит весь батч.
func decodeList(b []byte) ([]models.RawTicker, error) {
	var items []json.RawMessage
	if err := sonic.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode ticker list: %w", err)
	}
	out := make([]models.RawTicker, 0, len(items))
	for _, it := range items {
		var w wireTicker
		if err := sonic.Unmarshal(it, &w); err != nil {
			continue
		}
		out = append(out, w.raw())
	}
	return out, nil
}

func decodeOne(b []byte) ([]models.RawTicker, error) {
	var w wireTicker
	if err := sonic.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("decode ticker: %w", err)
	}
	if w.Event != "" && w.Event != eventTicker {
		return nil, nil
	}
	return []models.RawTicker{w.raw()}, nil
}
