package models

import "github.com/shopspring/decimal"

// AnchorState - якоря одного символа.
type AnchorState struct {
	PriceAnchor   decimal.Decimal
	VolumeAnchor  decimal.Decimal
	TradeAnchor   int64
	PriceUpStreak int
}
