package models

// FilterConfig - пороги фильтров и детекторов. 0 = выключено.
type FilterConfig struct {
	MinVolume       float64 `json:"min_vol" mapstructure:"min_volume"`
	MaxVolume       float64 `json:"max_vol" mapstructure:"max_volume"`
	MinPrice        float64 `json:"min_price" mapstructure:"min_price"`
	MaxPrice        float64 `json:"max_price" mapstructure:"max_price"`
	Min24hChange    float64 `json:"min_24h_chg" mapstructure:"min_24h_change"`
	Max24hChange    float64 `json:"max_24h_chg" mapstructure:"max_24h_change"`
	PriceThreshold  float64 `json:"price_thr" mapstructure:"price_threshold"`
	VolumeBurst     float64 `json:"vol_burst" mapstructure:"volume_burst"`
	TradesThreshold float64 `json:"trades_thr" mapstructure:"trades_threshold"`
}

// SymbolLists - персистентные списки monitor/ignore.
type SymbolLists struct {
	Monitor []string `json:"monitor" yaml:"monitor"`
	Ignore  []string `json:"ignore" yaml:"ignore"`
}
