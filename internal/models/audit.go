package models

// AuditHeader - колонки аудит-лога в порядке записи.
var AuditHeader = []string{
	"Symbol", "Type", "Price", "Change%", "24h%", "Vol_Delta_USD",
	"Trades_Delta", "Vol_24h", "Trades_24h", "Time", "Message",
}

const SessionMarker = "---------------- New session ----------------"

// AuditRecord - одна строка аудит-лога, уже отформатированная.
type AuditRecord struct {
	Symbol      string
	Type        string
	Price       string
	ChangePct   string
	Change24h   string
	VolDeltaUSD string
	TradesDelta string
	Vol24h      string
	Trades24h   string
	Time        string
	Message     string
}

func (r AuditRecord) Columns() []string {
	return []string{
		r.Symbol, r.Type, r.Price, r.ChangePct, r.Change24h, r.VolDeltaUSD,
		r.TradesDelta, r.Vol24h, r.Trades24h, r.Time, r.Message,
	}
}
