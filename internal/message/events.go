package message

import "time"

// Kafka topic names
const (
	TopicAlertTriggered = "radar.alerts.triggered"
	TopicTokenBonded    = "radar.tokens.bonded"
)

// AlertTriggeredEvent is the Kafka payload published when a sweep flips an
// alert. Downstream consumers (notification delivery) live outside this
// service.
type AlertTriggeredEvent struct {
	AlertID     int64     `json:"alert_id"`
	UserID      string    `json:"user_id"`
	TokenID     string    `json:"token_id"`
	TokenName   string    `json:"token_name"`
	TokenSymbol string    `json:"token_symbol"`
	AlertType   string    `json:"alert_type"`
	Condition   string    `json:"condition"`
	Threshold   float64   `json:"threshold"`
	Timeframe   string    `json:"timeframe,omitempty"`
	Price       float64   `json:"price"`
	Change24h   float64   `json:"change_24h"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// TokenBondedEvent is the Kafka payload published when ingestion observes a
// token crossing its bonding threshold.
type TokenBondedEvent struct {
	Mint         string    `json:"mint"`
	Name         string    `json:"name"`
	Symbol       string    `json:"symbol"`
	MarketCapUsd float64   `json:"market_cap_usd"`
	RaydiumPool  string    `json:"raydium_pool,omitempty"`
	BondedAt     time.Time `json:"bonded_at"`
}
