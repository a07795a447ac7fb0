// Package domain contains the core domain types for the chain context.
package domain

// Tier classifies a read endpoint by reliability. Premium endpoints
// are tried first, public ones last.
type Tier int

const (
	TierPremium Tier = iota
	TierBackup
	TierPublic
)

func (t Tier) String() string {
	switch t {
	case TierPremium:
		return "premium"
	case TierBackup:
		return "backup"
	case TierPublic:
		return "public"
	default:
		return "unknown"
	}
}

// Endpoint is a single JSON-RPC read endpoint.
type Endpoint struct {
	URL  string
	Tier Tier
}

// ConnectionState represents the state of a chain connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)
