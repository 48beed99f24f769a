package events

import (
	"encoding/json"
	"time"
)

// Bridge status values.
const (
	StatusOnline       = "online"
	StatusOffline      = "offline"
	StatusConnected    = "plc_connected"
	StatusDisconnected = "plc_disconnected"
)

// Offline reasons.
const (
	ReasonUnexpected = "unexpected_disconnect"
	ReasonShutdown   = "graceful_shutdown"
)

// StatusMessage is published retained on the status topic.
type StatusMessage struct {
	Status    string    `json:"status"`
	ClientID  string    `json:"client_id"`
	Reason    string    `json:"reason,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Order outcomes.
const (
	OrderAccepted = "accepted"
	OrderRejected = "rejected"
	OrderTimeout  = "timeout"
	OrderFailed   = "failed"
)

// OrderEvent is published on the orders topic after every push that reached the PLC.
type OrderEvent struct {
	Outcome     string    `json:"outcome"`
	DrinkTypeID int       `json:"drinkTypeId"`
	DrinkSize   int       `json:"drinkSize"`
	UseIce      bool      `json:"useIce"`
	OrderNumber *int      `json:"orderNumber,omitempty"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func encode(v any) []byte {
	// Both message types contain only plain fields; Marshal cannot fail on them.
	b, _ := json.Marshal(v)
	return b
}

func statusPayload(status, clientID, reason string, now time.Time) []byte {
	return encode(StatusMessage{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: now.UTC().Truncate(time.Second),
	})
}
