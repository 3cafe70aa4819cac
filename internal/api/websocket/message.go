package websocket

import (
	"encoding/json"
	"time"
)

// Message types exchanged with clients
const (
	MessageTypeGameProcessed = "game_processed"
	MessageTypeSubscribe     = "subscribe"
	MessageTypeUnsubscribe   = "unsubscribe"
	MessageTypeHeartbeat     = "heartbeat"
	MessageTypeError         = "error"
)

// ClientMessage is sent by a client. Subscribe carries the game ids to
// follow; an empty list follows every game.
type ClientMessage struct {
	Type    string   `json:"type"`
	GameIDs []string `json:"game_ids,omitempty"`
}

// ServerMessage is sent to a client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorMessage is the payload of an error message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectionStats is the payload of a heartbeat reply
type ConnectionStats struct {
	ClientID         string    `json:"client_id"`
	ConnectedAt      time.Time `json:"connected_at"`
	MessagesSent     int64     `json:"messages_sent"`
	MessagesReceived int64     `json:"messages_received"`
	Subscriptions    []string  `json:"subscriptions,omitempty"`
}

// update is one notification on its way to the clients
type update struct {
	gameID  string
	payload json.RawMessage
}
