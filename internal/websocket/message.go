package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// newSubscribedMessage greets a client that has just joined the feed.
func newSubscribedMessage(subscribers int) []byte {
	b, _ := json.Marshal(Message{Action: "subscribed", Payload: map[string]int{"subscribers": subscribers}})
	return b
}
