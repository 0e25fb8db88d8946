package notify

import (
	"encoding/json"
	"time"
)

const (
	EventNewOrder     = "new_order"
	EventStatusChange = "status_change"
	EventOrderUpdate  = "order_update"
)

// Event tells observers that something about an order changed.
// It deliberately carries no order state: channels are lossy and
// unordered, so consumers must re-fetch from the store instead of
// acting on the payload.
type Event struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
