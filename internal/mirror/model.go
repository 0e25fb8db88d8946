package mirror

import (
	"fmt"
	"time"

	"canteen-be/internal/order"

	"github.com/google/uuid"
)

// Collection names match the legacy browser-local layout so records
// written before the persistent store existed still load.
const (
	CollectionPending   = "pending_orders"
	CollectionAccepted  = "accepted_orders"
	CollectionDelivered = "delivered_orders"
)

var Collections = []string{CollectionPending, CollectionAccepted, CollectionDelivered}

// Entry is a denormalized copy of an order. When DBOrderID is set the
// persistent record's status wins at reconciliation time; the cached
// status is only a fallback for degraded reads and legacy records.
type Entry struct {
	LocalOrderID string       `json:"order_id"`
	DBOrderID    string       `json:"db_order_id,omitempty"`
	SessionID    string       `json:"session_id,omitempty"`
	UserID       string       `json:"user_id"`
	UserEmail    string       `json:"user_email,omitempty"`
	Items        order.Items  `json:"items"`
	Amount       int64        `json:"amount"`
	PickupTime   string       `json:"pickup_time"`
	Status       order.Status `json:"status"`
	Notes        string       `json:"notes,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// FromOrder builds a mirror entry backed by a persistent order row.
func FromOrder(o *order.Order, userEmail string) Entry {
	return Entry{
		LocalOrderID: NewLocalOrderID(),
		DBOrderID:    o.ID,
		SessionID:    o.SessionID,
		UserID:       o.UserID,
		UserEmail:    userEmail,
		Items:        o.Items,
		Amount:       o.Amount,
		PickupTime:   o.PickupTime,
		Status:       o.Status,
		Notes:        o.Notes,
		Timestamp:    o.CreatedAt,
	}
}

func NewLocalOrderID() string {
	return fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}

// CollectionFor maps a status to its collection. Cancelled orders are
// not mirrored; callers remove them instead.
func CollectionFor(status order.Status) (string, bool) {
	switch status {
	case order.StatusPending:
		return CollectionPending, true
	case order.StatusAccepted:
		return CollectionAccepted, true
	case order.StatusDelivered:
		return CollectionDelivered, true
	}
	return "", false
}
