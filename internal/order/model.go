package order

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ParseStatus normalizes the two legacy admin vocabularies
// (accepted/delivered vs Pending/Completed/Cancelled) into the
// canonical enum. "completed" is an alias of delivered.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending, nil
	case "accepted":
		return StatusAccepted, nil
	case "delivered", "completed":
		return StatusDelivered, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("unknown order status: %q", raw)
}

// Terminal reports whether no transition is defined out of s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type StatusSet []Status

func (set StatusSet) Contains(s Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func (set StatusSet) Strings() []string {
	out := make([]string, 0, len(set))
	for _, v := range set {
		out = append(out, string(v))
	}
	return out
}

// Transitions is the full edge set of the order state machine.
// Key is the target status, value the allowed source statuses.
var Transitions = map[Status]StatusSet{
	StatusAccepted:  {StatusPending},
	StatusDelivered: {StatusAccepted},
	StatusCancelled: {StatusPending, StatusAccepted},
}

type Item struct {
	ItemID      string `json:"item_id"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
}

// Items is stored as a JSONB column and is immutable after creation.
type Items []Item

func (it Items) Value() (driver.Value, error) {
	return json.Marshal(it)
}

func (it *Items) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, it)
	case string:
		return json.Unmarshal([]byte(v), it)
	case nil:
		*it = nil
		return nil
	}
	return fmt.Errorf("cannot scan %T into Items", src)
}

// Amount is the charge total in paise, computed once at creation.
func (it Items) Amount() int64 {
	var total int64
	for _, item := range it {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

type Order struct {
	ID         string
	UserID     string
	SessionID  string
	Items      Items
	Amount     int64
	Status     Status
	PickupTime string
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
