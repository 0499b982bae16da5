package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Item statuses follow the kitchen workflow. The engine only ever writes
// StatusSent; later transitions come from the kitchen endpoints and must
// survive merges untouched.
const (
	ItemStatusSent      = "sent"
	ItemStatusPreparing = "preparing"
	ItemStatusReady     = "ready"
	ItemStatusServed    = "served"
)

type OrderModifier struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// OrderItem is one line on a tab. UnitPrice is a snapshot taken at order
// time and is never re-read from the catalog, so historical totals stay
// stable when catalog prices change.
type OrderItem struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	UnitPrice     float64         `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	Modifiers     []OrderModifier `json:"modifiers,omitempty"`
	Status        string          `json:"status"`
	CreatedByRole ActorRole       `json:"created_by_role"`
	CreatedByID   string          `json:"created_by_id"`
	CreatedByName string          `json:"created_by_name,omitempty"`
}

// ItemList stores an ordered item sequence as a JSON column.
type ItemList []OrderItem

func (l ItemList) Value() (driver.Value, error) {
	if l == nil {
		l = ItemList{}
	}
	return json.Marshal(l)
}

func (l *ItemList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported item list column type")
	}
}
