// Package pricing holds the pure price math for order items. It never does
// I/O: unit prices arrive already snapshotted from the catalog lookup.
package pricing

import "github.com/sharedtab/tab-engine/models"

// LineTotal is (unit price + sum of modifier prices) * quantity.
func LineTotal(item models.OrderItem) float64 {
	unit := item.UnitPrice
	for _, mod := range item.Modifiers {
		unit += mod.Price
	}
	return unit * float64(item.Quantity)
}

// BatchSubtotal sums the line totals of one submitted batch.
func BatchSubtotal(items []models.OrderItem) float64 {
	var subtotal float64
	for _, item := range items {
		subtotal += LineTotal(item)
	}
	return subtotal
}

// Tax applies the configured rate to a subtotal. Rate 0 is the default
// policy; amounts are tracked as opaque numbers, no rounding is applied.
func Tax(subtotal, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return subtotal * rate
}
