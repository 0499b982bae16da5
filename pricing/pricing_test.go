package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sharedtab/tab-engine/models"
	"github.com/sharedtab/tab-engine/pricing"
)

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		item     models.OrderItem
		expected float64
	}{
		{
			name:     "plain item",
			item:     models.OrderItem{UnitPrice: 5, Quantity: 2},
			expected: 10,
		},
		{
			name: "modifiers multiply with quantity",
			item: models.OrderItem{
				UnitPrice: 3,
				Quantity:  2,
				Modifiers: []models.OrderModifier{{Price: 1}, {Price: 0.5}},
			},
			expected: 9,
		},
		{
			name:     "quantity one",
			item:     models.OrderItem{UnitPrice: 12.5, Quantity: 1},
			expected: 12.5,
		},
		{
			name: "free modifier",
			item: models.OrderItem{
				UnitPrice: 4,
				Quantity:  3,
				Modifiers: []models.OrderModifier{{Price: 0}},
			},
			expected: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pricing.LineTotal(tt.item))
		})
	}
}

func TestBatchSubtotal(t *testing.T) {
	batch := []models.OrderItem{
		{UnitPrice: 5, Quantity: 2},
		{UnitPrice: 3, Quantity: 1, Modifiers: []models.OrderModifier{{Price: 1}}},
	}
	assert.Equal(t, 14.0, pricing.BatchSubtotal(batch))
	assert.Equal(t, 0.0, pricing.BatchSubtotal(nil))
}

func TestTax(t *testing.T) {
	assert.Equal(t, 0.0, pricing.Tax(100, 0))
	assert.Equal(t, 0.0, pricing.Tax(100, -0.1))
	assert.InDelta(t, 10.0, pricing.Tax(100, 0.1), 1e-9)
}
