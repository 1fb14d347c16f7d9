package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandSlotsSparse(t *testing.T) {
	coffee := uuid.New()
	sugar := uuid.New()
	products := map[string]uuid.UUID{
		"101": coffee,
		"205": sugar,
	}

	// Slots 2 and 4..7 are empty; only 1 and 3 carry items.
	row := map[string]interface{}{
		"prod1":    "101",
		"qtd1":     "2",
		"unit1":    "4,50",
		"totitem1": "9,00",
		"prod2":    "",
		"prod3":    "205",
		"qtd3":     "1,5",
		"unit3":    "3.20",
		"totitem3": "4.80",
	}

	items, mismatches := expandSlots("900123", row, products)
	require.Len(t, items, 2)
	assert.Empty(t, mismatches)

	assert.Equal(t, coffee, items[0].ProductID)
	assert.Equal(t, 1, items[0].Slot)
	assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("4.5")))
	assert.True(t, items[0].Total.Equal(decimal.NewFromInt(9)))

	assert.Equal(t, sugar, items[1].ProductID)
	assert.Equal(t, 3, items[1].Slot)
	assert.True(t, items[1].Quantity.Equal(decimal.RequireFromString("1.5")))
}

func TestExpandSlotsUnknownProduct(t *testing.T) {
	products := map[string]uuid.UUID{"101": uuid.New()}

	row := map[string]interface{}{
		"prod1":    "101",
		"qtd1":     "1",
		"unit1":    "10,00",
		"totitem1": "10,00",
		"prod2":    "999",
		"qtd2":     "3",
		"unit2":    "2,00",
		"totitem2": "6,00",
	}

	items, mismatches := expandSlots("77", row, products)
	require.Len(t, items, 1)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "Sale 77: product 999 not found", mismatches[0])
}

func TestExpandSlotsAllEmpty(t *testing.T) {
	items, mismatches := expandSlots("1", map[string]interface{}{}, nil)
	assert.Empty(t, items)
	assert.Empty(t, mismatches)
}

func TestSlotDecimalJunkFallsBackToZero(t *testing.T) {
	row := map[string]interface{}{
		"qtd1": "abc",
		"qtd2": nil,
	}
	assert.True(t, slotDecimal(row, "qtd", 1).IsZero())
	assert.True(t, slotDecimal(row, "qtd", 2).IsZero())
	assert.True(t, slotDecimal(row, "qtd", 3).IsZero())
}
