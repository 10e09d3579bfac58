package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectDefaultVariant_LowestInStockPrice(t *testing.T) {
	v, ok := SelectDefaultVariant([]Variant{
		{ID: "a", SKU: "TEE-S", Size: "S", Price: 3000, Stock: 0},
		{ID: "b", SKU: "TEE-M", Size: "M", Price: 2500, Stock: 3},
		{ID: "c", SKU: "TEE-L", Size: "L", Price: 2800, Stock: 9},
	})
	assert.True(t, ok)
	assert.Equal(t, "b", v.ID)
}

func TestSelectDefaultVariant_TieBrokenBySizeOrder(t *testing.T) {
	v, ok := SelectDefaultVariant([]Variant{
		{ID: "xl", SKU: "A-XL", Size: "XL", Price: 2000, Stock: 1},
		{ID: "s", SKU: "A-S", Size: "s", Price: 2000, Stock: 1},
		{ID: "m", SKU: "A-M", Size: "M", Price: 2000, Stock: 1},
	})
	assert.True(t, ok)
	assert.Equal(t, "s", v.ID)
}

func TestSelectDefaultVariant_UnknownSizesAfterKnown(t *testing.T) {
	v, ok := SelectDefaultVariant([]Variant{
		{ID: "os", SKU: "CAP-OS", Size: "ONE", Price: 1500, Stock: 1},
		{ID: "xxl", SKU: "CAP-XXL", Size: "XXL", Price: 1500, Stock: 1},
	})
	assert.True(t, ok)
	assert.Equal(t, "xxl", v.ID)
}

func TestSelectDefaultVariant_SKUBreaksRemainingTie(t *testing.T) {
	v, ok := SelectDefaultVariant([]Variant{
		{ID: "2", SKU: "B", Size: "M", Price: 1000, Stock: 1},
		{ID: "1", SKU: "A", Size: "M", Price: 1000, Stock: 1},
	})
	assert.True(t, ok)
	assert.Equal(t, "1", v.ID)
}

func TestSelectDefaultVariant_NoneInStock(t *testing.T) {
	_, ok := SelectDefaultVariant([]Variant{{ID: "a", Stock: 0}})
	assert.False(t, ok)

	_, ok = SelectDefaultVariant(nil)
	assert.False(t, ok)
}
