package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labcore/internal/core/types"
	"labcore/internal/domain/inventory"
	"labcore/internal/infrastructure/storage/memory"
)

func TestUnitsFromQuantity(t *testing.T) {
	tests := []struct {
		name   string
		factor types.Quantity
		qty    types.Quantity
		want   types.Quantity
	}{
		{"round up remainder", types.NewQuantityFromInt(4), types.NewQuantityFromInt(10), types.NewQuantityFromInt(3)},
		{"exact division", types.NewQuantityFromInt(4), types.NewQuantityFromInt(8), types.NewQuantityFromInt(2)},
		{"zero factor", 0, types.NewQuantityFromInt(10), 0},
		{"zero quantity", types.NewQuantityFromInt(4), 0, 0},
		{"negative quantity", types.NewQuantityFromInt(4), types.NewQuantityFromInt(-2), 0},
		{"negative factor", types.NewQuantityFromInt(-4), types.NewQuantityFromInt(10), 0},
		{"fractional factor", types.NewQuantityFromFloat64(0.5), types.NewQuantityFromFloat64(1.2), types.NewQuantityFromInt(3)},
		{"single partial unit", types.NewQuantityFromInt(4), types.NewQuantityFromInt(1), types.NewQuantityFromInt(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inventory.UnitsFromQuantity(tt.factor, tt.qty))
		})
	}
}

func TestApplyConsumption_DecrementsAndRederivesUnits(t *testing.T) {
	store := memory.NewStore()
	store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "reagent", Code: "L1",
		Status:          inventory.LotStatusUsable,
		Quantity:        types.NewQuantityFromInt(10),
		Units:           types.NewQuantityFromInt(3),
		PackagingFactor: types.NewQuantityFromInt(4),
	})

	lots := memory.NewLotRepo(store)
	recalc := inventory.NewRecalculator(lots, memory.NewSummaryRepo(store))

	err := recalc.ApplyConsumption(context.Background(), "lab1", "reagent", "L1", types.NewQuantityFromInt(2))
	require.NoError(t, err)

	lot, ok := store.GetLot("lab1", "reagent", "L1")
	require.True(t, ok)
	assert.Equal(t, types.NewQuantityFromInt(8), lot.Quantity)
	assert.Equal(t, types.NewQuantityFromInt(2), lot.Units, "8/4 = 2 whole units")
}

func TestApplyConsumption_NegativeQtyRestoresStock(t *testing.T) {
	store := memory.NewStore()
	store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "reagent", Code: "L1",
		Status:          inventory.LotStatusUsable,
		Quantity:        types.NewQuantityFromInt(8),
		Units:           types.NewQuantityFromInt(2),
		PackagingFactor: types.NewQuantityFromInt(4),
	})

	recalc := inventory.NewRecalculator(memory.NewLotRepo(store), memory.NewSummaryRepo(store))

	err := recalc.ApplyConsumption(context.Background(), "lab1", "reagent", "L1", types.NewQuantityFromInt(-2))
	require.NoError(t, err)

	lot, _ := store.GetLot("lab1", "reagent", "L1")
	assert.Equal(t, types.NewQuantityFromInt(10), lot.Quantity)
	assert.Equal(t, types.NewQuantityFromInt(3), lot.Units, "10/4 rounds up to 3")
}

func TestApplyConsumption_DoesNotClampNegative(t *testing.T) {
	store := memory.NewStore()
	store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "reagent", Code: "L1",
		Status:          inventory.LotStatusUsable,
		Quantity:        types.NewQuantityFromInt(1),
		PackagingFactor: types.NewQuantityFromInt(4),
	})

	recalc := inventory.NewRecalculator(memory.NewLotRepo(store), memory.NewSummaryRepo(store))

	err := recalc.ApplyConsumption(context.Background(), "lab1", "reagent", "L1", types.NewQuantityFromInt(3))
	require.NoError(t, err)

	lot, _ := store.GetLot("lab1", "reagent", "L1")
	assert.Equal(t, types.NewQuantityFromInt(-2), lot.Quantity, "negative stock is recorded, not hidden")
	assert.Equal(t, types.Quantity(0), lot.Units)
}

func TestApplyConsumption_MissingLot(t *testing.T) {
	store := memory.NewStore()
	recalc := inventory.NewRecalculator(memory.NewLotRepo(store), memory.NewSummaryRepo(store))

	err := recalc.ApplyConsumption(context.Background(), "lab1", "reagent", "missing", types.NewQuantityFromInt(1))
	assert.Error(t, err)
}

func TestRecomputeSummary_ExcludesDiscarded(t *testing.T) {
	store := memory.NewStore()
	store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "reagent", Code: "L1",
		Status:   inventory.LotStatusUsable,
		Quantity: types.NewQuantityFromFloat64(3.0),
		Units:    types.NewQuantityFromInt(1),
	})
	store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "reagent", Code: "L2",
		Status:   inventory.LotStatusNew,
		Quantity: types.NewQuantityFromFloat64(4.5),
		Units:    types.NewQuantityFromInt(2),
	})
	store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "reagent", Code: "L3",
		Status:   inventory.LotStatusDiscarded,
		Quantity: types.NewQuantityFromInt(99),
		Units:    types.NewQuantityFromInt(25),
	})

	recalc := inventory.NewRecalculator(memory.NewLotRepo(store), memory.NewSummaryRepo(store))

	err := recalc.RecomputeSummary(context.Background(), "lab1", "reagent")
	require.NoError(t, err)

	summary, ok := store.GetSummary("lab1", "reagent")
	require.True(t, ok)
	assert.Equal(t, types.NewQuantityFromFloat64(7.5), summary.Quantity)
	assert.Equal(t, types.NewQuantityFromInt(3), summary.Units)
}

func TestRecomputeSummary_NoLotsWritesZero(t *testing.T) {
	store := memory.NewStore()
	recalc := inventory.NewRecalculator(memory.NewLotRepo(store), memory.NewSummaryRepo(store))

	err := recalc.RecomputeSummary(context.Background(), "lab1", "reagent")
	require.NoError(t, err)

	summary, ok := store.GetSummary("lab1", "reagent")
	require.True(t, ok)
	assert.True(t, summary.Quantity.IsZero())
	assert.True(t, summary.Units.IsZero())
}
