package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labcore/internal/core/apperror"
	"labcore/internal/core/types"
	"labcore/internal/domain/catalog"
	"labcore/internal/domain/inventory"
	"labcore/internal/domain/sequence"
	"labcore/internal/infrastructure/storage/memory"
)

type recorderFixture struct {
	store    *memory.Store
	recorder *inventory.Recorder
}

func newRecorderFixture(t *testing.T) *recorderFixture {
	t.Helper()

	store := memory.NewStore()
	lots := memory.NewLotRepo(store)
	selector := inventory.NewSelector(lots)
	recalc := inventory.NewRecalculator(lots, memory.NewSummaryRepo(store))
	seq := sequence.NewService(memory.NewCounterRepo(store), memory.NewTxManager(store))

	return &recorderFixture{
		store: store,
		recorder: inventory.NewRecorder(
			memory.NewCatalogRepo(store),
			memory.NewMovementRepo(store),
			selector,
			recalc,
			seq,
		),
	}
}

func (f *recorderFixture) seedReagent(qty int64) {
	f.store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "reagent", Code: "L1",
		Status:          inventory.LotStatusUsable,
		Quantity:        types.NewQuantityFromInt(qty),
		Units:           inventory.UnitsFromQuantity(types.NewQuantityFromInt(4), types.NewQuantityFromInt(qty)),
		PackagingFactor: types.NewQuantityFromInt(4),
	})
	f.store.AddConsumptionTemplate(catalog.ConsumptionTemplate{
		Owner: "lab1", Parameter: "PH", Product: "reagent",
		Quantity: types.NewQuantityFromInt(2),
	})
}

func TestRecordConsumptions_DecrementsStockAndRecomputes(t *testing.T) {
	f := newRecorderFixture(t)
	f.seedReagent(10)

	products, err := f.recorder.RecordConsumptions(context.Background(), "lab1", "OP1", "PH")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, inventory.ProductRef{Owner: "lab1", Product: "reagent"}, products[0])

	lot, _ := f.store.GetLot("lab1", "reagent", "L1")
	assert.Equal(t, types.NewQuantityFromInt(8), lot.Quantity)
	assert.Equal(t, types.NewQuantityFromInt(2), lot.Units)

	summary, ok := f.store.GetSummary("lab1", "reagent")
	require.True(t, ok)
	assert.Equal(t, types.NewQuantityFromInt(8), summary.Quantity)

	assert.Equal(t, 1, f.store.MovementCount())
}

func TestRecordConsumptions_DeduplicatesProducts(t *testing.T) {
	f := newRecorderFixture(t)
	f.seedReagent(10)
	// Second template for the same product.
	f.store.AddConsumptionTemplate(catalog.ConsumptionTemplate{
		Owner: "lab1", Parameter: "PH", Product: "reagent",
		Quantity: types.NewQuantityFromInt(1),
	})

	products, err := f.recorder.RecordConsumptions(context.Background(), "lab1", "OP1", "PH")
	require.NoError(t, err)
	assert.Len(t, products, 1, "same product reported once")
	assert.Equal(t, 2, f.store.MovementCount(), "but every template still records a movement")

	lot, _ := f.store.GetLot("lab1", "reagent", "L1")
	assert.Equal(t, types.NewQuantityFromInt(7), lot.Quantity)
}

func TestRecordConsumptions_NoTemplatesIsNoop(t *testing.T) {
	f := newRecorderFixture(t)

	products, err := f.recorder.RecordConsumptions(context.Background(), "lab1", "OP1", "PH")
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Zero(t, f.store.MovementCount())
}

func TestRecordConsumptions_NoEligibleLotFails(t *testing.T) {
	f := newRecorderFixture(t)
	f.store.AddConsumptionTemplate(catalog.ConsumptionTemplate{
		Owner: "lab1", Parameter: "PH", Product: "reagent",
		Quantity: types.NewQuantityFromInt(2),
	})
	// No lot seeded for the product.

	_, err := f.recorder.RecordConsumptions(context.Background(), "lab1", "OP1", "PH")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNoEligibleLot))
}

func TestRecordEquipmentUse_DoesNotTouchStock(t *testing.T) {
	f := newRecorderFixture(t)
	f.store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "ph-meter", Code: "E1",
		Status:          inventory.LotStatusUsable,
		Quantity:        types.NewQuantityFromInt(1),
		Units:           types.NewQuantityFromInt(1),
		PackagingFactor: types.NewQuantityFromInt(1),
	})
	f.store.AddEquipmentTemplate(catalog.EquipmentTemplate{
		Owner: "lab1", Parameter: "PH", Product: "ph-meter",
	})

	err := f.recorder.RecordEquipmentUse(context.Background(), "lab1", "OP1", "PH")
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.MovementCount())
	lot, _ := f.store.GetLot("lab1", "ph-meter", "E1")
	assert.Equal(t, types.NewQuantityFromInt(1), lot.Quantity, "equipment use never decrements stock")
}

func TestCancelConsumptions_RestoresStock(t *testing.T) {
	f := newRecorderFixture(t)
	f.seedReagent(10)

	_, err := f.recorder.RecordConsumptions(context.Background(), "lab1", "OP1", "PH")
	require.NoError(t, err)

	err = f.recorder.CancelConsumptions(context.Background(), "lab1", "OP1", "PH")
	require.NoError(t, err)

	lot, _ := f.store.GetLot("lab1", "reagent", "L1")
	assert.Equal(t, types.NewQuantityFromInt(10), lot.Quantity)
	assert.Equal(t, types.NewQuantityFromInt(3), lot.Units, "10/4 rounds up to 3")

	summary, _ := f.store.GetSummary("lab1", "reagent")
	assert.Equal(t, types.NewQuantityFromInt(10), summary.Quantity)

	assert.Zero(t, f.store.MovementCount(), "all movements deleted")
}

func TestCancelConsumptions_EmptyParameterMatchesAll(t *testing.T) {
	f := newRecorderFixture(t)
	f.seedReagent(10)
	f.store.AddConsumptionTemplate(catalog.ConsumptionTemplate{
		Owner: "lab1", Parameter: "COND", Product: "reagent",
		Quantity: types.NewQuantityFromInt(1),
	})

	_, err := f.recorder.RecordConsumptions(context.Background(), "lab1", "OP1", "PH")
	require.NoError(t, err)
	_, err = f.recorder.RecordConsumptions(context.Background(), "lab1", "OP1", "COND")
	require.NoError(t, err)
	require.Equal(t, 2, f.store.MovementCount())

	err = f.recorder.CancelConsumptions(context.Background(), "lab1", "OP1", "")
	require.NoError(t, err)

	assert.Zero(t, f.store.MovementCount())
	lot, _ := f.store.GetLot("lab1", "reagent", "L1")
	assert.Equal(t, types.NewQuantityFromInt(10), lot.Quantity)
}

func TestCancelConsumptions_NoMovementsIsNoop(t *testing.T) {
	f := newRecorderFixture(t)

	err := f.recorder.CancelConsumptions(context.Background(), "lab1", "OP1", "PH")
	assert.NoError(t, err)
}

func TestRecordConsumptions_SequenceFailurePropagates(t *testing.T) {
	store := memory.NewStore()
	lots := memory.NewLotRepo(store)
	gen := &sequence.MockGenerator{
		NextFunc: func(ctx context.Context, key sequence.Key, useLock bool) (int64, error) {
			return 0, apperror.NewSequenceGeneration(assert.AnError)
		},
	}
	recorder := inventory.NewRecorder(
		memory.NewCatalogRepo(store),
		memory.NewMovementRepo(store),
		inventory.NewSelector(lots),
		inventory.NewRecalculator(lots, memory.NewSummaryRepo(store)),
		gen,
	)

	store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "reagent", Code: "L1",
		Status: inventory.LotStatusUsable, Quantity: types.NewQuantityFromInt(10),
	})
	store.AddConsumptionTemplate(catalog.ConsumptionTemplate{
		Owner: "lab1", Parameter: "PH", Product: "reagent",
		Quantity: types.NewQuantityFromInt(2),
	})

	_, err := recorder.RecordConsumptions(context.Background(), "lab1", "OP1", "PH")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeSequenceGeneration))
	assert.Zero(t, store.MovementCount(), "no movement without an id")
}

func TestRecordConsumptions_SequentialMovementIDs(t *testing.T) {
	f := newRecorderFixture(t)
	f.seedReagent(100)

	for i := 0; i < 3; i++ {
		_, err := f.recorder.RecordConsumptions(context.Background(), "lab1", "OP1", "PH")
		require.NoError(t, err)
	}

	movements, err := memory.NewMovementRepo(f.store).ListByOperation(context.Background(), "lab1", "OP1", "PH")
	require.NoError(t, err)
	require.Len(t, movements, 3)
	for i, m := range movements {
		assert.Equal(t, int64(i+1), m.ID, "ids come from the counter in order")
	}
}
