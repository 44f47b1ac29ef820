package attachment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labcore/internal/core/apperror"
	"labcore/internal/core/types"
	"labcore/internal/domain/attachment"
	"labcore/internal/domain/catalog"
	"labcore/internal/domain/inventory"
	"labcore/internal/domain/sequence"
	"labcore/internal/infrastructure/storage/memory"
)

type fixture struct {
	store   *memory.Store
	service *attachment.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	txm := memory.NewTxManager(store)
	lots := memory.NewLotRepo(store)
	cat := memory.NewCatalogRepo(store)

	selector := inventory.NewSelector(lots)
	recalc := inventory.NewRecalculator(lots, memory.NewSummaryRepo(store))
	seq := sequence.NewService(memory.NewCounterRepo(store), txm)
	recorder := inventory.NewRecorder(cat, memory.NewMovementRepo(store), selector, recalc, seq)

	service := attachment.NewService(
		memory.NewOperationRepo(store),
		memory.NewResultRepo(store),
		cat,
		recorder,
		txm,
	)

	return &fixture{store: store, service: service}
}

// seed populates a full scenario: an open operation, a pH parameter with one
// consumption template (2 units of reagent) and one equipment template, a
// stocked reagent lot and a pH meter.
func (f *fixture) seed() {
	f.store.AddOperation(attachment.Operation{
		Owner: "lab1", Code: "OP1", Rate: "R1", Client: "C1",
	})
	f.store.AddParameter(catalog.Parameter{
		Owner: "lab1", Code: "PH", Type: "numeric", Section: "chem",
		Price:      types.MustMoney("10.00"),
		Discount:   "0%",
		Regulation: "internal method",
	})
	f.store.AddConsumptionTemplate(catalog.ConsumptionTemplate{
		Owner: "lab1", Parameter: "PH", Product: "reagent",
		Quantity: types.NewQuantityFromInt(2),
	})
	f.store.AddEquipmentTemplate(catalog.EquipmentTemplate{
		Owner: "lab1", Parameter: "PH", Product: "ph-meter",
	})
	f.store.AddColumnTemplate(catalog.ColumnTemplate{
		Owner: "lab1", ParameterType: "numeric", Column: "value", DefaultValue: "0",
	})
	f.store.AddColumnTemplate(catalog.ColumnTemplate{
		Owner: "lab1", ParameterType: "numeric", Column: "unit", DefaultValue: "pH",
	})
	f.store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "reagent", Code: "L1",
		Status:          inventory.LotStatusUsable,
		Quantity:        types.NewQuantityFromInt(10),
		Units:           types.NewQuantityFromInt(3),
		PackagingFactor: types.NewQuantityFromInt(4),
	})
	f.store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "ph-meter", Code: "E1",
		Status:          inventory.LotStatusUsable,
		Quantity:        types.NewQuantityFromInt(1),
		Units:           types.NewQuantityFromInt(1),
		PackagingFactor: types.NewQuantityFromInt(1),
	})
	f.store.AddAnalyst(memory.AnalystAssignment{
		Owner: "lab1", Parameter: "PH", Employee: "emp-7", Position: 1,
	})
	f.store.AddSection("lab1", "chem", "dept-chem")
}

func attachReq() attachment.AttachRequest {
	return attachment.AttachRequest{
		Owner:     "lab1",
		Operation: "OP1",
		Parameter: "PH",
		Service:   "SVC1",
		Position:  1,
	}
}

func TestAttach_EndToEnd(t *testing.T) {
	f := newFixture(t)
	f.seed()
	f.store.AddRatePrice("lab1", "R1", "PH", catalog.PriceOverride{
		Price: types.MustMoney("12.50"), Discount: "5%",
	})

	result, err := f.service.Attach(context.Background(), attachReq())
	require.NoError(t, err)

	// Result row with the rate-override price (default pricing mode is
	// by-rate, rate comes from the operation).
	row, ok := f.store.GetResult("lab1", "OP1", "PH")
	require.True(t, ok)
	assert.True(t, row.Price.Equal(types.MustMoney("12.50")))
	assert.Equal(t, "5%", row.Discount)
	assert.Equal(t, "internal method", row.Regulation, "no override seeded, parameter default wins")
	assert.Equal(t, "emp-7", row.Analyst)
	assert.Equal(t, "dept-chem", row.Department)

	// Column rows numbered in template order, empty values without
	// UseDefaultValue.
	cols := f.store.ResultColumns("lab1", "OP1", "PH")
	require.Len(t, cols, 2)
	assert.Equal(t, "value", cols[0].Column)
	assert.Equal(t, 1, cols[0].Number)
	assert.Equal(t, "", cols[0].Value)
	assert.Equal(t, "unit", cols[1].Column)
	assert.Equal(t, 2, cols[1].Number)

	// One consumption + one equipment movement.
	assert.Equal(t, 2, f.store.MovementCount())

	// Stock decremented, units rederived, summary recomputed.
	lot, _ := f.store.GetLot("lab1", "reagent", "L1")
	assert.Equal(t, types.NewQuantityFromInt(8), lot.Quantity)
	assert.Equal(t, types.NewQuantityFromInt(2), lot.Units)
	summary, _ := f.store.GetSummary("lab1", "reagent")
	assert.Equal(t, types.NewQuantityFromInt(8), summary.Quantity)

	// Equipment stock untouched.
	meter, _ := f.store.GetLot("lab1", "ph-meter", "E1")
	assert.Equal(t, types.NewQuantityFromInt(1), meter.Quantity)

	// Accumulated sets.
	assert.Contains(t, result.Employees, attachment.AccumKey("lab1", "emp-7"))
	assert.Contains(t, result.Departments, attachment.AccumKey("lab1", "dept-chem"))
	assert.Contains(t, result.Products, attachment.AccumKey("lab1", "reagent"))
	assert.NotContains(t, result.Products, attachment.AccumKey("lab1", "ph-meter"),
		"equipment usage does not count as a consumed product")
}

func TestAttach_UseDefaultValue(t *testing.T) {
	f := newFixture(t)
	f.seed()

	req := attachReq()
	req.UseDefaultValue = true
	_, err := f.service.Attach(context.Background(), req)
	require.NoError(t, err)

	cols := f.store.ResultColumns("lab1", "OP1", "PH")
	require.Len(t, cols, 2)
	assert.Equal(t, "0", cols[0].Value)
	assert.Equal(t, "pH", cols[1].Value)
}

func TestAttach_ClientPricingMode(t *testing.T) {
	f := newFixture(t)
	f.seed()
	f.store.SetSetting("lab1", "pricing_mode", string(catalog.PricingByClient))
	f.store.AddClientPrice("lab1", "C1", "PH", catalog.PriceOverride{
		Price: types.MustMoney("8.00"), Discount: "10%",
	})

	_, err := f.service.Attach(context.Background(), attachReq())
	require.NoError(t, err)

	row, _ := f.store.GetResult("lab1", "OP1", "PH")
	assert.True(t, row.Price.Equal(types.MustMoney("8.00")))
	assert.Equal(t, "10%", row.Discount)
}

func TestAttach_MissingOverrideFallsBackToParameterPrice(t *testing.T) {
	f := newFixture(t)
	f.seed()
	// No rate price seeded.

	_, err := f.service.Attach(context.Background(), attachReq())
	require.NoError(t, err)

	row, _ := f.store.GetResult("lab1", "OP1", "PH")
	assert.True(t, row.Price.Equal(types.MustMoney("10.00")))
	assert.Equal(t, "0%", row.Discount)
}

func TestAttach_RegulationOverride(t *testing.T) {
	f := newFixture(t)
	f.seed()
	f.store.AddRegulation("lab1", "PH", "ISO", "ISO 10523")

	req := attachReq()
	req.ServiceRegulation = "ISO"
	_, err := f.service.Attach(context.Background(), req)
	require.NoError(t, err)

	row, _ := f.store.GetResult("lab1", "OP1", "PH")
	assert.Equal(t, "ISO 10523", row.Regulation)
}

func TestAttach_MarkResolution(t *testing.T) {
	f := newFixture(t)
	f.seed()
	f.store.SetSetting("lab1", "default_mark", "routine")

	// Owner default applies when the request carries no mark.
	_, err := f.service.Attach(context.Background(), attachReq())
	require.NoError(t, err)
	row, _ := f.store.GetResult("lab1", "OP1", "PH")
	assert.Equal(t, "routine", row.Mark)

	// Request mark wins.
	require.NoError(t, f.service.Detach(context.Background(), "lab1", "OP1", "PH"))
	req := attachReq()
	req.Mark = "urgent"
	_, err = f.service.Attach(context.Background(), req)
	require.NoError(t, err)
	row, _ = f.store.GetResult("lab1", "OP1", "PH")
	assert.Equal(t, "urgent", row.Mark)
}

func TestAttach_FinalizedOperationRejected(t *testing.T) {
	for _, tt := range []struct {
		name string
		op   attachment.Operation
	}{
		{"validated", attachment.Operation{Owner: "lab1", Code: "OP1", Validated: true}},
		{"signed", attachment.Operation{Owner: "lab1", Code: "OP1", Signed: true}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed()
			f.store.AddOperation(tt.op)

			_, err := f.service.Attach(context.Background(), attachReq())
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeOperationFinalized))
			assert.Zero(t, f.store.MovementCount(), "guard fires before any write")
		})
	}
}

func TestAttach_MissingParameterIsHardError(t *testing.T) {
	f := newFixture(t)
	f.store.AddOperation(attachment.Operation{Owner: "lab1", Code: "OP1"})

	_, err := f.service.Attach(context.Background(), attachReq())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestAttach_ResultRowIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seed()

	_, err := f.service.Attach(context.Background(), attachReq())
	require.NoError(t, err)
	row1, _ := f.store.GetResult("lab1", "OP1", "PH")

	// Second attach: result and column rows stay as they are, but movements
	// are recorded again.
	_, err = f.service.Attach(context.Background(), attachReq())
	require.NoError(t, err)

	row2, _ := f.store.GetResult("lab1", "OP1", "PH")
	assert.Equal(t, row1, row2)
	assert.Len(t, f.store.ResultColumns("lab1", "OP1", "PH"), 2)
	assert.Equal(t, 4, f.store.MovementCount())

	lot, _ := f.store.GetLot("lab1", "reagent", "L1")
	assert.Equal(t, types.NewQuantityFromInt(6), lot.Quantity, "each attach consumes")
}

func TestDetach_ReversesEverything(t *testing.T) {
	f := newFixture(t)
	f.seed()

	_, err := f.service.Attach(context.Background(), attachReq())
	require.NoError(t, err)

	err = f.service.Detach(context.Background(), "lab1", "OP1", "PH")
	require.NoError(t, err)

	_, ok := f.store.GetResult("lab1", "OP1", "PH")
	assert.False(t, ok, "result row removed")
	assert.Empty(t, f.store.ResultColumns("lab1", "OP1", "PH"))
	assert.Zero(t, f.store.MovementCount())

	lot, _ := f.store.GetLot("lab1", "reagent", "L1")
	assert.Equal(t, types.NewQuantityFromInt(10), lot.Quantity, "stock restored")
	summary, _ := f.store.GetSummary("lab1", "reagent")
	assert.Equal(t, types.NewQuantityFromInt(10), summary.Quantity)
}

func TestDetach_FinalizedOperationRejected(t *testing.T) {
	f := newFixture(t)
	f.seed()
	f.store.AddOperation(attachment.Operation{Owner: "lab1", Code: "OP1", Signed: true})

	err := f.service.Detach(context.Background(), "lab1", "OP1", "PH")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeOperationFinalized))
}

func TestCancel_ReversesAllParameters(t *testing.T) {
	f := newFixture(t)
	f.seed()

	// A second parameter consuming the same reagent.
	f.store.AddParameter(catalog.Parameter{
		Owner: "lab1", Code: "COND", Type: "numeric",
		Price: types.MustMoney("5.00"),
	})
	f.store.AddConsumptionTemplate(catalog.ConsumptionTemplate{
		Owner: "lab1", Parameter: "COND", Product: "reagent",
		Quantity: types.NewQuantityFromInt(1),
	})

	_, err := f.service.Attach(context.Background(), attachReq())
	require.NoError(t, err)
	req := attachReq()
	req.Parameter = "COND"
	_, err = f.service.Attach(context.Background(), req)
	require.NoError(t, err)

	err = f.service.Cancel(context.Background(), "lab1", "OP1")
	require.NoError(t, err)

	assert.Zero(t, f.store.MovementCount())
	lot, _ := f.store.GetLot("lab1", "reagent", "L1")
	assert.Equal(t, types.NewQuantityFromInt(10), lot.Quantity)
}

func TestAttach_ValidatesArguments(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Attach(context.Background(), attachment.AttachRequest{Owner: "lab1"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestAttach_NoEligibleLotFails(t *testing.T) {
	f := newFixture(t)
	f.seed()
	// Block the reagent: discard its only lot.
	f.store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "reagent", Code: "L1",
		Status: inventory.LotStatusDiscarded,
	})

	_, err := f.service.Attach(context.Background(), attachReq())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNoEligibleLot))
}
