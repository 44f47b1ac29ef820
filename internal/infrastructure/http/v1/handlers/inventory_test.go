package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labcore/internal/core/types"
	"labcore/internal/domain/inventory"
	"labcore/internal/infrastructure/http/v1/handlers"
	"labcore/internal/infrastructure/storage/memory"
)

// countingTxManager records how many read-only transactions were opened.
type countingTxManager struct {
	*memory.TxManager
	readOnly int
}

func (m *countingTxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	m.readOnly++
	return m.TxManager.ReadOnly(ctx, fn)
}

func newInventoryRouter(store *memory.Store, txm *countingTxManager) *gin.Engine {
	gin.SetMode(gin.TestMode)

	lots := memory.NewLotRepo(store)
	h := handlers.NewInventoryHandler(
		handlers.NewBaseHandler(),
		txm,
		inventory.NewSelector(lots),
		memory.NewSummaryRepo(store),
	)

	r := gin.New()
	r.GET("/inventory/default-lot", h.DefaultLot)
	r.GET("/inventory/summary", h.Summary)
	return r
}

func TestInventoryReads_RunInReadOnlyTransactions(t *testing.T) {
	store := memory.NewStore()
	store.AddLot(inventory.Lot{
		Owner: "lab1", Product: "reagent", Code: "L1",
		Status:   inventory.LotStatusUsable,
		Quantity: types.NewQuantityFromInt(5),
	})
	txm := &countingTxManager{TxManager: memory.NewTxManager(store)}
	r := newInventoryRouter(store, txm)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inventory/default-lot?owner=lab1&product=reagent", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"lot":"L1"`)
	assert.Contains(t, w.Body.String(), `"found":true`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inventory/summary?owner=lab1&product=reagent", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 2, txm.readOnly, "each read endpoint opens one read-only transaction")
}

func TestDefaultLot_MissIsNotAnError(t *testing.T) {
	store := memory.NewStore()
	txm := &countingTxManager{TxManager: memory.NewTxManager(store)}
	r := newInventoryRouter(store, txm)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inventory/default-lot?owner=lab1&product=missing", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"found":false`)
}
