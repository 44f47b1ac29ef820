// Package memory provides in-memory implementations of the repository
// interfaces and the transaction manager. Test infrastructure only; data
// lives in maps guarded by one store-wide mutex.
package memory

import (
	"sync"

	"labcore/internal/domain/attachment"
	"labcore/internal/domain/catalog"
	"labcore/internal/domain/inventory"
	"labcore/internal/domain/sequence"
)

type lotKey struct {
	Owner   string
	Product string
	Lot     string
}

type productKey struct {
	Owner   string
	Product string
}

type movementKey struct {
	Owner string
	ID    int64
}

type pairKey struct {
	Owner     string
	Operation string
	Parameter string
}

type columnKey struct {
	Owner     string
	Operation string
	Parameter string
	Column    string
}

type priceKey struct {
	Owner     string
	Key       string
	Parameter string
}

type regulationKey struct {
	Owner     string
	Parameter string
	Group     string
}

type settingKey struct {
	Owner string
	Name  string
}

// AnalystAssignment is one row of the analyst catalog.
type AnalystAssignment struct {
	Owner     string
	Parameter string
	Employee  string
	Position  int
}

// OperationKey identifies an operation row.
type operationKey struct {
	Owner string
	Code  string
}

// Store is the shared in-memory state behind every repository fake.
type Store struct {
	mu sync.Mutex

	// txMu is held for the whole duration of a transaction, emulating the
	// row-lock serialization the real database gives locked counter reads.
	txMu sync.Mutex

	counters map[sequence.Key]int64

	lots      map[lotKey]inventory.Lot
	movements map[movementKey]inventory.Movement
	summaries map[productKey]inventory.ProductSummary

	parameters           map[operationKey]catalog.Parameter
	consumptionTemplates []catalog.ConsumptionTemplate
	equipmentTemplates   []catalog.EquipmentTemplate
	columnTemplates      []catalog.ColumnTemplate
	ratePrices           map[priceKey]catalog.PriceOverride
	clientPrices         map[priceKey]catalog.PriceOverride
	regulations          map[regulationKey]string
	analysts             []AnalystAssignment
	sections             map[settingKey]string
	settings             map[settingKey]string

	operations map[operationKey]attachment.Operation
	results    map[pairKey]attachment.ParameterResult
	columns    map[columnKey]attachment.ResultColumn
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		counters:     make(map[sequence.Key]int64),
		lots:         make(map[lotKey]inventory.Lot),
		movements:    make(map[movementKey]inventory.Movement),
		summaries:    make(map[productKey]inventory.ProductSummary),
		parameters:   make(map[operationKey]catalog.Parameter),
		ratePrices:   make(map[priceKey]catalog.PriceOverride),
		clientPrices: make(map[priceKey]catalog.PriceOverride),
		regulations:  make(map[regulationKey]string),
		sections:     make(map[settingKey]string),
		settings:     make(map[settingKey]string),
		operations:   make(map[operationKey]attachment.Operation),
		results:      make(map[pairKey]attachment.ParameterResult),
		columns:      make(map[columnKey]attachment.ResultColumn),
	}
}

// --- Seeding helpers ---

// AddLot stores a lot, replacing any previous version.
func (s *Store) AddLot(l inventory.Lot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[lotKey{Owner: l.Owner, Product: l.Product, Lot: l.Code}] = l
}

// GetLot returns a lot for assertions.
func (s *Store) GetLot(owner, product, lot string) (inventory.Lot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lots[lotKey{Owner: owner, Product: product, Lot: lot}]
	return l, ok
}

// GetSummary returns a product summary for assertions.
func (s *Store) GetSummary(owner, product string) (inventory.ProductSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.summaries[productKey{Owner: owner, Product: product}]
	return sum, ok
}

// MovementCount returns the number of ledger rows.
func (s *Store) MovementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

// AddParameter stores a catalog parameter.
func (s *Store) AddParameter(p catalog.Parameter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parameters[operationKey{Owner: p.Owner, Code: p.Code}] = p
}

// AddConsumptionTemplate appends a consumption template row.
func (s *Store) AddConsumptionTemplate(t catalog.ConsumptionTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumptionTemplates = append(s.consumptionTemplates, t)
}

// AddEquipmentTemplate appends an equipment template row.
func (s *Store) AddEquipmentTemplate(t catalog.EquipmentTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equipmentTemplates = append(s.equipmentTemplates, t)
}

// AddColumnTemplate appends a column template row; listing preserves
// insertion order.
func (s *Store) AddColumnTemplate(t catalog.ColumnTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columnTemplates = append(s.columnTemplates, t)
}

// AddRatePrice stores a rate price override.
func (s *Store) AddRatePrice(owner, rate, parameter string, o catalog.PriceOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratePrices[priceKey{Owner: owner, Key: rate, Parameter: parameter}] = o
}

// AddClientPrice stores a client price override.
func (s *Store) AddClientPrice(owner, client, parameter string, o catalog.PriceOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientPrices[priceKey{Owner: owner, Key: client, Parameter: parameter}] = o
}

// AddRegulation stores a regulation override text.
func (s *Store) AddRegulation(owner, parameter, group, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regulations[regulationKey{Owner: owner, Parameter: parameter, Group: group}] = text
}

// AddAnalyst appends an analyst assignment.
func (s *Store) AddAnalyst(a AnalystAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysts = append(s.analysts, a)
}

// AddSection maps a section to its department.
func (s *Store) AddSection(owner, section, department string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[settingKey{Owner: owner, Name: section}] = department
}

// SetSetting stores an owner-level setting ("pricing_mode", "default_mark").
func (s *Store) SetSetting(owner, name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settingKey{Owner: owner, Name: name}] = value
}

// AddOperation stores an operation row.
func (s *Store) AddOperation(op attachment.Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations[operationKey{Owner: op.Owner, Code: op.Code}] = op
}

// GetResult returns a parameter result row for assertions.
func (s *Store) GetResult(owner, operation, parameter string) (attachment.ParameterResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[pairKey{Owner: owner, Operation: operation, Parameter: parameter}]
	return r, ok
}

// ResultColumns returns the column rows of a pair, in column-number order.
func (s *Store) ResultColumns(owner, operation, parameter string) []attachment.ResultColumn {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []attachment.ResultColumn
	for k, c := range s.columns {
		if k.Owner == owner && k.Operation == operation && k.Parameter == parameter {
			out = append(out, c)
		}
	}
	sortColumns(out)
	return out
}

func sortColumns(cols []attachment.ResultColumn) {
	for i := 1; i < len(cols); i++ {
		for j := i; j > 0 && cols[j].Number < cols[j-1].Number; j-- {
			cols[j], cols[j-1] = cols[j-1], cols[j]
		}
	}
}
