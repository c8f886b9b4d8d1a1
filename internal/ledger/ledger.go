package ledger

import (
	"sort"
	"strings"
	"sync"

	"ledger-service/internal/domain"

	"github.com/google/uuid"
)

// pairKey identifies the unique (product, location) pair of a record
type pairKey struct {
	productID  uuid.UUID
	locationID uuid.UUID
}

// Ledger is the authoritative in-memory cache of stock state between
// reloads. It indexes records by id, by (product, location) pair, by
// product and by location, and keeps all four indexes mutually consistent:
// no index ever references a missing record or omits an existing one.
//
// The ledger is a pure data structure. It enforces no business rules;
// validation belongs to the operations layer, which is the only sanctioned
// mutator.
type Ledger struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*domain.InventoryRecord
	byPair     map[pairKey]uuid.UUID
	byProduct  map[uuid.UUID]map[uuid.UUID]struct{}
	byLocation map[uuid.UUID]map[uuid.UUID]struct{}
}

// New creates an empty ledger
func New() *Ledger {
	l := &Ledger{}
	l.reset()
	return l
}

func (l *Ledger) reset() {
	l.byID = make(map[uuid.UUID]*domain.InventoryRecord)
	l.byPair = make(map[pairKey]uuid.UUID)
	l.byProduct = make(map[uuid.UUID]map[uuid.UUID]struct{})
	l.byLocation = make(map[uuid.UUID]map[uuid.UUID]struct{})
}

// Get returns the record with the given inventory id
func (l *Ledger) Get(id uuid.UUID) (domain.InventoryRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.byID[id]
	if !ok {
		return domain.InventoryRecord{}, false
	}
	return *rec, true
}

// GetByProductAndLocation returns the record for a (product, location) pair
func (l *Ledger) GetByProductAndLocation(productID, locationID uuid.UUID) (domain.InventoryRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	id, ok := l.byPair[pairKey{productID, locationID}]
	if !ok {
		return domain.InventoryRecord{}, false
	}
	return *l.byID[id], true
}

// GetByProduct returns the records for a product across all locations
func (l *Ledger) GetByProduct(productID uuid.UUID) []domain.InventoryRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.collect(l.byProduct[productID])
}

// GetByLocation returns the records held at a location
func (l *Ledger) GetByLocation(locationID uuid.UUID) []domain.InventoryRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.collect(l.byLocation[locationID])
}

// collect copies the records behind a set of ids, sorted for stable output.
// Callers must hold at least the read lock.
func (l *Ledger) collect(ids map[uuid.UUID]struct{}) []domain.InventoryRecord {
	records := make([]domain.InventoryRecord, 0, len(ids))
	for id := range ids {
		records = append(records, *l.byID[id])
	}
	sortRecords(records)
	return records
}

// Upsert inserts or replaces a record, maintaining every index. When the
// record's (product, location) pair changed, the stale index buckets are
// torn down before the new ones are linked, all under the write lock, so a
// partial index update is never observable.
func (l *Ledger) Upsert(record domain.InventoryRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if old, ok := l.byID[record.ID]; ok {
		l.unlink(old)
	}
	stored := record
	l.byID[record.ID] = &stored
	l.link(&stored)
}

// Remove deletes a record and tears down its index entries symmetrically
func (l *Ledger) Remove(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.byID[id]
	if !ok {
		return false
	}
	l.unlink(rec)
	delete(l.byID, id)
	return true
}

// link adds the record to the secondary indexes. Write lock held.
func (l *Ledger) link(rec *domain.InventoryRecord) {
	l.byPair[pairKey{rec.ProductID, rec.LocationID}] = rec.ID
	if l.byProduct[rec.ProductID] == nil {
		l.byProduct[rec.ProductID] = make(map[uuid.UUID]struct{})
	}
	l.byProduct[rec.ProductID][rec.ID] = struct{}{}
	if l.byLocation[rec.LocationID] == nil {
		l.byLocation[rec.LocationID] = make(map[uuid.UUID]struct{})
	}
	l.byLocation[rec.LocationID][rec.ID] = struct{}{}
}

// unlink removes the record from the secondary indexes. Write lock held.
func (l *Ledger) unlink(rec *domain.InventoryRecord) {
	delete(l.byPair, pairKey{rec.ProductID, rec.LocationID})
	if set := l.byProduct[rec.ProductID]; set != nil {
		delete(set, rec.ID)
		if len(set) == 0 {
			delete(l.byProduct, rec.ProductID)
		}
	}
	if set := l.byLocation[rec.LocationID]; set != nil {
		delete(set, rec.ID)
		if len(set) == 0 {
			delete(l.byLocation, rec.LocationID)
		}
	}
}

// Initialize discards the current contents and rebuilds every index from
// the given snapshot. The replacement indexes are built off-lock and
// swapped in atomically, so readers observe either the old state or the
// complete new one, never a partial rebuild. Later duplicates of a
// (product, location) pair win, matching upsert semantics.
func (l *Ledger) Initialize(records []domain.InventoryRecord) {
	byID := make(map[uuid.UUID]*domain.InventoryRecord, len(records))
	byPair := make(map[pairKey]uuid.UUID, len(records))
	byProduct := make(map[uuid.UUID]map[uuid.UUID]struct{})
	byLocation := make(map[uuid.UUID]map[uuid.UUID]struct{})

	for i := range records {
		rec := records[i]
		key := pairKey{rec.ProductID, rec.LocationID}
		if prevID, ok := byPair[key]; ok {
			prev := byID[prevID]
			delete(byID, prevID)
			delete(byProduct[prev.ProductID], prevID)
			delete(byLocation[prev.LocationID], prevID)
		}
		byID[rec.ID] = &rec
		byPair[key] = rec.ID
		if byProduct[rec.ProductID] == nil {
			byProduct[rec.ProductID] = make(map[uuid.UUID]struct{})
		}
		byProduct[rec.ProductID][rec.ID] = struct{}{}
		if byLocation[rec.LocationID] == nil {
			byLocation[rec.LocationID] = make(map[uuid.UUID]struct{})
		}
		byLocation[rec.LocationID][rec.ID] = struct{}{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID = byID
	l.byPair = byPair
	l.byProduct = byProduct
	l.byLocation = byLocation
}

// TotalStockForProduct sums current stock across all locations
func (l *Ledger) TotalStockForProduct(productID uuid.UUID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := 0
	for id := range l.byProduct[productID] {
		total += l.byID[id].CurrentStock
	}
	return total
}

// AvailableStockForProduct sums available stock across all locations
func (l *Ledger) AvailableStockForProduct(productID uuid.UUID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := 0
	for id := range l.byProduct[productID] {
		total += l.byID[id].AvailableStock()
	}
	return total
}

// ReservedStockForProduct sums reserved stock across all locations
func (l *Ledger) ReservedStockForProduct(productID uuid.UUID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := 0
	for id := range l.byProduct[productID] {
		total += l.byID[id].ReservedStock
	}
	return total
}

// LowStock returns records whose available stock is at or below threshold
// but not exhausted, sorted by available stock ascending then by product
// and location id
func (l *Ledger) LowStock(threshold int) []domain.InventoryRecord {
	return l.filter(func(r *domain.InventoryRecord) bool {
		available := r.AvailableStock()
		return available > 0 && available <= threshold
	})
}

// OutOfStock returns records with no available stock, sorted
func (l *Ledger) OutOfStock() []domain.InventoryRecord {
	return l.filter(func(r *domain.InventoryRecord) bool {
		return r.AvailableStock() <= 0
	})
}

// All returns every record, sorted
func (l *Ledger) All() []domain.InventoryRecord {
	return l.filter(func(*domain.InventoryRecord) bool { return true })
}

// Len returns the number of records held
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}

func (l *Ledger) filter(keep func(*domain.InventoryRecord) bool) []domain.InventoryRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	records := make([]domain.InventoryRecord, 0)
	for _, rec := range l.byID {
		if keep(rec) {
			records = append(records, *rec)
		}
	}
	sortRecords(records)
	return records
}

// sortRecords orders by available stock ascending, then product id, then
// location id. Deterministic ordering keeps list output stable for callers.
func sortRecords(records []domain.InventoryRecord) {
	sort.Slice(records, func(i, j int) bool {
		ai, aj := records[i].AvailableStock(), records[j].AvailableStock()
		if ai != aj {
			return ai < aj
		}
		if cmp := strings.Compare(records[i].ProductID.String(), records[j].ProductID.String()); cmp != 0 {
			return cmp < 0
		}
		return strings.Compare(records[i].LocationID.String(), records[j].LocationID.String()) < 0
	})
}
