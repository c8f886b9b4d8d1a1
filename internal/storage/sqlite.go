package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore implements Store on SQLite under the Single Writer Principle:
// one writer at a time, enforced by a mutex plus a connection pool of one.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.Mutex // Mutex to ensure single writer
}

// NewSQLiteStore opens the database and initializes the schema
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=1")
	if err != nil {
		return nil, errors.NewConnectionFailure("open database", err)
	}

	// Single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, errors.NewConnectionFailure("initialize schema", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Inventory table: one row per (product, location) pair
	CREATE TABLE IF NOT EXISTS inventory (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		location_id TEXT NOT NULL,
		current_stock INTEGER NOT NULL DEFAULT 0,
		reserved_stock INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		last_updated TEXT NOT NULL,
		UNIQUE(product_id, location_id),
		CHECK(current_stock >= 0),
		CHECK(reserved_stock >= 0),
		CHECK(reserved_stock <= current_stock)
	);

	-- Stock transactions: append-only audit log
	CREATE TABLE IF NOT EXISTS stock_transactions (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		location_id TEXT NOT NULL,
		type TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_cost_cents INTEGER,
		reference TEXT,
		notes TEXT,
		actor_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		CHECK(type IN ('adjustment', 'sale', 'purchase', 'return', 'transfer'))
	);

	-- Stock movements: append-only transfer audit log
	CREATE TABLE IF NOT EXISTS stock_movements (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		from_location_id TEXT NOT NULL,
		to_location_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		actor_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		CHECK(quantity > 0),
		CHECK(from_location_id <> to_location_id)
	);

	-- Orders and their line items
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		customer_id TEXT,
		supplier_id TEXT,
		location_id TEXT NOT NULL,
		order_date TEXT NOT NULL,
		delivery_date TEXT,
		created_by TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		CHECK(type IN ('sale', 'purchase')),
		CHECK(status IN ('draft', 'active', 'fulfilled', 'completed', 'cancelled')),
		CHECK((type = 'sale' AND customer_id IS NOT NULL AND supplier_id IS NULL)
		   OR (type = 'purchase' AND supplier_id IS NOT NULL AND customer_id IS NULL))
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price_cents INTEGER NOT NULL,
		total_price_cents INTEGER NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
		CHECK(quantity > 0),
		CHECK(unit_price_cents >= 0)
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_inventory_product ON inventory(product_id);
	CREATE INDEX IF NOT EXISTS idx_inventory_location ON inventory(location_id);
	CREATE INDEX IF NOT EXISTS idx_stock_transactions_product ON stock_transactions(product_id);
	CREATE INDEX IF NOT EXISTS idx_stock_transactions_reference ON stock_transactions(reference);
	CREATE INDEX IF NOT EXISTS idx_stock_movements_product ON stock_movements(product_id);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *SQLiteStore) Ping() error {
	return s.db.Ping()
}

// ReadAllInventory fetches the full inventory snapshot (read-only, no lock needed)
func (s *SQLiteStore) ReadAllInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	query := `
		SELECT id, product_id, location_id, current_stock, reserved_stock, version, last_updated
		FROM inventory
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError("read inventory", err)
	}
	defer rows.Close()

	var records []domain.InventoryRecord
	for rows.Next() {
		var rec domain.InventoryRecord
		var id, productID, locationID, lastUpdated string
		if err := rows.Scan(&id, &productID, &locationID, &rec.CurrentStock, &rec.ReservedStock, &rec.Version, &lastUpdated); err != nil {
			return nil, mapError("scan inventory row", err)
		}
		rec.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, errors.NewUnexpected("malformed inventory id", err)
		}
		rec.ProductID, _ = uuid.Parse(productID)
		rec.LocationID, _ = uuid.Parse(locationID)
		rec.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("read inventory", err)
	}

	return records, nil
}

// ApplyStockCommit persists one ledger mutation in a single transaction:
// the written inventory rows, the stock transactions and the movements all
// land together or the whole commit fails.
func (s *SQLiteStore) ApplyStockCommit(ctx context.Context, commit StockCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError("begin commit", err)
	}
	defer tx.Rollback()

	for i := range commit.Records {
		if err := upsertInventoryRow(ctx, tx, &commit.Records[i]); err != nil {
			return err
		}
	}
	for i := range commit.Transactions {
		if err := insertTransaction(ctx, tx, &commit.Transactions[i]); err != nil {
			return err
		}
	}
	for i := range commit.Movements {
		if err := insertMovement(ctx, tx, &commit.Movements[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return mapError("commit stock mutation", err)
	}
	return nil
}

func upsertInventoryRow(ctx context.Context, tx *sql.Tx, rec *domain.InventoryRecord) error {
	query := `
		INSERT INTO inventory (id, product_id, location_id, current_stock, reserved_stock, version, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			product_id = excluded.product_id,
			location_id = excluded.location_id,
			current_stock = excluded.current_stock,
			reserved_stock = excluded.reserved_stock,
			version = excluded.version,
			last_updated = excluded.last_updated
	`

	_, err := tx.ExecContext(ctx, query,
		rec.ID.String(), rec.ProductID.String(), rec.LocationID.String(),
		rec.CurrentStock, rec.ReservedStock, rec.Version,
		rec.LastUpdated.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError("upsert inventory row", err)
	}
	return nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t *domain.StockTransaction) error {
	query := `
		INSERT INTO stock_transactions (id, product_id, location_id, type, quantity, unit_cost_cents, reference, notes, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var reference *string
	if t.Reference != nil {
		ref := t.Reference.String()
		reference = &ref
	}

	_, err := tx.ExecContext(ctx, query,
		t.ID.String(), t.ProductID.String(), t.LocationID.String(),
		string(t.Type), t.Quantity, t.UnitCostCents, reference, t.Notes, t.ActorID,
		t.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError("append stock transaction", err)
	}
	return nil
}

func insertMovement(ctx context.Context, tx *sql.Tx, m *domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, from_location_id, to_location_id, quantity, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.ExecContext(ctx, query,
		m.ID.String(), m.ProductID.String(), m.FromLocationID.String(), m.ToLocationID.String(),
		m.Quantity, m.ActorID,
		m.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError("append stock movement", err)
	}
	return nil
}

// SaveOrder inserts an order with its items (Single Writer)
func (s *SQLiteStore) SaveOrder(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError("begin save order", err)
	}
	defer tx.Rollback()

	var customerID, supplierID, deliveryDate *string
	if order.CustomerID != nil {
		v := order.CustomerID.String()
		customerID = &v
	}
	if order.SupplierID != nil {
		v := order.SupplierID.String()
		supplierID = &v
	}
	if order.DeliveryDate != nil {
		v := order.DeliveryDate.UTC().Format(time.RFC3339)
		deliveryDate = &v
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, type, status, customer_id, supplier_id, location_id, order_date, delivery_date, created_by, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		order.ID.String(), string(order.Type), string(order.Status),
		customerID, supplierID, order.LocationID.String(),
		order.OrderDate.UTC().Format(time.RFC3339), deliveryDate,
		order.CreatedBy, order.Version,
	)
	if err != nil {
		return mapError("insert order", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price_cents, total_price_cents)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			item.ID.String(), order.ID.String(), item.ProductID.String(),
			item.Quantity, item.UnitPriceCents, item.TotalPriceCents,
		)
		if err != nil {
			return mapError("insert order item", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mapError("commit save order", err)
	}
	return nil
}

// UpdateOrderStatus persists a status transition with optimistic versioning
func (s *SQLiteStore) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, version = version + 1 WHERE id = ?
	`, string(status), orderID.String())
	if err != nil {
		return mapError("update order status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return mapError("update order status", err)
	}
	if affected == 0 {
		return errors.NewNotFound("order", orderID.String())
	}
	return nil
}

// FindOrder fetches an order with its items
func (s *SQLiteStore) FindOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	var id, orderType, status, locationID, orderDate, createdBy string
	var customerID, supplierID, deliveryDate *string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, status, customer_id, supplier_id, location_id, order_date, delivery_date, created_by, version
		FROM orders WHERE id = ?
	`, orderID.String()).Scan(
		&id, &orderType, &status, &customerID, &supplierID, &locationID,
		&orderDate, &deliveryDate, &createdBy, &order.Version,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("order", orderID.String())
		}
		return nil, mapError("find order", err)
	}

	order.ID, _ = uuid.Parse(id)
	order.Type = domain.OrderType(orderType)
	order.Status = domain.OrderStatus(status)
	order.LocationID, _ = uuid.Parse(locationID)
	order.OrderDate, _ = time.Parse(time.RFC3339, orderDate)
	order.CreatedBy = createdBy
	if customerID != nil {
		v, _ := uuid.Parse(*customerID)
		order.CustomerID = &v
	}
	if supplierID != nil {
		v, _ := uuid.Parse(*supplierID)
		order.SupplierID = &v
	}
	if deliveryDate != nil {
		v, _ := time.Parse(time.RFC3339, *deliveryDate)
		order.DeliveryDate = &v
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, quantity, unit_price_cents, total_price_cents
		FROM order_items WHERE order_id = ?
	`, orderID.String())
	if err != nil {
		return nil, mapError("find order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		var itemID, productID string
		if err := rows.Scan(&itemID, &productID, &item.Quantity, &item.UnitPriceCents, &item.TotalPriceCents); err != nil {
			return nil, mapError("scan order item", err)
		}
		item.ID, _ = uuid.Parse(itemID)
		item.ProductID, _ = uuid.Parse(productID)
		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("find order items", err)
	}

	return &order, nil
}

// mapError converts driver failures into the error taxonomy. Ambiguous
// outcomes (context deadline) surface as Timeout, never as success.
func mapError(operation string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.NewTimeout(operation, err)
	}

	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return errors.NewDuplicateKey(fmt.Sprintf("duplicate key: %s", operation), err.Error())
		case sqliteErr.Code == sqlite3.ErrConstraint:
			return errors.NewConstraintViolation(fmt.Sprintf("constraint violated: %s", operation), err.Error())
		case sqliteErr.Code == sqlite3.ErrBusy, sqliteErr.Code == sqlite3.ErrLocked,
			sqliteErr.Code == sqlite3.ErrCantOpen:
			return errors.NewConnectionFailure(operation, err)
		}
	}

	return errors.NewUnexpected(fmt.Sprintf("storage operation failed: %s", operation), err)
}
