package dbstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yiblet/haste/internal/dedup"
	"github.com/yiblet/haste/internal/logger"
	"github.com/yiblet/haste/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite" // registers the "sqlite" driver, built with FTS5
)

// driverName selects modernc.org/sqlite under the gorm dialector.
const driverName = "sqlite"

// pragmas tune the single connection for a local, write-heavy workload.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA cache_size = -20000",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA mmap_size = 268435456",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

// SQLiteStore is a SQLite-backed implementation of store.Store.
// All access goes through mu; the connection is never handed out.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *gorm.DB
	dbPath string
	log    logger.Logger

	// Applied lists the migration versions run by the open call.
	Applied []int
}

var _ store.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath, applies the
// connection pragmas and brings the schema up to date.
func NewSQLiteStore(dbPath string, log logger.Logger) (*SQLiteStore, error) {
	steps, err := defaultSteps()
	if err != nil {
		return nil, store.Migration(dbPath, err)
	}
	return newSQLiteStore(dbPath, steps, log)
}

func newSQLiteStore(dbPath string, steps []migrationStep, log logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.Nop()
	}

	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: driverName, DSN: dbPath}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, &store.Error{Op: "open", Path: dbPath, Kind: store.ErrStorage, Err: err}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, &store.Error{Op: "open", Path: dbPath, Kind: store.ErrStorage, Err: err}
	}
	// One connection: pragmas are per connection and the store lock
	// already serializes every statement.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			sqlDB.Close()
			return nil, &store.Error{Op: "configure", Path: dbPath, Kind: store.ErrStorage,
				Err: fmt.Errorf("failed to apply %q: %w", pragma, err)}
		}
	}

	applied, err := migrate(db, dbPath, steps, log)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &SQLiteStore{
		db:      db,
		dbPath:  dbPath,
		log:     log,
		Applied: applied,
	}, nil
}

// Items returns the repository. Each call on it takes the store lock.
func (s *SQLiteStore) Items() store.ItemRepository {
	return &itemRepo{db: s.db, mu: &s.mu}
}

// Atomically runs fn in one transaction while holding the store lock.
// If fn returns an error the transaction is rolled back.
func (s *SQLiteStore) Atomically(fn func(repo store.ItemRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&itemRepo{db: tx})
	})
}

// SchemaVersion returns the persisted schema version.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := schemaVersion(s.db)
	if err != nil {
		return 0, &store.Error{Op: "schema version", Path: s.dbPath, Kind: store.ErrStorage, Err: err}
	}
	return v, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// itemRepo implements store.ItemRepository. mu is nil when the repo is
// scoped to a transaction that already holds the lock.
type itemRepo struct {
	db *gorm.DB
	mu *sync.Mutex
}

func (r *itemRepo) lock() func() {
	if r.mu == nil {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

// Insert stores the row and, for text kinds, its index entry.
func (r *itemRepo) Insert(input *store.NewItem) (int64, error) {
	if err := input.Validate(); err != nil {
		return 0, err
	}

	tags, err := EncodeTags(input.Tags)
	if err != nil {
		return 0, store.Invalid("insert", err)
	}

	model := &ItemModel{
		Kind:        string(input.Kind),
		ContentRef:  input.ContentRef,
		SourceApp:   input.SourceApp,
		CreatedAtMs: input.CreatedAt,
		Pinned:      false,
		Tags:        tags,
		DedupHash:   dedup.Hash(input.Kind, dedup.Key(input.Kind, input.ContentRef)),
	}

	defer r.lock()()

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		if input.Kind.Indexed() {
			if err := tx.Exec("INSERT INTO items_fts (rowid, text) VALUES (?, ?)",
				model.ID, model.ContentRef).Error; err != nil {
				return fmt.Errorf("failed to index item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, store.Storage("insert", 0, err)
	}

	return model.ID, nil
}

// Get retrieves a single item by ID
func (r *itemRepo) Get(id int64) (*store.Item, error) {
	defer r.lock()()

	var model ItemModel
	if err := r.db.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.NotFound("get", id)
		}
		return nil, store.Storage("get", id, err)
	}

	return model.ToItem()
}

// Delete removes the index entry and then the row, in one transaction.
func (r *itemRepo) Delete(id int64) error {
	defer r.lock()()

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM items_fts WHERE rowid = ?", id).Error; err != nil {
			return store.Storage("delete", id, fmt.Errorf("failed to unindex item: %w", err))
		}

		result := tx.Delete(&ItemModel{}, id)
		if result.Error != nil {
			return store.Storage("delete", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return store.NotFound("delete", id)
		}
		return nil
	})
}

// SetPinned flips the pinned flag.
func (r *itemRepo) SetPinned(id int64, pinned bool) error {
	return r.updateColumn("pin", id, "pinned", pinned)
}

// SetTags replaces the tag set.
func (r *itemRepo) SetTags(id int64, tags []string) error {
	encoded, err := EncodeTags(tags)
	if err != nil {
		return store.Invalid("set tags", err)
	}
	return r.updateColumn("set tags", id, "tags", encoded)
}

// UpdateTimestamp overwrites created_at.
func (r *itemRepo) UpdateTimestamp(id int64, createdAt int64) error {
	return r.updateColumn("update timestamp", id, "created_at", createdAt)
}

func (r *itemRepo) updateColumn(op string, id int64, column string, value interface{}) error {
	defer r.lock()()

	result := r.db.Model(&ItemModel{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return store.Storage(op, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return store.NotFound(op, id)
	}
	return nil
}

// FindDuplicate returns the most recent item of kind whose dedup key is key.
// Rows are narrowed by hash, then confirmed by recomputing the key.
func (r *itemRepo) FindDuplicate(kind store.Kind, key string) (int64, bool, error) {
	defer r.lock()()

	var candidates []*ItemModel
	if err := r.db.Select("id", "kind", "content_ref").
		Where("kind = ? AND dedup_hash = ?", string(kind), dedup.Hash(kind, key)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&candidates).Error; err != nil {
		return 0, false, store.Storage("find duplicate", 0, err)
	}

	for _, c := range candidates {
		if dedup.Key(kind, c.ContentRef) == key {
			return c.ID, true, nil
		}
	}
	return 0, false, nil
}

// List returns pinned items first, then newest first.
func (r *itemRepo) List(limit int) ([]*store.Item, error) {
	if limit < 0 {
		return nil, store.Invalid("list", fmt.Errorf("limit must not be negative"))
	}

	defer r.lock()()

	query := r.db.Order("pinned DESC").Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []*ItemModel
	if err := query.Find(&models).Error; err != nil {
		return nil, store.Storage("list", 0, err)
	}
	return toItems(models)
}

// Count returns the total number of items
func (r *itemRepo) Count() (int, error) {
	defer r.lock()()

	var count int64
	if err := r.db.Model(&ItemModel{}).Count(&count).Error; err != nil {
		return 0, store.Storage("count", 0, err)
	}
	return int(count), nil
}

// CountUnpinned returns the number of items eligible for pruning.
func (r *itemRepo) CountUnpinned() (int, error) {
	defer r.lock()()

	var count int64
	if err := r.db.Model(&ItemModel{}).Where("pinned = ?", false).Count(&count).Error; err != nil {
		return 0, store.Storage("count", 0, err)
	}
	return int(count), nil
}

// DeleteOldest removes up to count of the oldest unpinned items.
func (r *itemRepo) DeleteOldest(count int) (int, error) {
	if count <= 0 {
		return 0, nil
	}

	defer r.lock()()

	var deleted int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ids []int64
		if err := tx.Model(&ItemModel{}).
			Where("pinned = ?", false).
			Order("created_at ASC").
			Order("id ASC").
			Limit(count).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to find oldest items: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Exec("DELETE FROM items_fts WHERE rowid IN ?", ids).Error; err != nil {
			return fmt.Errorf("failed to unindex items: %w", err)
		}
		result := tx.Delete(&ItemModel{}, ids)
		if result.Error != nil {
			return fmt.Errorf("failed to delete items: %w", result.Error)
		}
		deleted = int(result.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, store.Storage("delete oldest", 0, err)
	}
	return deleted, nil
}
