// Package core is the façade a host application talks to. It owns the store
// and the blobs directory and applies the dedup and history-limit policies
// on top of the item repository.
package core

import (
	"fmt"

	"github.com/yiblet/haste/internal/blobfs"
	"github.com/yiblet/haste/internal/dedup"
	"github.com/yiblet/haste/internal/logger"
	"github.com/yiblet/haste/internal/store"
	"github.com/yiblet/haste/internal/store/dbstore"
)

// Options configures Open.
type Options struct {
	// DBPath is the SQLite file. It is created if absent.
	DBPath string

	// BlobsDir holds image and file payloads. It is created if absent.
	BlobsDir string

	// HistoryLimit caps the number of unpinned items kept after an insert.
	// Pinned items never count against it. Zero means unlimited.
	HistoryLimit int

	// Logger defaults to a no-op logger.
	Logger logger.Logger
}

// AddResult reports what AddWithDedup did.
type AddResult struct {
	ID int64

	// Bumped is true when an existing item's timestamp was refreshed
	// instead of inserting a new row.
	Bumped bool
}

// Core is safe for concurrent use. Share it by pointer.
type Core struct {
	store        *dbstore.SQLiteStore
	blobs        *blobfs.BlobFS
	historyLimit int
	log          logger.Logger
}

// Open opens the store, runs pending migrations and makes sure the blobs
// directory exists. Nothing stays open if any step fails.
func Open(opts Options) (*Core, error) {
	if opts.DBPath == "" {
		return nil, store.Invalid("open", fmt.Errorf("database path is required"))
	}
	if opts.BlobsDir == "" {
		return nil, store.Invalid("open", fmt.Errorf("blobs directory is required"))
	}
	if opts.HistoryLimit < 0 {
		return nil, store.Invalid("open", fmt.Errorf("history limit must not be negative"))
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.String("db", opts.DBPath))

	st, err := dbstore.NewSQLiteStore(opts.DBPath, log)
	if err != nil {
		log.Error("failed to open store", logger.Error(err))
		return nil, err
	}

	blobs, err := blobfs.New(opts.BlobsDir)
	if err != nil {
		st.Close()
		log.Error("failed to prepare blobs directory", logger.Error(err))
		return nil, &store.Error{Op: "open", Path: opts.BlobsDir, Kind: store.ErrStorage, Err: err}
	}

	version, err := st.SchemaVersion()
	if err != nil {
		st.Close()
		return nil, err
	}
	log.Info("store opened",
		logger.Int("schema_version", version),
		logger.Ints("applied", st.Applied),
		logger.String("blobs", blobs.Root()))

	return &Core{
		store:        st,
		blobs:        blobs,
		historyLimit: opts.HistoryLimit,
		log:          log,
	}, nil
}

// Add inserts item unconditionally and returns its id.
func (c *Core) Add(item *store.NewItem) (int64, error) {
	if c.historyLimit == 0 {
		return c.store.Items().Insert(item)
	}

	var id int64
	err := c.store.Atomically(func(repo store.ItemRepository) error {
		var err error
		if id, err = repo.Insert(item); err != nil {
			return err
		}
		return c.prune(repo)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AddWithDedup inserts item unless an equivalent one exists, in which case
// only that item's created_at is overwritten. Lookup and write happen in
// one critical section.
func (c *Core) AddWithDedup(item *store.NewItem) (AddResult, error) {
	if err := item.Validate(); err != nil {
		return AddResult{}, err
	}

	var result AddResult
	err := c.store.Atomically(func(repo store.ItemRepository) error {
		decision, err := dedup.Resolve(item, repo)
		if err != nil {
			return err
		}

		switch decision.Action {
		case dedup.BumpExisting:
			if err := repo.UpdateTimestamp(decision.ExistingID, item.CreatedAt); err != nil {
				return err
			}
			result = AddResult{ID: decision.ExistingID, Bumped: true}
			c.log.Debug("bumped duplicate", logger.Int64("id", decision.ExistingID))
			return nil

		default:
			id, err := repo.Insert(item)
			if err != nil {
				return err
			}
			result = AddResult{ID: id}
			return c.prune(repo)
		}
	})
	if err != nil {
		return AddResult{}, err
	}
	return result, nil
}

// prune drops the oldest unpinned items beyond the history limit.
func (c *Core) prune(repo store.ItemRepository) error {
	if c.historyLimit == 0 {
		return nil
	}

	count, err := repo.CountUnpinned()
	if err != nil {
		return err
	}
	if count <= c.historyLimit {
		return nil
	}

	deleted, err := repo.DeleteOldest(count - c.historyLimit)
	if err != nil {
		return err
	}
	if deleted > 0 {
		c.log.Debug("pruned history", logger.Int("deleted", deleted), logger.Int("limit", c.historyLimit))
	}
	return nil
}

// Get returns the item with id.
func (c *Core) Get(id int64) (*store.Item, error) {
	return c.store.Items().Get(id)
}

// Delete removes the item and its index entry.
func (c *Core) Delete(id int64) error {
	return c.store.Items().Delete(id)
}

// Pin sets or clears the pinned flag.
func (c *Core) Pin(id int64, pinned bool) error {
	return c.store.Items().SetPinned(id, pinned)
}

// SetTags replaces the item's tags.
func (c *Core) SetTags(id int64, tags []string) error {
	return c.store.Items().SetTags(id, tags)
}

// Search runs the hybrid substring / full-text search.
func (c *Core) Search(query string, limit int) ([]*store.Item, error) {
	return c.store.Items().Search(query, limit)
}

// List returns pinned items first, then newest first. Zero means no limit.
func (c *Core) List(limit int) ([]*store.Item, error) {
	return c.store.Items().List(limit)
}

// Count returns the number of stored items.
func (c *Core) Count() (int, error) {
	return c.store.Items().Count()
}

// SchemaVersion returns the store's schema version.
func (c *Core) SchemaVersion() (int, error) {
	return c.store.SchemaVersion()
}

// BlobsDir returns the blobs directory.
func (c *Core) BlobsDir() string {
	return c.blobs.Root()
}

// Blobs returns the blobs directory as a filesystem.
func (c *Core) Blobs() *blobfs.BlobFS {
	return c.blobs
}

// Close releases the store. The Core must not be used afterwards.
func (c *Core) Close() error {
	_ = c.log.Sync()
	return c.store.Close()
}
