// Package store defines the storage interfaces for haste's persistence layer.
// It provides the item model, the repository contract and the error
// taxonomy shared by the database implementation and the façade.
package store

// ItemRepository manages clipboard item persistence.
// Each method is one atomic unit against the backing database.
type ItemRepository interface {
	// Insert stores a new item and returns its ID. Text and rtf items
	// also get a full-text index entry in the same transaction.
	Insert(item *NewItem) (int64, error)

	// Get retrieves a single item by ID.
	Get(id int64) (*Item, error)

	// Delete removes an item and its index entry.
	// Returns ErrNotFound if the item does not exist.
	Delete(id int64) error

	// SetPinned flips the pinned flag.
	SetPinned(id int64, pinned bool) error

	// SetTags replaces the whole tag set.
	SetTags(id int64, tags []string) error

	// UpdateTimestamp overwrites created_at. Used by the dedup bump path.
	UpdateTimestamp(id int64, createdAt int64) error

	// FindDuplicate returns the most recent item of the given kind whose
	// dedup key equals key.
	FindDuplicate(kind Kind, key string) (id int64, found bool, err error)

	// Search finds items matching query. Queries shorter than
	// ShortQueryLength characters use a substring scan over all kinds;
	// longer queries use the full-text index (text and rtf only).
	// A limit of 0 returns no items.
	Search(query string, limit int) ([]*Item, error)

	// List returns items with pinned ones first, then newest first.
	// If limit is 0, all items are returned.
	List(limit int) ([]*Item, error)

	// Count returns the total number of items.
	Count() (int, error)

	// CountUnpinned returns the number of items that are not pinned.
	CountUnpinned() (int, error)

	// DeleteOldest removes up to count of the oldest unpinned items and
	// returns how many were removed.
	DeleteOldest(count int) (int, error)
}

// Store owns the database connection and serializes access to it.
type Store interface {
	// Items returns the repository. Every call takes the store lock.
	Items() ItemRepository

	// Atomically runs fn inside a single critical section and transaction.
	// The repository passed to fn must not escape the callback.
	Atomically(fn func(repo ItemRepository) error) error

	// SchemaVersion returns the persisted schema version.
	SchemaVersion() (int, error)

	// Close releases the database connection.
	Close() error
}

// ShortQueryLength is the query length, in characters, at which search
// switches from substring scan to the full-text index. The tokenizer does
// not match very short tokens reliably.
const ShortQueryLength = 3
