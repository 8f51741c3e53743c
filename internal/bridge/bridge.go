// Package bridge implements the C boundary contract in plain Go: kind codes,
// string validation, flattened result records and the collapse of every
// error into a sentinel status. cmd/libhaste only marshals these values to
// and from C memory.
package bridge

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yiblet/haste/internal/core"
	"github.com/yiblet/haste/internal/logger"
	"github.com/yiblet/haste/internal/store"
	"github.com/yiblet/haste/internal/store/dbstore"
)

// Status values returned across the boundary.
const (
	StatusOK    int32 = 0
	StatusError int32 = -1

	// FailedID is returned by the add functions on any failure.
	FailedID int64 = -1
)

// ErrNulByte is returned when a stored string cannot be represented as a
// NUL-terminated C string.
var ErrNulByte = errors.New("string contains a NUL byte")

// KindFromCode maps a boundary kind code to a Kind.
func KindFromCode(code int32) (store.Kind, error) {
	if code < 0 || int(code) >= len(store.Kinds) {
		return "", store.Invalid("kind", fmt.Errorf("unknown kind code %d", code))
	}
	return store.Kinds[code], nil
}

// KindCode maps a Kind to its boundary code, or -1 if unknown.
func KindCode(kind store.Kind) int32 {
	for i, k := range store.Kinds {
		if k == kind {
			return int32(i)
		}
	}
	return -1
}

// FlatItem is an Item in the shape the C structs take.
type FlatItem struct {
	ID         int64
	Kind       int32
	ContentRef string
	SourceApp  *string
	CreatedAt  int64
	Pinned     int32
	TagsJSON   string
}

// Flatten converts item for the boundary. It fails if a string field
// cannot cross as a C string.
func Flatten(item *store.Item) (FlatItem, error) {
	tags, err := dbstore.EncodeTags(item.Tags)
	if err != nil {
		return FlatItem{}, err
	}

	flat := FlatItem{
		ID:         item.ID,
		Kind:       KindCode(item.Kind),
		ContentRef: item.ContentRef,
		SourceApp:  item.SourceApp,
		CreatedAt:  item.CreatedAt,
		TagsJSON:   tags,
	}
	if item.Pinned {
		flat.Pinned = 1
	}

	if strings.IndexByte(flat.ContentRef, 0) >= 0 ||
		(flat.SourceApp != nil && strings.IndexByte(*flat.SourceApp, 0) >= 0) ||
		strings.IndexByte(flat.TagsJSON, 0) >= 0 {
		return FlatItem{}, fmt.Errorf("item %d: %w", item.ID, ErrNulByte)
	}
	return flat, nil
}

func checkUTF8(field, s string) error {
	if !utf8.ValidString(s) {
		return store.Invalid("bridge", fmt.Errorf("%s is not valid UTF-8", field))
	}
	return nil
}

// Adapter serves boundary calls for one open Core.
type Adapter struct {
	core *core.Core
	log  logger.Logger
}

// Open validates the paths and opens a Core. Any failure yields nil.
func Open(dbPath, blobsDir string, log logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	if checkUTF8("db path", dbPath) != nil || checkUTF8("blobs dir", blobsDir) != nil {
		log.Error("open rejected: path is not valid UTF-8")
		return nil
	}

	c, err := core.Open(core.Options{DBPath: dbPath, BlobsDir: blobsDir, Logger: log})
	if err != nil {
		log.Error("open failed", logger.Error(err))
		return nil
	}
	return &Adapter{core: c, log: log}
}

// Close releases the Core.
func (a *Adapter) Close() {
	if err := a.core.Close(); err != nil {
		a.log.Error("close failed", logger.Error(err))
	}
}

func (a *Adapter) newItem(kindCode int32, content string, sourceApp *string, createdAt int64) (*store.NewItem, error) {
	kind, err := KindFromCode(kindCode)
	if err != nil {
		return nil, err
	}
	if err := checkUTF8("content", content); err != nil {
		return nil, err
	}
	if sourceApp != nil {
		if err := checkUTF8("source app", *sourceApp); err != nil {
			return nil, err
		}
	}
	return &store.NewItem{
		Kind:       kind,
		ContentRef: content,
		SourceApp:  sourceApp,
		CreatedAt:  createdAt,
	}, nil
}

// Add inserts unconditionally. Returns the new id or FailedID.
func (a *Adapter) Add(kindCode int32, content string, sourceApp *string, createdAt int64) int64 {
	item, err := a.newItem(kindCode, content, sourceApp, createdAt)
	if err != nil {
		a.log.Error("add rejected", logger.Error(err))
		return FailedID
	}

	id, err := a.core.Add(item)
	if err != nil {
		a.log.Error("add failed", logger.Error(err))
		return FailedID
	}
	return id
}

// AddWithDedup returns the id of the inserted or bumped item, and whether it
// was a bump. On failure it returns FailedID.
func (a *Adapter) AddWithDedup(kindCode int32, content string, sourceApp *string, createdAt int64) (int64, bool) {
	item, err := a.newItem(kindCode, content, sourceApp, createdAt)
	if err != nil {
		a.log.Error("add rejected", logger.Error(err))
		return FailedID, false
	}

	res, err := a.core.AddWithDedup(item)
	if err != nil {
		a.log.Error("add with dedup failed", logger.Error(err))
		return FailedID, false
	}
	return res.ID, res.Bumped
}

// Search returns flattened results, or false on failure.
func (a *Adapter) Search(query string, limit int32) ([]FlatItem, bool) {
	if err := checkUTF8("query", query); err != nil {
		a.log.Error("search rejected", logger.Error(err))
		return nil, false
	}

	items, err := a.core.Search(query, int(limit))
	if err != nil {
		a.log.Error("search failed", logger.Error(err))
		return nil, false
	}

	flat := make([]FlatItem, 0, len(items))
	for _, item := range items {
		f, err := Flatten(item)
		if err != nil {
			a.log.Error("search result cannot cross the boundary", logger.Error(err))
			return nil, false
		}
		flat = append(flat, f)
	}
	return flat, true
}

// Get returns the flattened item, or false if it is absent or unreadable.
func (a *Adapter) Get(id int64) (FlatItem, bool) {
	item, err := a.core.Get(id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.log.Error("get failed", logger.Int64("id", id), logger.Error(err))
		}
		return FlatItem{}, false
	}

	flat, err := Flatten(item)
	if err != nil {
		a.log.Error("item cannot cross the boundary", logger.Error(err))
		return FlatItem{}, false
	}
	return flat, true
}

// Delete returns StatusOK or StatusError.
func (a *Adapter) Delete(id int64) int32 {
	return a.status("delete", id, a.core.Delete(id))
}

// SetPinned treats any non-zero pinned as true.
func (a *Adapter) SetPinned(id int64, pinned int32) int32 {
	return a.status("pin", id, a.core.Pin(id, pinned != 0))
}

func (a *Adapter) status(op string, id int64, err error) int32 {
	if err == nil {
		return StatusOK
	}
	if !errors.Is(err, store.ErrNotFound) {
		a.log.Error(op+" failed", logger.Int64("id", id), logger.Error(err))
	}
	return StatusError
}
