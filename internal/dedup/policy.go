// Package dedup decides whether a new clipboard item repeats an existing one.
//
// Text and rtf items are compared on their normalized text, image and file
// items on their raw reference. A repeat bumps the existing item's timestamp
// instead of inserting a new row.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/yiblet/haste/internal/store"
)

// Action is what the caller should do with a candidate item.
type Action int

const (
	// Insert means no duplicate exists; create a new row.
	Insert Action = iota
	// BumpExisting means a duplicate exists; overwrite its created_at.
	BumpExisting
)

func (a Action) String() string {
	switch a {
	case Insert:
		return "insert"
	case BumpExisting:
		return "bump"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Resolve.
type Decision struct {
	Action Action

	// ExistingID is set when Action is BumpExisting.
	ExistingID int64
}

// Finder looks up the most recent item of a kind carrying a dedup key.
// store.ItemRepository satisfies it.
type Finder interface {
	FindDuplicate(kind store.Kind, key string) (id int64, found bool, err error)
}

// Resolve decides between inserting candidate and bumping an existing item.
// When several rows share the key the most recent one wins.
func Resolve(candidate *store.NewItem, finder Finder) (Decision, error) {
	id, found, err := finder.FindDuplicate(candidate.Kind, Key(candidate.Kind, candidate.ContentRef))
	if err != nil {
		return Decision{}, err
	}
	if !found {
		return Decision{Action: Insert}, nil
	}
	return Decision{Action: BumpExisting, ExistingID: id}, nil
}

// Key returns the dedup key of content for the given kind.
func Key(kind store.Kind, content string) string {
	if kind.Indexed() {
		return Normalize(content)
	}
	return content
}

// Hash returns the indexed lookup value stored alongside each row.
// Rows sharing a hash are re-checked against Key before they count as a match.
func Hash(kind store.Kind, key string) string {
	sum := sha256.Sum256([]byte(string(kind) + "\x00" + key))
	return hex.EncodeToString(sum[:])
}

// Normalize collapses every run of whitespace, newlines included, into a
// single space and trims both ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
