package store

import (
	"fmt"
	"unicode/utf8"
)

// Kind identifies what a clipboard item holds. It is fixed at creation.
type Kind string

const (
	KindText  Kind = "text"
	KindRTF   Kind = "rtf"
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// Kinds lists every valid kind in boundary code order.
var Kinds = []Kind{KindText, KindRTF, KindImage, KindFile}

// ParseKind converts a stored or user-supplied kind tag into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindText, KindRTF, KindImage, KindFile:
		return k, nil
	}
	return "", &Error{Op: "parse kind", Kind: ErrInvalid, Err: fmt.Errorf("unknown kind %q", s)}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, err := ParseKind(string(k))
	return err == nil
}

// Indexed reports whether items of this kind carry literal text and
// therefore get an entry in the full-text index.
func (k Kind) Indexed() bool {
	return k == KindText || k == KindRTF
}

func (k Kind) String() string {
	return string(k)
}

// Item represents a persisted clipboard entry.
type Item struct {
	// ID is assigned on insert and never reused.
	ID int64

	// Kind is fixed at creation.
	Kind Kind

	// ContentRef is the literal text for text/rtf items and an opaque
	// path or reference for image/file items.
	ContentRef string

	// SourceApp is the optional provenance label. Nil means absent.
	SourceApp *string

	// CreatedAt is the epoch-millisecond timestamp used for recency
	// ordering. A dedup bump overwrites it.
	CreatedAt int64

	// Pinned can be flipped independently of content.
	Pinned bool

	// Tags is a set of labels. Order is not significant.
	Tags []string
}

// NewItem contains the data needed to create a new item.
type NewItem struct {
	Kind       Kind
	ContentRef string
	SourceApp  *string
	CreatedAt  int64
	Tags       []string
}

// Validate checks the input before it reaches the database.
func (n *NewItem) Validate() error {
	if !n.Kind.Valid() {
		return &Error{Op: "validate", Kind: ErrInvalid, Err: fmt.Errorf("unknown kind %q", n.Kind)}
	}
	if n.ContentRef == "" {
		return &Error{Op: "validate", Kind: ErrInvalid, Err: fmt.Errorf("content is empty")}
	}
	if !utf8.ValidString(n.ContentRef) {
		return &Error{Op: "validate", Kind: ErrInvalid, Err: fmt.Errorf("content is not valid UTF-8")}
	}
	if n.SourceApp != nil && !utf8.ValidString(*n.SourceApp) {
		return &Error{Op: "validate", Kind: ErrInvalid, Err: fmt.Errorf("source app is not valid UTF-8")}
	}
	if n.CreatedAt < 0 {
		return &Error{Op: "validate", Kind: ErrInvalid, Err: fmt.Errorf("created_at must not be negative")}
	}
	for _, tag := range n.Tags {
		if !utf8.ValidString(tag) {
			return &Error{Op: "validate", Kind: ErrInvalid, Err: fmt.Errorf("tag is not valid UTF-8")}
		}
	}
	return nil
}

// StringPtr returns a pointer to s, or nil when s is empty.
// Handy for optional fields such as SourceApp.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
