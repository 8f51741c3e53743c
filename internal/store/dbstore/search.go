package dbstore

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yiblet/haste/internal/store"
)

// Search finds items matching query.
//
// Queries shorter than store.ShortQueryLength characters run a LIKE scan over
// every kind, newest first. Longer queries go through the FTS5 index, which
// only holds text and rtf items, ordered by rank and then recency.
func (r *itemRepo) Search(query string, limit int) ([]*store.Item, error) {
	if limit < 0 {
		return nil, store.Invalid("search", fmt.Errorf("limit must not be negative"))
	}
	if !utf8.ValidString(query) {
		return nil, store.Invalid("search", fmt.Errorf("query is not valid UTF-8"))
	}
	if limit == 0 {
		return []*store.Item{}, nil
	}

	if utf8.RuneCountInString(query) < store.ShortQueryLength {
		return r.searchSubstring(query, limit)
	}
	return r.searchFullText(query, limit)
}

// searchSubstring leaves % and _ in the query as LIKE wildcards.
func (r *itemRepo) searchSubstring(query string, limit int) ([]*store.Item, error) {
	defer r.lock()()

	var models []*ItemModel
	if err := r.db.
		Where("content_ref LIKE ?", "%"+query+"%").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, store.Storage("search", 0, err)
	}
	return toItems(models)
}

func (r *itemRepo) searchFullText(query string, limit int) ([]*store.Item, error) {
	match := ftsQuery(query)
	if match == "" {
		return []*store.Item{}, nil
	}

	defer r.lock()()

	var models []*ItemModel
	if err := r.db.Raw(`
		SELECT items.*
		FROM items_fts
		JOIN items ON items.id = items_fts.rowid
		WHERE items_fts MATCH ?
		ORDER BY items_fts.rank, items.created_at DESC, items.id DESC
		LIMIT ?`, match, limit).
		Scan(&models).Error; err != nil {
		return nil, store.Storage("search", 0, err)
	}
	return toItems(models)
}

// ftsQuery quotes every whitespace-separated term so punctuation in user
// input is never parsed as FTS5 syntax.
// `fix "auth" bug` → `"fix" """auth""" "bug"`
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
