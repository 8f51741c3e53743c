package dbstore

import (
	"github.com/yiblet/haste/internal/store"
)

// ItemModel represents a clipboard item row in the database.
// The schema itself is owned by the migration scripts, not AutoMigrate.
type ItemModel struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Kind        string  `gorm:"column:kind;not null"`
	ContentRef  string  `gorm:"column:content_ref;not null"`
	SourceApp   *string `gorm:"column:source_app"`
	CreatedAtMs int64   `gorm:"column:created_at;not null"` // epoch millis, written by the caller
	Pinned      bool    `gorm:"column:pinned;not null"`
	Tags        string  `gorm:"column:tags;not null"` // see EncodeTags
	DedupHash   string  `gorm:"column:dedup_hash"`
}

// TableName returns the table name for ItemModel
func (ItemModel) TableName() string {
	return "items"
}

// ToItem converts the GORM model to a store.Item
func (m *ItemModel) ToItem() (*store.Item, error) {
	kind, err := store.ParseKind(m.Kind)
	if err != nil {
		return nil, store.Storage("decode", m.ID, err)
	}

	tags, err := DecodeTags(m.Tags)
	if err != nil {
		return nil, store.Storage("decode", m.ID, err)
	}

	return &store.Item{
		ID:         m.ID,
		Kind:       kind,
		ContentRef: m.ContentRef,
		SourceApp:  m.SourceApp,
		CreatedAt:  m.CreatedAtMs,
		Pinned:     m.Pinned,
		Tags:       tags,
	}, nil
}

func toItems(models []*ItemModel) ([]*store.Item, error) {
	items := make([]*store.Item, len(models))
	for i, model := range models {
		item, err := model.ToItem()
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}
