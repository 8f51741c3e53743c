package dbstore

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/yiblet/haste/internal/dedup"
	"github.com/yiblet/haste/internal/logger"
	"github.com/yiblet/haste/internal/store"
	"github.com/yiblet/haste/internal/store/dbstore/migrations"
	"gorm.io/gorm"
)

// migrationStep is one schema version. Script runs first, then Backfill
// (if any), then the version is recorded, all in one transaction.
type migrationStep struct {
	Version  int
	Name     string
	Script   string
	Backfill func(tx *gorm.DB) error
}

// backfills holds data fixups that SQL alone cannot express, by version.
var backfills = map[int]func(tx *gorm.DB) error{
	2: backfillDedupHash,
}

// defaultSteps returns the embedded migration list.
func defaultSteps() ([]migrationStep, error) {
	return loadSteps(migrations.FS, backfills)
}

// loadSteps reads NNNN_name.sql files from fsys in version order.
func loadSteps(fsys fs.FS, fixups map[int]func(tx *gorm.DB) error) ([]migrationStep, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var steps []migrationStep
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: file name must start with a positive version", name)
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		steps = append(steps, migrationStep{
			Version:  version,
			Name:     strings.TrimSuffix(name, ".sql"),
			Script:   string(content),
			Backfill: fixups[version],
		})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].Version < steps[j].Version })

	for i := 1; i < len(steps); i++ {
		if steps[i].Version == steps[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", steps[i].Version)
		}
	}

	return steps, nil
}

// schemaVersion reads the persisted version integer.
func schemaVersion(db *gorm.DB) (int, error) {
	var version int
	if err := db.Raw("PRAGMA user_version").Scan(&version).Error; err != nil {
		return 0, fmt.Errorf("failed to read user_version: %w", err)
	}
	return version, nil
}

// migrate brings the schema up to the last step. A step is applied only if
// the stored version is below it, and is never re-run once recorded.
// It returns the versions applied by this call.
func migrate(db *gorm.DB, dbPath string, steps []migrationStep, log logger.Logger) ([]int, error) {
	current, err := schemaVersion(db)
	if err != nil {
		return nil, store.Migration(dbPath, err)
	}

	if n := len(steps); n > 0 && current > steps[n-1].Version {
		return nil, store.Migration(dbPath, fmt.Errorf(
			"schema version %d is newer than the latest known version %d", current, steps[n-1].Version))
	}

	var applied []int
	for _, step := range steps {
		if current >= step.Version {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(step.Script).Error; err != nil {
				return fmt.Errorf("failed to apply %s: %w", step.Name, err)
			}
			if step.Backfill != nil {
				if err := step.Backfill(tx); err != nil {
					return fmt.Errorf("failed to backfill %s: %w", step.Name, err)
				}
			}
			// PRAGMA does not take bound parameters.
			if err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", step.Version)).Error; err != nil {
				return fmt.Errorf("failed to record version %d: %w", step.Version, err)
			}
			return nil
		})
		if err != nil {
			return applied, store.Migration(dbPath, err)
		}

		log.Info("applied migration", logger.Int("version", step.Version), logger.String("name", step.Name))
		current = step.Version
		applied = append(applied, step.Version)
	}

	return applied, nil
}

// backfillDedupHash fills dedup_hash for rows written before the column existed.
func backfillDedupHash(tx *gorm.DB) error {
	var rows []*ItemModel
	if err := tx.Select("id", "kind", "content_ref").
		Where("dedup_hash IS NULL").
		Find(&rows).Error; err != nil {
		return err
	}

	for _, row := range rows {
		kind := store.Kind(row.Kind)
		hash := dedup.Hash(kind, dedup.Key(kind, row.ContentRef))
		if err := tx.Model(&ItemModel{}).
			Where("id = ?", row.ID).
			Update("dedup_hash", hash).Error; err != nil {
			return err
		}
	}
	return nil
}
