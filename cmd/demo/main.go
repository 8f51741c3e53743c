package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yiblet/haste/internal/core"
	"github.com/yiblet/haste/internal/logger"
	"github.com/yiblet/haste/internal/store"
)

func main() {
	fmt.Println("haste Core Demo")

	dbPath := "/tmp/haste_playground.db"
	blobsDir := "/tmp/haste_blobs"

	// start from a clean slate
	for _, suffix := range []string{"", "-wal", "-shm"} {
		os.Remove(dbPath + suffix)
	}
	os.RemoveAll(blobsDir)

	zl, err := logger.New("info", true)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	h, err := core.Open(core.Options{DBPath: dbPath, BlobsDir: blobsDir, Logger: zl})
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer h.Close()

	source := "demo"
	samples := []struct {
		content string
		kind    store.Kind
		tags    []string
	}{
		{"Hello, world!", store.KindText, []string{"greeting"}},
		{"Go makes concurrency approachable", store.KindText, []string{"programming"}},
		{"SQLite FTS5 is fast", store.KindText, []string{"database"}},
		{`{\rtf1 Rich text}`, store.KindRTF, nil},
		{"/path/to/image.png", store.KindImage, []string{"photo"}},
		{"/path/to/document.pdf", store.KindFile, []string{"document"}},
	}

	fmt.Println("\nAdding items:")
	var ids []int64
	for _, s := range samples {
		id, err := h.Add(&store.NewItem{
			Kind:       s.kind,
			ContentRef: s.content,
			SourceApp:  &source,
			CreatedAt:  time.Now().UnixMilli(),
			Tags:       s.tags,
		})
		if err != nil {
			log.Fatalf("Failed to add %q: %v", s.content, err)
		}
		ids = append(ids, id)
		fmt.Printf("  #%d %s\n", id, s.content)
	}

	fmt.Printf("\nPinning #%d\n", ids[0])
	if err := h.Pin(ids[0], true); err != nil {
		log.Fatalf("Failed to pin: %v", err)
	}

	for _, q := range []string{"concurrency", "fast", "pd"} {
		printSearch(h, q)
	}

	item, err := h.Get(ids[0])
	if err != nil {
		log.Fatalf("Failed to get item: %v", err)
	}
	fmt.Printf("\nItem #%d: %q kind=%s pinned=%t tags=%v\n",
		item.ID, item.ContentRef, item.Kind, item.Pinned, item.Tags)

	fmt.Println("\nAdding a whitespace variant of the first item with dedup:")
	res, err := h.AddWithDedup(&store.NewItem{
		Kind:       store.KindText,
		ContentRef: "  Hello,   world!  ",
		CreatedAt:  time.Now().UnixMilli(),
	})
	if err != nil {
		log.Fatalf("Failed to add with dedup: %v", err)
	}
	if res.Bumped {
		fmt.Printf("  duplicate of #%d, timestamp bumped\n", res.ID)
	} else {
		fmt.Printf("  inserted #%d (expected a duplicate)\n", res.ID)
	}

	fmt.Printf("\nDeleting #%d\n", ids[2])
	if err := h.Delete(ids[2]); err != nil {
		log.Fatalf("Failed to delete: %v", err)
	}
	printSearch(h, "fast")

	version, err := h.SchemaVersion()
	if err != nil {
		log.Fatalf("Failed to read schema version: %v", err)
	}
	fmt.Printf("\nDone. Database %s at schema version %d\n", dbPath, version)
	fmt.Printf("Inspect it with: sqlite3 %s\n", dbPath)
}

func printSearch(h *core.Core, query string) {
	results, err := h.Search(query, 10)
	if err != nil {
		log.Fatalf("Search %q failed: %v", query, err)
	}
	fmt.Printf("\nSearch %q: %d result(s)\n", query, len(results))
	for _, item := range results {
		fmt.Printf("  #%d [%s] %s\n", item.ID, item.Kind, item.ContentRef)
	}
}
