package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/yiblet/haste/internal/core"
	"github.com/yiblet/haste/internal/store"
)

var sampleTexts = []string{
	"The quick brown fox jumps over the lazy dog",
	"Go is a statically typed compiled language",
	"SQLite is fast and reliable",
	"Clipboard manager for macOS and Linux",
	"Full-text search with FTS5",
	"Performance optimization techniques",
	"Memory safety with garbage collection",
	"Concurrent programming with channels",
	"Interfaces are satisfied implicitly",
	"Database indexing strategies",
}

type options struct {
	Count    int    `arg:"-n,--count" default:"10000" help:"Number of items to ingest"`
	DBPath   string `arg:"--db" default:"/tmp/haste_perf_test.db" help:"Database file"`
	BlobsDir string `arg:"--blobs" default:"/tmp/haste_perf_blobs" help:"Blobs directory"`
	Keep     bool   `arg:"--keep" help:"Keep the database afterwards"`
}

func main() {
	var opts options
	arg.MustParse(&opts)

	cleanup := func() {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			os.Remove(opts.DBPath + suffix)
		}
		os.RemoveAll(opts.BlobsDir)
	}
	cleanup()

	h, err := core.Open(core.Options{DBPath: opts.DBPath, BlobsDir: opts.BlobsDir})
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	fmt.Printf("Ingesting %d items...\n", opts.Count)
	source := "perf_test"
	start := time.Now()
	for i := 0; i < opts.Count; i++ {
		kind := []store.Kind{store.KindText, store.KindRTF, store.KindImage, store.KindFile}[i%4]

		content := fmt.Sprintf("/path/to/resource_%d.dat", i)
		if kind.Indexed() {
			content = fmt.Sprintf("%s - item %d", sampleTexts[i%len(sampleTexts)], i)
		}

		var tags []string
		if i%5 == 0 {
			tags = []string{"important"}
		}

		if _, err := h.Add(&store.NewItem{
			Kind:       kind,
			ContentRef: content,
			SourceApp:  &source,
			CreatedAt:  1_000_000 + int64(i),
			Tags:       tags,
		}); err != nil {
			log.Fatalf("Failed to add item %d: %v", i, err)
		}
		if (i+1)%1000 == 0 {
			fmt.Print(".")
		}
	}
	elapsed := time.Since(start)
	fmt.Printf("\nIngested %d items in %.2fs (%.0f items/sec)\n\n",
		opts.Count, elapsed.Seconds(), float64(opts.Count)/elapsed.Seconds())

	queries := []struct{ query, label string }{
		{"fox", "Single word"},
		{"quick brown", "Two words"},
		{"compiled language", "Common phrase"},
		{"database", "General term"},
		{"optimization", "Long word"},
		{"go", "Short substring"},
	}

	fmt.Printf("%-25s %12s %12s %12s\n", "Query", "Median", "Min", "Max")
	fmt.Println(strings.Repeat("-", 65))

	var medians []time.Duration
	for _, q := range queries {
		var times []time.Duration
		for run := 0; run < 3; run++ {
			start := time.Now()
			results, err := h.Search(q.query, 100)
			if err != nil {
				log.Fatalf("Search %q failed: %v", q.query, err)
			}
			times = append(times, time.Since(start))
			if len(results) == 0 {
				fmt.Fprintf(os.Stderr, "Warning: no results for %q\n", q.query)
			}
		}
		sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
		median := times[len(times)/2]
		medians = append(medians, median)
		fmt.Printf("%-25s %10.2fms %10.2fms %10.2fms\n", q.label, ms(median), ms(times[0]), ms(times[len(times)-1]))
	}

	sort.Slice(medians, func(i, j int) bool { return medians[i] < medians[j] })
	overall := medians[len(medians)/2]
	fmt.Printf("\nOverall median latency: %.2fms\n", ms(overall))
	switch {
	case overall < 50*time.Millisecond:
		fmt.Println("Within the 50ms target.")
	case overall < 100*time.Millisecond:
		fmt.Println("Acceptable, above the 50ms target.")
	default:
		fmt.Println("Slower than expected (target: <50ms median).")
	}

	if info, err := os.Stat(opts.DBPath); err == nil {
		fmt.Printf("Database size: %d bytes\n", info.Size())
	}

	if err := h.Close(); err != nil {
		log.Fatalf("Failed to close store: %v", err)
	}
	if !opts.Keep {
		cleanup()
	}
}

func ms(d time.Duration) float64 {
	return d.Seconds() * 1000
}
