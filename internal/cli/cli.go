package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yiblet/haste/internal/clipboard"
	"github.com/yiblet/haste/internal/config"
	"github.com/yiblet/haste/internal/core"
	"github.com/yiblet/haste/internal/logger"
	"github.com/yiblet/haste/internal/preview"
	"github.com/yiblet/haste/internal/store"
	"github.com/yiblet/haste/internal/tui"
	"golang.org/x/term"
)

// CLI handles the command-line interface
type CLI struct {
	configs   *config.ConfigManager
	config    *config.Config
	dbPath    string
	blobsDir  string
	clipboard clipboard.Clipboard
	log       logger.Logger

	// core is opened on first use so config commands work without a store.
	core *core.Core

	in  io.Reader
	out io.Writer
	now func() time.Time
}

// NewWithArgs creates a CLI from parsed arguments. clip is the clipboard
// used by -c flags.
func NewWithArgs(args *Args, clip clipboard.Clipboard) (*CLI, error) {
	var configs *config.ConfigManager
	if args != nil && args.ConfigPath != nil {
		configs = config.NewConfigManagerWithPath(*args.ConfigPath)
	} else {
		var err error
		if configs, err = config.NewConfigManager(); err != nil {
			return nil, err
		}
	}

	cfg, err := configs.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	dbPath, blobsDir := configs.ResolvePaths(cfg)
	if args != nil && args.DBPath != nil {
		dbPath = *args.DBPath
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &CLI{
		configs:   configs,
		config:    cfg,
		dbPath:    dbPath,
		blobsDir:  blobsDir,
		clipboard: clip,
		log:       log,
		in:        os.Stdin,
		out:       os.Stdout,
		now:       time.Now,
	}, nil
}

// Close releases the store if it was opened
func (c *CLI) Close() error {
	if c.core == nil {
		return nil
	}
	err := c.core.Close()
	c.core = nil
	return err
}

func (c *CLI) open() (*core.Core, error) {
	if c.core != nil {
		return c.core, nil
	}

	if err := os.MkdirAll(filepath.Dir(c.dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	h, err := core.Open(core.Options{
		DBPath:       c.dbPath,
		BlobsDir:     c.blobsDir,
		HistoryLimit: c.config.HistoryLimit,
		Logger:       c.log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	c.core = h
	return h, nil
}

// Execute runs the CLI command based on parsed arguments
func (c *CLI) Execute(args *Args) error {
	if err := args.Validate(); err != nil {
		return err
	}

	switch {
	case args.Add != nil:
		return c.executeAdd(args.Add)
	case args.Get != nil:
		return c.executeGet(args.Get)
	case args.Delete != nil:
		return c.executeDelete(args.Delete)
	case args.Pin != nil:
		return c.executePin(args.Pin.ID, true)
	case args.Unpin != nil:
		return c.executePin(args.Unpin.ID, false)
	case args.Tag != nil:
		return c.executeTag(args.Tag)
	case args.Search != nil:
		return c.executeSearch(args.Search)
	case args.List != nil:
		return c.executeList(args.List)
	case args.Browse != nil:
		return c.executeBrowse(args.Browse)
	case args.Config != nil:
		return c.executeConfig(args.Config)
	default:
		if c.interactive() {
			return c.executeBrowse(&BrowseCmd{})
		}
		return c.executeList(&ListCmd{})
	}
}

// interactive reports whether output goes to a terminal.
func (c *CLI) interactive() bool {
	f, ok := c.out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// executeAdd handles the 'haste add' command
func (c *CLI) executeAdd(cmd *AddCmd) error {
	item := &store.NewItem{
		Kind:      store.Kind(cmd.Kind),
		SourceApp: cmd.Source,
		CreatedAt: c.now().UnixMilli(),
		Tags:      cmd.Tags,
	}

	switch {
	case cmd.Clipboard:
		if err := c.fillFromClipboard(item); err != nil {
			return err
		}
	case cmd.Content != nil:
		item.ContentRef = *cmd.Content
		if !item.Kind.Indexed() {
			abs, err := filepath.Abs(item.ContentRef)
			if err != nil {
				return fmt.Errorf("failed to resolve path: %w", err)
			}
			item.ContentRef = abs
		}
	default:
		data, err := io.ReadAll(c.in)
		if err != nil {
			return fmt.Errorf("failed to read content: %w", err)
		}
		if len(data) == 0 {
			return fmt.Errorf("no input provided")
		}
		item.ContentRef = string(data)
	}

	h, err := c.open()
	if err != nil {
		return err
	}

	if !cmd.Dedup {
		id, err := h.Add(item)
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}
		fmt.Fprintf(c.out, "Added #%d: %s\n", id, preview.Item(&store.Item{Kind: item.Kind, ContentRef: item.ContentRef}, previewWidth))
		return nil
	}

	res, err := h.AddWithDedup(item)
	if err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	verb := "Added"
	if res.Bumped {
		verb = "Bumped"
	}
	fmt.Fprintf(c.out, "%s #%d: %s\n", verb, res.ID, preview.Item(&store.Item{Kind: item.Kind, ContentRef: item.ContentRef}, previewWidth))
	return nil
}

// fillFromClipboard sets kind and content from the clipboard. Images are
// written to the blobs directory and referenced by path.
func (c *CLI) fillFromClipboard(item *store.NewItem) error {
	if c.clipboard == nil || !c.clipboard.IsSupported() {
		return fmt.Errorf("clipboard is not available on this system")
	}

	snap, err := c.clipboard.Read()
	if err != nil {
		return fmt.Errorf("failed to read clipboard: %w", err)
	}
	if snap.Empty() {
		return fmt.Errorf("clipboard is empty")
	}

	if len(snap.Image) == 0 {
		item.Kind = store.KindText
		item.ContentRef = snap.Text
		return nil
	}

	h, err := c.open()
	if err != nil {
		return err
	}
	path, err := h.Blobs().Put(snap.Image, "png")
	if err != nil {
		return fmt.Errorf("failed to store clipboard image: %w", err)
	}
	item.Kind = store.KindImage
	item.ContentRef = path
	return nil
}

// executeGet handles the 'haste get' command
func (c *CLI) executeGet(cmd *GetCmd) error {
	h, err := c.open()
	if err != nil {
		return err
	}

	item, err := h.Get(cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to get item %d: %w", cmd.ID, err)
	}

	if !cmd.Clipboard {
		_, err := io.WriteString(c.out, item.ContentRef)
		return err
	}

	if c.clipboard == nil || !c.clipboard.IsSupported() {
		return fmt.Errorf("clipboard is not available on this system")
	}
	if err := c.clipboard.WriteText(item.ContentRef); err != nil {
		return fmt.Errorf("failed to write to clipboard: %w", err)
	}
	fmt.Fprintf(c.out, "Copied to clipboard: %s\n", preview.Item(item, previewWidth))
	return nil
}

// executeDelete handles the 'haste delete' command
func (c *CLI) executeDelete(cmd *DeleteCmd) error {
	h, err := c.open()
	if err != nil {
		return err
	}

	for _, id := range cmd.IDs {
		if err := h.Delete(id); err != nil {
			return fmt.Errorf("failed to delete item %d: %w", id, err)
		}
		fmt.Fprintf(c.out, "Deleted #%d\n", id)
	}
	return nil
}

// executePin handles 'haste pin' and 'haste unpin'
func (c *CLI) executePin(id int64, pinned bool) error {
	h, err := c.open()
	if err != nil {
		return err
	}

	if err := h.Pin(id, pinned); err != nil {
		return fmt.Errorf("failed to update item %d: %w", id, err)
	}

	verb := "Pinned"
	if !pinned {
		verb = "Unpinned"
	}
	fmt.Fprintf(c.out, "%s #%d\n", verb, id)
	return nil
}

// executeTag handles the 'haste tag' command
func (c *CLI) executeTag(cmd *TagCmd) error {
	h, err := c.open()
	if err != nil {
		return err
	}

	if err := h.SetTags(cmd.ID, cmd.Tags); err != nil {
		return fmt.Errorf("failed to tag item %d: %w", cmd.ID, err)
	}

	item, err := h.Get(cmd.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Tagged #%d: [%s]\n", cmd.ID, strings.Join(item.Tags, ", "))
	return nil
}

// executeSearch handles the 'haste search' command
func (c *CLI) executeSearch(cmd *SearchCmd) error {
	h, err := c.open()
	if err != nil {
		return err
	}

	limit := c.config.SearchLimit
	if cmd.Limit != nil {
		limit = *cmd.Limit
	}

	results, err := h.Search(cmd.Query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		return fmt.Errorf("no matches found for: %s", cmd.Query)
	}

	for _, item := range results {
		if cmd.IDOnly {
			fmt.Fprintf(c.out, "%d\n", item.ID)
			continue
		}
		fmt.Fprintln(c.out, renderItem(item))
	}
	return nil
}

// executeList handles the 'haste list' command
func (c *CLI) executeList(cmd *ListCmd) error {
	h, err := c.open()
	if err != nil {
		return err
	}

	limit := c.config.SearchLimit
	if cmd.Limit != nil {
		limit = *cmd.Limit
	}

	items, err := h.List(limit)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	if len(items) == 0 {
		fmt.Fprintln(c.out, "History is empty!")
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "To add items:")
		fmt.Fprintln(c.out, `  echo "Hello World" | haste add`)
		fmt.Fprintln(c.out, "  haste add -c  # from clipboard")
		return nil
	}

	for _, item := range items {
		fmt.Fprintln(c.out, renderItem(item))
	}
	return nil
}

// executeBrowse handles the 'haste browse' command
func (c *CLI) executeBrowse(cmd *BrowseCmd) error {
	h, err := c.open()
	if err != nil {
		return err
	}

	limit := 0
	if cmd.Limit != nil {
		limit = *cmd.Limit
	}

	model := tui.NewModel(h, c.clipboard, limit)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running browser: %w", err)
	}

	switch {
	case model.Chosen == nil:
	case c.clipboard != nil && c.clipboard.IsSupported():
		fmt.Fprintf(c.out, "Copied to clipboard: %s\n", preview.Item(model.Chosen, previewWidth))
	default:
		_, err = io.WriteString(c.out, model.Chosen.ContentRef)
	}
	return err
}

// executeConfig handles the 'haste config' command
func (c *CLI) executeConfig(cmd *ConfigCmd) error {
	switch {
	case cmd.Get != nil:
		value, err := c.configs.Get(cmd.Get.Key)
		if err != nil {
			return fmt.Errorf("failed to get config value: %w", err)
		}
		fmt.Fprintf(c.out, "%s\n", value)
		return nil

	case cmd.Set != nil:
		if err := c.configs.Update(cmd.Set.Key, cmd.Set.Value); err != nil {
			return fmt.Errorf("failed to set config value: %w", err)
		}
		fmt.Fprintf(c.out, "Set %s = %s\n", cmd.Set.Key, cmd.Set.Value)
		return nil

	case cmd.List != nil:
		values, err := c.configs.List()
		if err != nil {
			return fmt.Errorf("failed to list config values: %w", err)
		}

		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(c.out, "Current configuration (%s):\n", c.configs.GetConfigPath())
		for _, key := range keys {
			fmt.Fprintf(c.out, "  %s = %s\n", keyStyle.Render(key), values[key])
		}
		return nil

	default:
		return fmt.Errorf("no config subcommand specified")
	}
}
