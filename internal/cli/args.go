package cli

import (
	"fmt"

	"github.com/yiblet/haste/internal/store"
)

// Args represents the top-level command structure
type Args struct {
	DBPath     *string `arg:"--db" help:"Database file (overrides config)"`
	ConfigPath *string `arg:"--config" help:"Config file (default: ~/.config/haste/config.yaml)"`

	Add    *AddCmd    `arg:"subcommand:add" help:"Add an item to the history"`
	Get    *GetCmd    `arg:"subcommand:get" help:"Print an item's content"`
	Delete *DeleteCmd `arg:"subcommand:delete" help:"Delete items"`
	Pin    *PinCmd    `arg:"subcommand:pin" help:"Pin an item"`
	Unpin  *PinCmd    `arg:"subcommand:unpin" help:"Unpin an item"`
	Tag    *TagCmd    `arg:"subcommand:tag" help:"Replace an item's tags"`
	Search *SearchCmd `arg:"subcommand:search" help:"Search the history"`
	List   *ListCmd   `arg:"subcommand:list" help:"List items, pinned first"`
	Browse *BrowseCmd `arg:"subcommand:browse" help:"Browse and search the history interactively"`
	Config *ConfigCmd `arg:"subcommand:config" help:"Manage configuration"`
}

// AddCmd represents 'haste add'
type AddCmd struct {
	Content   *string  `arg:"positional" help:"Content or path (reads stdin when omitted)"`
	Kind      string   `arg:"-k,--kind" default:"text" help:"Item kind: text, rtf, image or file"`
	Source    *string  `arg:"-s,--source" help:"Source application"`
	Tags      []string `arg:"-t,--tag,separate" help:"Tag (repeatable)"`
	Dedup     bool     `arg:"-d,--dedup" help:"Bump an equivalent item instead of adding a new one"`
	Clipboard bool     `arg:"-c,--clipboard" help:"Read from clipboard"`
}

// GetCmd represents 'haste get'
type GetCmd struct {
	ID        int64 `arg:"positional,required" help:"Item id"`
	Clipboard bool  `arg:"-c,--clipboard" help:"Copy to clipboard instead of printing"`
}

// DeleteCmd represents 'haste delete'
type DeleteCmd struct {
	IDs []int64 `arg:"positional,required" help:"Item ids"`
}

// PinCmd represents 'haste pin' and 'haste unpin'
type PinCmd struct {
	ID int64 `arg:"positional,required" help:"Item id"`
}

// TagCmd represents 'haste tag'
type TagCmd struct {
	ID   int64    `arg:"positional,required" help:"Item id"`
	Tags []string `arg:"positional" help:"New tags (none clears them)"`
}

// SearchCmd represents 'haste search'
type SearchCmd struct {
	Query  string `arg:"positional,required" help:"Search text"`
	Limit  *int   `arg:"-n,--limit" help:"Maximum results (default: search_limit from config)"`
	IDOnly bool   `arg:"--id-only" help:"Print only item ids"`
}

// ListCmd represents 'haste list'
type ListCmd struct {
	Limit *int `arg:"-n,--limit" help:"Maximum items, 0 for all (default: search_limit from config)"`
}

// BrowseCmd represents 'haste browse'
type BrowseCmd struct {
	Limit *int `arg:"-n,--limit" help:"Maximum items shown, 0 for all (default: 0)"`
}

// ConfigCmd represents 'haste config'
type ConfigCmd struct {
	Get  *ConfigGetCmd  `arg:"subcommand:get" help:"Get a configuration value"`
	Set  *ConfigSetCmd  `arg:"subcommand:set" help:"Set a configuration value"`
	List *ConfigListCmd `arg:"subcommand:list" help:"List all configuration values"`
}

type ConfigGetCmd struct {
	Key string `arg:"positional,required" help:"Configuration key"`
}

type ConfigSetCmd struct {
	Key   string `arg:"positional,required" help:"Configuration key"`
	Value string `arg:"positional,required" help:"Configuration value"`
}

type ConfigListCmd struct{}

// Description returns the program description
func (Args) Description() string {
	return "haste - clipboard history store with full-text search"
}

// Version returns the program version
func (Args) Version() string {
	return "haste 0.1.0"
}

// Epilogue returns additional help text
func (Args) Epilogue() string {
	return `Examples:
  echo "hello" | haste add          # Add from stdin
  haste add -c --dedup              # Add the clipboard, bumping repeats
  haste add -k file ./report.pdf    # Add a file reference
  haste search rust                 # Full-text search
  haste search go -n 5              # Short queries match substrings
  haste get 12 -c                   # Copy item 12 back to the clipboard
  haste browse                      # Pick an item interactively
  haste config set history-limit 500`
}

// Validate performs validation on the parsed arguments
func (args *Args) Validate() error {
	switch {
	case args.Add != nil:
		return args.Add.Validate()
	case args.Search != nil:
		return validateLimit(args.Search.Limit)
	case args.List != nil:
		return validateLimit(args.List.Limit)
	case args.Browse != nil:
		return validateLimit(args.Browse.Limit)
	}
	return nil
}

// Validate validates add command arguments
func (a *AddCmd) Validate() error {
	if a.Content != nil && a.Clipboard {
		return fmt.Errorf("cannot specify both content and clipboard input")
	}
	if _, err := store.ParseKind(a.Kind); err != nil {
		return fmt.Errorf("--kind must be one of text, rtf, image, file")
	}
	if a.Clipboard && a.Kind != string(store.KindText) {
		return fmt.Errorf("--kind cannot be combined with --clipboard")
	}
	return nil
}

func validateLimit(limit *int) error {
	if limit != nil && *limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	return nil
}
