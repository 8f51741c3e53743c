// Package sysboard reads and writes the system clipboard through
// golang.design/x/clipboard (Cocoa on macOS, X11 on Linux, Win32 on Windows).
// When that cannot initialize, text falls back to the platform clipboard
// commands through github.com/atotto/clipboard (pbcopy, xclip, wl-copy).
package sysboard

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
	nativeclip "golang.design/x/clipboard"

	hclip "github.com/yiblet/haste/internal/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

func ensureInit() error {
	initOnce.Do(func() {
		initErr = nativeclip.Init()
	})
	return initErr
}

// SystemClipboard implements clipboard.Clipboard for the running desktop
type SystemClipboard struct{}

// New creates a new SystemClipboard instance
func New() *SystemClipboard {
	return &SystemClipboard{}
}

// IsSupported returns true if either backend is usable
func (s *SystemClipboard) IsSupported() bool {
	return ensureInit() == nil || !clipboard.Unsupported
}

// Read returns the clipboard image if one is present, else its text.
// Images are only available from the native backend.
func (s *SystemClipboard) Read() (*hclip.Snapshot, error) {
	if err := ensureInit(); err != nil {
		if clipboard.Unsupported {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		text, err := clipboard.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read clipboard: %w", err)
		}
		return &hclip.Snapshot{Text: text}, nil
	}

	if img := nativeclip.Read(nativeclip.FmtImage); len(img) > 0 {
		return &hclip.Snapshot{Image: img}, nil
	}
	return &hclip.Snapshot{Text: string(nativeclip.Read(nativeclip.FmtText))}, nil
}

// WriteText puts text on the clipboard
func (s *SystemClipboard) WriteText(text string) error {
	if err := ensureInit(); err != nil {
		if clipboard.Unsupported {
			return fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("failed to write clipboard: %w", err)
		}
		return nil
	}
	nativeclip.Write(nativeclip.FmtText, []byte(text))
	return nil
}
