// Package clipboard defines the one-shot clipboard access used by the CLI.
// Watching the clipboard for changes is the host application's job.
package clipboard

// Snapshot is the clipboard content at one point in time. At most one of
// Text and Image is set; an image takes precedence when both are offered.
type Snapshot struct {
	Text string

	// Image holds PNG-encoded bytes.
	Image []byte
}

// Empty reports whether the clipboard held nothing usable.
func (s *Snapshot) Empty() bool {
	return s == nil || (s.Text == "" && len(s.Image) == 0)
}

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	Read() (*Snapshot, error)
	WriteText(text string) error

	// IsSupported reports whether the clipboard is reachable on this system.
	IsSupported() bool
}
