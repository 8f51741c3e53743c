// Package mockboard provides a mock clipboard implementation for testing.
package mockboard

import (
	"github.com/yiblet/haste/internal/clipboard"
)

// MockClipboard implements clipboard.Clipboard in memory
type MockClipboard struct {
	snap clipboard.Snapshot
	err  error
}

// New creates a new MockClipboard instance
func New() *MockClipboard {
	return &MockClipboard{}
}

// Read returns the current contents, or the injected error.
func (m *MockClipboard) Read() (*clipboard.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	snap := m.snap
	return &snap, nil
}

// WriteText replaces the contents with text
func (m *MockClipboard) WriteText(text string) error {
	if m.err != nil {
		return m.err
	}
	m.snap = clipboard.Snapshot{Text: text}
	return nil
}

// SetText sets the mock clipboard text directly (for testing)
func (m *MockClipboard) SetText(text string) {
	m.snap = clipboard.Snapshot{Text: text}
}

// SetImage sets the mock clipboard image directly (for testing)
func (m *MockClipboard) SetImage(png []byte) {
	m.snap = clipboard.Snapshot{Image: png}
}

// SetError makes every following call fail with err
func (m *MockClipboard) SetError(err error) {
	m.err = err
}

// Text returns the current clipboard text (for testing)
func (m *MockClipboard) Text() string {
	return m.snap.Text
}

// IsSupported always returns true for the mock clipboard
func (m *MockClipboard) IsSupported() bool {
	return true
}
