package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/yiblet/haste/internal/preview"
	"github.com/yiblet/haste/internal/store"
)

const previewWidth = 60

var (
	idStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	kindStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	timeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	pinStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	tagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	keyStyle  = lipgloss.NewStyle().Bold(true)
)

// renderItem formats one item as a single line.
func renderItem(item *store.Item) string {
	var b strings.Builder

	b.WriteString(idStyle.Render(padRight("#"+strconv.FormatInt(item.ID, 10), 6)))
	b.WriteString(" ")
	b.WriteString(kindStyle.Render(padRight(item.Kind.String(), 5)))
	b.WriteString(" ")
	b.WriteString(timeStyle.Render(time.UnixMilli(item.CreatedAt).Format("2006-01-02 15:04")))
	b.WriteString(" ")
	if item.Pinned {
		b.WriteString(pinStyle.Render("*"))
	} else {
		b.WriteString(" ")
	}
	b.WriteString(" ")
	b.WriteString(preview.Item(item, previewWidth))

	if len(item.Tags) > 0 {
		b.WriteString(" ")
		b.WriteString(tagStyle.Render("[" + strings.Join(item.Tags, ", ") + "]"))
	}
	return b.String()
}

func padRight(s string, width int) string {
	if n := len(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
