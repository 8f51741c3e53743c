package dedup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yiblet/haste/internal/store"
)

type fakeFinder struct {
	rows    map[store.Kind]map[string]int64
	err     error
	lastKey string
}

func (f *fakeFinder) FindDuplicate(kind store.Kind, key string) (int64, bool, error) {
	f.lastKey = key
	if f.err != nil {
		return 0, false, f.err
	}
	id, ok := f.rows[kind][key]
	return id, ok, nil
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normal", "hello world", "hello world"},
		{"surrounding spaces", "  hello   world  ", "hello world"},
		{"newlines and tabs", "  hello   world  \n\n  test  ", "hello world test"},
		{"crlf", "a\r\nb", "a b"},
		{"only whitespace", " \t\n ", ""},
		{"unicode spaces", "a\u2003\u00a0b", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "hello world", Key(store.KindText, " hello\n world "))
	assert.Equal(t, "hello world", Key(store.KindRTF, "hello   world"))
	assert.Equal(t, " /tmp/a b.png", Key(store.KindImage, " /tmp/a b.png"))
	assert.Equal(t, "/tmp/doc.pdf", Key(store.KindFile, "/tmp/doc.pdf"))
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash(store.KindText, "abc"), Hash(store.KindText, "abc"))
	assert.NotEqual(t, Hash(store.KindText, "abc"), Hash(store.KindRTF, "abc"))
	assert.NotEqual(t, Hash(store.KindText, "abc"), Hash(store.KindText, "abd"))
	assert.Len(t, Hash(store.KindFile, "x"), 64)
}

func TestResolve(t *testing.T) {
	finder := &fakeFinder{rows: map[store.Kind]map[string]int64{
		store.KindText:  {"hello world": 7},
		store.KindImage: {"/path/to/image.png": 9},
	}}

	t.Run("text duplicate with different whitespace", func(t *testing.T) {
		d, err := Resolve(&store.NewItem{Kind: store.KindText, ContentRef: "  hello \n world "}, finder)
		require.NoError(t, err)
		assert.Equal(t, Decision{Action: BumpExisting, ExistingID: 7}, d)
		assert.Equal(t, "hello world", finder.lastKey)
	})

	t.Run("same text different kind", func(t *testing.T) {
		d, err := Resolve(&store.NewItem{Kind: store.KindRTF, ContentRef: "hello world"}, finder)
		require.NoError(t, err)
		assert.Equal(t, Insert, d.Action)
	})

	t.Run("image compared raw", func(t *testing.T) {
		d, err := Resolve(&store.NewItem{Kind: store.KindImage, ContentRef: "/path/to/image.png"}, finder)
		require.NoError(t, err)
		assert.Equal(t, BumpExisting, d.Action)
		assert.EqualValues(t, 9, d.ExistingID)

		d, err = Resolve(&store.NewItem{Kind: store.KindImage, ContentRef: " /path/to/image.png"}, finder)
		require.NoError(t, err)
		assert.Equal(t, Insert, d.Action)
	})

	t.Run("finder error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Resolve(&store.NewItem{Kind: store.KindText, ContentRef: "x"}, &fakeFinder{err: boom})
		assert.ErrorIs(t, err, boom)
	})
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "insert", Insert.String())
	assert.Equal(t, "bump", BumpExisting.String())
}
