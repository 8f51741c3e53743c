package dbstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTags(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want string
	}{
		{"nil", nil, "[]"},
		{"empty", []string{}, "[]"},
		{"keeps order", []string{"work", "home"}, `["work","home"]`},
		{"drops blanks and duplicates", []string{"a", "", "b", "a"}, `["a","b"]`},
		{"escapes quotes", []string{`say "hi"`}, `["say \"hi\""]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeTags(tt.tags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeTags(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{"empty column", "", []string{}, false},
		{"json null", "null", []string{}, false},
		{"empty array", "[]", []string{}, false},
		{"values", `["x","y"]`, []string{"x", "y"}, false},
		{"unicode", `["日本","emoji 🎉"]`, []string{"日本", "emoji 🎉"}, false},
		{"not an array", `{"a":1}`, nil, true},
		{"truncated", `["a"`, nil, true},
		{"wrong element type", `[1,2]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTags(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
