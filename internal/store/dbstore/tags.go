package dbstore

import (
	"encoding/json"
	"fmt"
)

// Tags are persisted as a JSON array of strings (format v1). The column is
// opaque to SQL; nothing queries inside it.

// EncodeTags serializes a tag set. Empty tags and exact duplicates are
// dropped; first-seen order is kept.
func EncodeTags(tags []string) (string, error) {
	seen := make(map[string]struct{}, len(tags))
	clean := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		clean = append(clean, tag)
	}

	data, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(data), nil
}

// DecodeTags parses a stored tag column. An empty column or JSON null is
// an empty set; anything else that is not a string array is an error.
func DecodeTags(raw string) ([]string, error) {
	if raw == "" || raw == "null" {
		return []string{}, nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags %q: %w", raw, err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
