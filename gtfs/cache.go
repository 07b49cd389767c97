package gtfs

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// SerializeIndex encodes an Index with gob so a parsed feed can be cached
// on disk.
func SerializeIndex(index *Index) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(index); err != nil {
		return nil, fmt.Errorf("failed to encode gtfs index: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeIndex decodes an Index produced by SerializeIndex.
func DeserializeIndex(data []byte) (*Index, error) {
	index := NewIndex()
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(index); err != nil {
		return nil, fmt.Errorf("failed to decode gtfs index: %w", err)
	}
	return index, nil
}

// LoadCached returns the index cached at cachePath, or parses zipPath and
// writes the cache. An empty cachePath disables caching. A cache that fails
// to decode is rebuilt.
func LoadCached(zipPath, cachePath string) (*Index, error) {
	if cachePath != "" {
		if data, err := os.ReadFile(cachePath); err == nil {
			if index, err := DeserializeIndex(data); err == nil {
				return index, nil
			}
		}
	}
	index, err := NewIndexFromFile(zipPath)
	if err != nil {
		return nil, err
	}
	if cachePath != "" {
		data, err := SerializeIndex(index)
		if err != nil {
			return index, err
		}
		if err := os.WriteFile(cachePath, data, 0644); err != nil {
			return index, fmt.Errorf("failed to write gtfs cache: %w", err)
		}
	}
	return index, nil
}
