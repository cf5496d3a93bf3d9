package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// MappingFromHeader builds an index mapping from CSV header columns: every
// column is typed text, one shard, no replicas. The logical index name is
// stashed under _meta.
func MappingFromHeader(header []string, indexName string) map[string]interface{} {
	properties := make(map[string]interface{}, len(header))
	for _, column := range header {
		properties[column] = map[string]interface{}{"type": "text"}
	}

	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": properties,
			"_meta":      map[string]interface{}{"index_name": indexName},
		},
		"settings": map[string]interface{}{
			"index": map[string]interface{}{
				"number_of_shards":   1,
				"number_of_replicas": 0,
			},
		},
	}
}

// EnsureIndex creates the index when it does not exist yet, deriving the
// mapping from the CSV header. An index that is already present is left
// untouched, whatever its mapping.
func (c *Client) EnsureIndex(ctx context.Context, index string, header []string) error {
	mapping := MappingFromHeader(header, index)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	exists, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	drain(exists)
	if exists.StatusCode == http.StatusOK {
		return nil
	}
	if exists.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check index %s: unexpected status %d", index, exists.StatusCode)
	}

	payload, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal mapping for %s: %w", index, err)
	}

	res, err := c.es.Indices.Create(index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.String())
	}

	c.log.WithField("index", index).Info("📦 Created index")
	return nil
}
