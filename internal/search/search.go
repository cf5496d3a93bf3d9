// Package search wraps the Elasticsearch client behind the small surface the
// reconciliation engine needs: exact-match lookup, document writes and
// mapping introspection. The client handle is injected, never global.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/reachiq/csv-sync/internal/model"
)

// Client talks to one Elasticsearch cluster with a bounded per-call timeout.
type Client struct {
	es      *elasticsearch.Client
	log     *logrus.Logger
	timeout time.Duration
}

// New builds a Client around an injected Elasticsearch handle.
func New(es *elasticsearch.Client, log *logrus.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{es: es, log: log, timeout: timeout}
}

// Connect dials Elasticsearch at the given addresses.
func Connect(addresses []string, log *logrus.Logger, timeout time.Duration) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return New(es, log, timeout), nil
}

// PropertyKeys returns the field names currently mapped on the index.
// Called once per batch to build the PropertyKeySet; a failure here is
// batch-fatal because no row can be projected without it.
func (c *Client) PropertyKeys(ctx context.Context, index string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.es.Indices.GetMapping(
		c.es.Indices.GetMapping.WithContext(ctx),
		c.es.Indices.GetMapping.WithIndex(index),
	)
	if err != nil {
		return nil, fmt.Errorf("get mapping for %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("get mapping for %s: %s", index, res.String())
	}

	var body map[string]struct {
		Mappings struct {
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode mapping for %s: %w", index, err)
	}

	var keys []string
	for _, idx := range body {
		for field := range idx.Mappings.Properties {
			keys = append(keys, field)
		}
	}
	return keys, nil
}

// FindOne runs an exact-match term query on searchField and returns at most
// one document. Natural keys are treated as logically unique; when more than
// one document matches, the first hit is used and a warning is logged so the
// duplicate shows up instead of being silently picked.
func (c *Client) FindOne(ctx context.Context, index, searchField, value string) (model.MatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := map[string]interface{}{
		"size": 2,
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				searchField: map[string]interface{}{"value": value},
			},
		},
	}
	payload, err := json.Marshal(query)
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("marshal term query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("search %s by %s: %w", index, searchField, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return model.MatchResult{}, fmt.Errorf("search %s by %s: %s", index, searchField, res.String())
	}

	var out struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string                 `json:"_id"`
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return model.MatchResult{}, fmt.Errorf("decode search response: %w", err)
	}

	if len(out.Hits.Hits) == 0 {
		return model.MatchResult{}, nil
	}
	if out.Hits.Total.Value > 1 {
		c.log.WithFields(logrus.Fields{
			"index": index,
			"field": searchField,
			"value": value,
			"total": out.Hits.Total.Value,
		}).Warn("⚠️ natural key matches more than one document, using first hit")
	}

	hit := out.Hits.Hits[0]
	return model.MatchResult{Found: true, DocID: hit.ID, Stored: hit.Source}, nil
}

// Create indexes a new document with an auto-assigned identity and returns it.
func (c *Client) Create(ctx context.Context, index string, fields map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	res, err := c.es.Index(index, bytes.NewReader(payload), c.es.Index.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("index into %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return "", fmt.Errorf("index into %s: %s", index, res.String())
	}

	var out struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode index response: %w", err)
	}
	return out.ID, nil
}

// PartialUpdate merges fields onto the existing document id. A missing
// document is a distinct failure, not a create.
func (c *Client) PartialUpdate(ctx context.Context, index, id string, fields map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]interface{}{"doc": fields})
	if err != nil {
		return fmt.Errorf("marshal partial update: %w", err)
	}

	res, err := c.es.Update(index, id, bytes.NewReader(payload), c.es.Update.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("update %s/%s: %s", index, id, res.String())
	}
	io.Copy(io.Discard, res.Body)
	return nil
}

// drain makes sure a response is fully consumed before reuse of the transport.
func drain(res *esapi.Response) {
	io.Copy(io.Discard, res.Body)
	res.Body.Close()
}
