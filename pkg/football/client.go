package football

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Default endpoints of the stats store's query and scan lambdas.
const (
	DefaultQueryURL = "https://uy7jwxmzmldtefjhvfqigycigq0yrwpj.lambda-url.eu-north-1.on.aws/"
	DefaultScanURL  = "https://7tppg6deokrojorjp77aj7bwfa0swntb.lambda-url.eu-north-1.on.aws/"
)

// Item is one row returned by the stats store.
type Item map[string]any

// QueryRequest is an exact-match index lookup against one table.
type QueryRequest struct {
	TableName  string `json:"table_name"`
	GSI        string `json:"gsi,omitempty"`
	IndexName  string `json:"index_name"`
	Operation  string `json:"operation"`
	QueryValue any    `json:"query_value"`
}

// ScanFilter is a filter tree for scan requests: either an atomic
// attribute comparison or a logical combination of subfilters.
type ScanFilter struct {
	Type       string       `json:"type"`
	Operation  string       `json:"operation,omitempty"`
	Attribute  string       `json:"attribute,omitempty"`
	Value      any          `json:"value,omitempty"`
	Subfilters []ScanFilter `json:"subfilters,omitempty"`
}

// ScanRequest is a filtered scan against one table.
type ScanRequest struct {
	TableName string      `json:"table_name"`
	IndexName string      `json:"index_name,omitempty"`
	Filter    *ScanFilter `json:"filter,omitempty"`
}

// AtomicFilter builds a single attribute comparison.
func AtomicFilter(attribute, operation string, value any) ScanFilter {
	return ScanFilter{Type: "atomic", Attribute: attribute, Operation: operation, Value: value}
}

// AndFilter combines subfilters with a logical and.
func AndFilter(subfilters ...ScanFilter) ScanFilter {
	return ScanFilter{Type: "logical", Operation: "and", Subfilters: subfilters}
}

// OrFilter combines subfilters with a logical or.
func OrFilter(subfilters ...ScanFilter) ScanFilter {
	return ScanFilter{Type: "logical", Operation: "or", Subfilters: subfilters}
}

// Client talks to the stats store's HTTP lambdas.
type Client struct {
	queryURL string
	scanURL  string
	http     *http.Client
}

type ClientOption func(*Client)

func WithQueryURL(url string) ClientOption {
	return func(c *Client) {
		c.queryURL = url
	}
}

func WithScanURL(url string) ClientOption {
	return func(c *Client) {
		c.scanURL = url
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.http = httpClient
	}
}

func NewClient(options ...ClientOption) *Client {
	c := &Client{
		queryURL: DefaultQueryURL,
		scanURL:  DefaultScanURL,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) post(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "post to stats store")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("stats store returned %d: %s", resp.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// Query performs an exact-match index lookup and returns the items.
func (c *Client) Query(ctx context.Context, req QueryRequest) ([]Item, error) {
	var out struct {
		Items []Item `json:"Items"`
	}
	if err := c.post(ctx, c.queryURL, req, &out); err != nil {
		return nil, err
	}
	log.Debug().
		Str("table", req.TableName).
		Str("index", req.IndexName).
		Int("num_items", len(out.Items)).
		Msg("stats store query")
	return out.Items, nil
}

// Scan performs a filtered scan; the scan lambda returns a bare item list.
func (c *Client) Scan(ctx context.Context, req ScanRequest) ([]Item, error) {
	var out []Item
	if err := c.post(ctx, c.scanURL, req, &out); err != nil {
		return nil, err
	}
	log.Debug().
		Str("table", req.TableName).
		Int("num_items", len(out)).
		Msg("stats store scan")
	return out, nil
}

// ItemString reads a string attribute off an item.
func ItemString(item Item, key string) string {
	switch v := item[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ItemInt reads a numeric attribute off an item. The store serializes
// numbers as JSON numbers or numeric strings depending on the table.
func ItemInt(item Item, key string) (int, bool) {
	switch v := item[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
