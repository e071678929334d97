// Package azsearch is an HTTP client for the Azure-AI-Search-compatible
// index REST API. It returns raw field-maps; the repository layer converts
// them into typed chunks.
package azsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/learnstack/coursechat/internal/domain"
)

const defaultAPIVersion = "2024-07-01"

// Config holds the search service connection settings.
type Config struct {
	Endpoint   string // e.g. https://<service>.search.windows.net
	APIKey     string
	Index      string
	APIVersion string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client calls the index search endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	index      string
	apiVersion string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a search index client.
func NewClient(cfg *Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		index:      cfg.Index,
		apiVersion: apiVersion,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// VectorQuery is a k-NN sub-query against the index vector field.
type VectorQuery struct {
	Vector []float32
	K      int
	Fields string
}

// Query is one search request. Zero-valued optional members are omitted
// from the wire request entirely.
type Query struct {
	Search string
	Filter string
	Select []string
	Top    int
	Count  bool

	Vector *VectorQuery

	// Semantic turns on backend-native re-ranking with the given
	// configuration name and query locale.
	Semantic       bool
	SemanticConfig string
	QueryLanguage  string
}

// Response holds the raw search hits plus the total count when requested.
type Response struct {
	Count     int
	Documents []map[string]any
}

type wireVectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
	Fields string    `json:"fields"`
}

type wireRequest struct {
	Search         string            `json:"search"`
	Filter         string            `json:"filter,omitempty"`
	Select         string            `json:"select,omitempty"`
	Top            int               `json:"top"`
	Count          bool              `json:"count,omitempty"`
	VectorQueries  []wireVectorQuery `json:"vectorQueries,omitempty"`
	QueryType      string            `json:"queryType,omitempty"`
	SemanticConfig string            `json:"semanticConfiguration,omitempty"`
	QueryLanguage  string            `json:"queryLanguage,omitempty"`
}

type wireResponse struct {
	Count *int             `json:"@odata.count"`
	Value []map[string]any `json:"value"`
}

// Search executes one query against the index. All failures are wrapped
// with domain.ErrSearchBackendError.
func (c *Client) Search(ctx context.Context, q *Query) (*Response, error) {
	req := wireRequest{
		Search: q.Search,
		Filter: q.Filter,
		Select: strings.Join(q.Select, ","),
		Top:    q.Top,
		Count:  q.Count,
	}
	if q.Vector != nil {
		req.VectorQueries = []wireVectorQuery{{
			Kind:   "vector",
			Vector: q.Vector.Vector,
			K:      q.Vector.K,
			Fields: q.Vector.Fields,
		}}
	}
	if q.Semantic {
		req.QueryType = "semantic"
		req.SemanticConfig = q.SemanticConfig
		req.QueryLanguage = q.QueryLanguage
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, c.index, c.apiVersion)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	c.logger.Debug("search index request",
		zap.String("index", c.index),
		zap.String("filter", q.Filter),
		zap.Int("top", q.Top),
		zap.Bool("semantic", q.Semantic),
		zap.Bool("vector", q.Vector != nil),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w: %w", err, domain.ErrSearchBackendError)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w: %w", err, domain.ErrSearchBackendError)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search API status %d: %s: %w",
			resp.StatusCode, errorDetail(respBody), domain.ErrSearchBackendError)
	}

	var wire wireResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal search response: %w: %w", err, domain.ErrSearchBackendError)
	}

	out := &Response{Documents: wire.Value}
	if wire.Count != nil {
		out.Count = *wire.Count
	}
	return out, nil
}

// errorDetail extracts the error message from a search API error body.
func errorDetail(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	const maxDetail = 512
	if len(body) > maxDetail {
		body = body[:maxDetail]
	}
	return string(body)
}
