// Package notion is a thin HTTP client for the Notion API, covering the
// endpoints the aggregation and pruning jobs need: search, database query,
// block children, page create/update, and block delete.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the public Notion API endpoint.
	DefaultBaseURL = "https://api.notion.com/v1"

	// DefaultVersion is the API version sent with every request.
	// https://developers.notion.com/reference/versioning
	DefaultVersion = "2022-06-28"

	defaultTimeout   = 30 * time.Second
	maxRetries       = 3
	initialBackoff   = time.Second
	maxResponseBytes = 10 << 20 // cap reads of API responses

	// listPageSize is the page size used when draining paginated endpoints.
	// 100 is the API maximum.
	listPageSize = 100

	// maxChildrenPerAppend is the API limit on blocks per append request.
	maxChildrenPerAppend = 100
)

var tracer = otel.Tracer("github.com/flemzord/scrumroll/internal/notion")

// Client is a thin HTTP wrapper around the Notion API.
type Client struct {
	token   string
	baseURL string
	version string
	http    *http.Client
}

// Options configures optional Client behavior. The zero value selects the
// public API endpoint, the pinned API version, and a default HTTP client.
type Options struct {
	BaseURL    string
	Version    string
	HTTPClient *http.Client
}

// NewClient creates a Notion API client authenticating with the given
// integration token.
func NewClient(token string, opts Options) *Client {
	c := &Client{
		token:   token,
		baseURL: opts.BaseURL,
		version: opts.Version,
		http:    opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.version == "" {
		c.version = DefaultVersion
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	return c
}

// do sends a JSON request and decodes the response. 429 responses are
// retried honoring the Retry-After header (max 3 attempts, exponential
// backoff when the header is missing). The op names the span; the token
// never appears in errors.
func do[T any](ctx context.Context, c *Client, op, method, path string, payload any) (*T, error) {
	ctx, span := tracer.Start(ctx, "notion."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("http.request.method", method))

	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("notion: marshal %s request: %w", op, err)
		}
	}

	backoff := initialBackoff

	for attempt := range maxRetries {
		var body io.Reader
		if data != nil {
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("notion: create %s request: %w", op, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", c.version)
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			span.SetStatus(codes.Error, "transport failure")
			return nil, fmt.Errorf("notion: %s request failed: %w", op, err)
		}

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		if err != nil {
			span.SetStatus(codes.Error, "read failure")
			return nil, fmt.Errorf("notion: read %s response: %w", op, err)
		}

		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

		// Rate limited: wait out Retry-After and try again.
		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries-1 {
			if wait := retryAfter(resp.Header); wait > 0 {
				backoff = wait
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{Status: resp.StatusCode}
			if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Code == "" {
				apiErr.Code = "unknown"
				apiErr.Message = http.StatusText(resp.StatusCode)
			}
			apiErr.Status = resp.StatusCode
			span.SetStatus(codes.Error, apiErr.Code)
			return nil, apiErr
		}

		var result T
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, fmt.Errorf("notion: decode %s response: %w", op, err)
		}
		return &result, nil
	}

	// Unreachable under normal flow, but satisfy the compiler.
	return nil, fmt.Errorf("notion: %s: max retries exceeded", op)
}

// retryAfter parses the Retry-After header as seconds. Zero means absent
// or unparseable.
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// Search queries the workspace search endpoint.
// https://developers.notion.com/reference/post-search
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	return do[SearchResponse](ctx, c, "search", http.MethodPost, "/search", req)
}

// ResolveDatabase resolves a database reference — an ID or an exact title —
// to a normalized database ID. Title resolution fails when the title matches
// zero or more than one database.
func (c *Client) ResolveDatabase(ctx context.Context, ref string) (string, error) {
	if IsID(ref) {
		return NormalizeID(ref)
	}

	var matches []Database
	cursor := ""
	for {
		resp, err := c.Search(ctx, SearchRequest{
			Query:       ref,
			Filter:      &SearchFilter{Property: "object", Value: "database"},
			StartCursor: cursor,
			PageSize:    listPageSize,
		})
		if err != nil {
			return "", err
		}
		for _, raw := range resp.Results {
			var db Database
			if err := json.Unmarshal(raw, &db); err != nil {
				return "", fmt.Errorf("notion: decode search result: %w", err)
			}
			if db.PlainTitle() == ref {
				matches = append(matches, db)
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrDatabaseNotFound, ref)
	case 1:
		return matches[0].ID, nil
	default:
		return "", fmt.Errorf("%w: %q matches %d databases", ErrDatabaseAmbiguous, ref, len(matches))
	}
}

// QueryDatabase fetches one result page of a database query.
// https://developers.notion.com/reference/post-database-query
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, req QueryRequest) (*PageList, error) {
	return do[PageList](ctx, c, "query_database", http.MethodPost, "/databases/"+databaseID+"/query", req)
}

// QueryDatabaseAll drains a database query, following the cursor chain to
// exhaustion.
func (c *Client) QueryDatabaseAll(ctx context.Context, databaseID string, req QueryRequest) ([]Page, error) {
	var pages []Page
	req.PageSize = listPageSize
	for {
		list, err := c.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, err
		}
		pages = append(pages, list.Results...)
		if !list.HasMore || list.NextCursor == "" {
			return pages, nil
		}
		req.StartCursor = list.NextCursor
	}
}

// BlockChildren fetches one result page of a block's direct children.
// https://developers.notion.com/reference/get-block-children
func (c *Client) BlockChildren(ctx context.Context, blockID, startCursor string) (*BlockList, error) {
	q := url.Values{}
	q.Set("page_size", strconv.Itoa(listPageSize))
	if startCursor != "" {
		q.Set("start_cursor", startCursor)
	}
	path := "/blocks/" + blockID + "/children?" + q.Encode()
	return do[BlockList](ctx, c, "block_children", http.MethodGet, path, nil)
}

// BlockChildrenAll drains a block's direct children.
func (c *Client) BlockChildrenAll(ctx context.Context, blockID string) ([]Block, error) {
	var blocks []Block
	cursor := ""
	for {
		list, err := c.BlockChildren(ctx, blockID, cursor)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, list.Results...)
		if !list.HasMore || list.NextCursor == "" {
			return blocks, nil
		}
		cursor = list.NextCursor
	}
}

// ChildrenTree fetches the full block tree under id. Every block is stripped
// for re-posting and child blocks are nested inside the type payload, which
// is the shape the create and append endpoints expect.
func (c *Client) ChildrenTree(ctx context.Context, id string) ([]Block, error) {
	blocks, err := c.BlockChildrenAll(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]Block, 0, len(blocks))
	for _, bl := range blocks {
		stripped := bl.Stripped()
		if bl.HasChildren {
			kids, err := c.ChildrenTree(ctx, bl.ID)
			if err != nil {
				return nil, err
			}
			stripped, err = stripped.WithChildren(kids)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, stripped)
	}
	return out, nil
}

// CreatePage creates a page.
// https://developers.notion.com/reference/post-page
func (c *Client) CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error) {
	return do[Page](ctx, c, "create_page", http.MethodPost, "/pages", req)
}

// UpdatePage updates page properties and/or archive state.
// https://developers.notion.com/reference/patch-page
func (c *Client) UpdatePage(ctx context.Context, pageID string, req UpdatePageRequest) (*Page, error) {
	return do[Page](ctx, c, "update_page", http.MethodPatch, "/pages/"+pageID, req)
}

// AppendChildren appends blocks under a parent block, chunking to the API
// limit per request.
// https://developers.notion.com/reference/patch-block-children
func (c *Client) AppendChildren(ctx context.Context, blockID string, children []Block) error {
	for len(children) > 0 {
		n := min(len(children), maxChildrenPerAppend)
		_, err := do[BlockList](ctx, c, "append_children", http.MethodPatch,
			"/blocks/"+blockID+"/children", appendChildrenRequest{Children: children[:n]})
		if err != nil {
			return err
		}
		children = children[n:]
	}
	return nil
}

// DeleteBlock archives a block. Pages are blocks, so this is also how pages
// are deleted; Notion keeps them restorable in the trash.
// https://developers.notion.com/reference/delete-a-block
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	_, err := do[Block](ctx, c, "delete_block", http.MethodDelete, "/blocks/"+blockID, nil)
	return err
}
