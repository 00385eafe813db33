// ABOUTME: HTTP client for a hosted record API
// ABOUTME: Implements recordstore.Store with bearer auth and per-request ULIDs

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/dealdeck/recordstore"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	HeaderRequestID = "X-Request-ID"

	defaultTimeout = 30 * time.Second
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the transport. Auth is the caller's job when this is used.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for baseURL (for example https://crm.example.com/api/v1).
// A nil token source sends unauthenticated requests.
func New(baseURL string, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid record api url %q", baseURL)
	}

	c := &Client{
		baseURL: u.String(),
		log:     zap.NewNop(),
	}
	if ts != nil {
		c.httpClient = oauth2.NewClient(context.Background(), ts)
		c.httpClient.Timeout = defaultTimeout
	} else {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// StaticToken wraps a fixed API token as a token source.
func StaticToken(token string) oauth2.TokenSource {
	if token == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := ulid.Make().String()
	req.Header.Set(HeaderRequestID, reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to reach record api: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("record api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	return resp.StatusCode, data, nil
}

func (c *Client) call(ctx context.Context, method, path string, body any) (*envelope, error) {
	status, data, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(status, data)
}

func tablePath(table string) (string, error) {
	if !recordstore.IsKnownTable(table) {
		return "", fmt.Errorf("%w: %s", recordstore.ErrUnknownTable, table)
	}
	return "/records/" + url.PathEscape(table), nil
}

func (c *Client) FetchRecords(ctx context.Context, table string, q recordstore.Query) ([]recordstore.Record, error) {
	path, err := tablePath(table)
	if err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	env, err := c.call(ctx, http.MethodPost, path+"/fetch", q)
	if err != nil {
		return nil, err
	}
	return env.records()
}

func (c *Client) GetRecordByID(ctx context.Context, table string, id int64, q recordstore.Query) (recordstore.Record, error) {
	path, err := tablePath(table)
	if err != nil {
		return nil, err
	}
	path += "/" + strconv.FormatInt(id, 10)
	if len(q.Fields) > 0 {
		path += "?fields=" + url.QueryEscape(strings.Join(q.Fields, ","))
	}
	env, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return env.record()
}

func (c *Client) CreateRecords(ctx context.Context, table string, records []recordstore.Record) (recordstore.BatchResult, error) {
	return c.write(ctx, http.MethodPost, table, recordsBody{Records: records}, len(records), true)
}

func (c *Client) UpdateRecords(ctx context.Context, table string, records []recordstore.Record) (recordstore.BatchResult, error) {
	return c.write(ctx, http.MethodPut, table, recordsBody{Records: records}, len(records), true)
}

func (c *Client) DeleteRecords(ctx context.Context, table string, ids []int64) (recordstore.BatchResult, error) {
	return c.write(ctx, http.MethodDelete, table, idsBody{RecordIDs: ids}, len(ids), false)
}

func (c *Client) write(ctx context.Context, method, table string, body any, n int, wantData bool) (recordstore.BatchResult, error) {
	path, err := tablePath(table)
	if err != nil {
		return recordstore.BatchResult{}, err
	}
	env, err := c.call(ctx, method, path, body)
	if err != nil {
		return recordstore.BatchResult{}, err
	}
	return env.batch(n, wantData)
}
