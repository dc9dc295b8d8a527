package platform

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hargabyte/capreport/internal/logging"
)

// Client is the REST implementation of Connection. All methods are
// blocking request/response; retries with exponential backoff cover
// transient network failures and 5xx responses, while 4xx responses
// surface immediately as StatusError.
type Client struct {
	baseURL    string
	username   string
	password   string
	maxRetries uint64
	httpc      *http.Client
}

// ClientConfig configures a platform Client.
type ClientConfig struct {
	Host       string
	Username   string
	Password   string
	Insecure   bool
	Timeout    time.Duration
	MaxRetries int
}

// NewClient builds a Client for the given platform host.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("platform host is required")
	}

	base := cfg.Host
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	base = strings.TrimRight(base, "/") + "/api/v3"

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	transport := http.DefaultTransport
	if cfg.Insecure {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		baseURL:    base,
		username:   cfg.Username,
		password:   cfg.Password,
		maxRetries: uint64(retries),
		httpc:      &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

// do issues one request with retry and decodes the JSON response body
// into out. The returned cursor is the pagination cursor header, empty
// on the final page.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) (string, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return "", fmt.Errorf("encode request body: %w", err)
		}
	}

	var cursor string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.username != "" {
			req.SetBasicAuth(c.username, c.password)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			serr := &StatusError{Code: resp.StatusCode, URL: u, Body: trimBody(data)}
			if serr.IsClientError() {
				return backoff.Permanent(serr)
			}
			return serr
		}

		cursor = resp.Header.Get("X-Next-Cursor")
		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode response from %s: %w", u, err))
			}
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		logging.Debug("retrying platform request", "url", u, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return "", err
	}
	return cursor, nil
}

func trimBody(data []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

func (c *Client) searchQuery(req SearchRequest) (string, url.Values) {
	path := "/search"
	if req.UUID != "" {
		path += "/" + url.PathEscape(req.UUID)
	}

	q := url.Values{}
	if req.Query != "" {
		q.Set("q", req.Query)
	}
	if len(req.Types) > 0 {
		q.Set("types", strings.Join(req.Types, ","))
	}
	if len(req.Scopes) > 0 {
		q.Set("scopes", strings.Join(req.Scopes, ","))
	}
	return path, q
}

// Search returns all entities matching the request in one call.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Record, error) {
	path, q := c.searchQuery(req)

	if req.UUID != "" {
		// single entity lookup returns an object, not a list
		var rec Record
		if _, err := c.do(ctx, http.MethodGet, path, q, nil, &rec); err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	}

	var recs []Record
	if _, err := c.do(ctx, http.MethodGet, path, q, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// SearchPaged returns entities matching the request page by page.
func (c *Client) SearchPaged(ctx context.Context, req SearchRequest) Pager {
	path, q := c.searchQuery(req)
	return &restPager{client: c, method: http.MethodGet, path: path, query: q}
}

// GetEntityStats retrieves stat observations for a scope.
func (c *Client) GetEntityStats(ctx context.Context, req StatsRequest) Pager {
	stats := make([]map[string]any, 0, len(req.Stats))
	for _, name := range req.Stats {
		stats = append(stats, map[string]any{"name": name})
	}

	body := map[string]any{
		"scopes": req.Scope,
		"period": map[string]any{"statistics": stats},
	}
	if req.RelatedType != "" {
		body["relatedType"] = req.RelatedType
	}

	return &restPager{client: c, method: http.MethodPost, path: "/stats", body: body}
}

// GetTemplateByName returns the template whose display name matches,
// or nil when none does.
func (c *Client) GetTemplateByName(ctx context.Context, name string) (Record, error) {
	pager := &restPager{client: c, method: http.MethodGet, path: "/templates"}

	templates, err := Collect(ctx, pager)
	if err != nil {
		return nil, err
	}
	for _, tpl := range templates {
		if tpl["displayName"] == name {
			return tpl, nil
		}
	}
	return nil, nil
}

func (c *Client) actionsPager(prefix string, req ActionsRequest) Pager {
	q := url.Values{}
	for _, f := range req.Filter {
		q.Add("filter", f)
	}

	method := http.MethodGet
	var body any
	if req.Body != nil {
		method = http.MethodPost
		body = req.Body
	}

	path := prefix + "/actions"
	if req.UUID != "" {
		path = prefix + "/" + url.PathEscape(req.UUID) + "/actions"
	}

	return &restPager{client: c, method: method, path: path, query: q, body: body}
}

// GetActions retrieves market-wide actions.
func (c *Client) GetActions(ctx context.Context, req ActionsRequest) Pager {
	if req.UUID == "" {
		req.UUID = "Market"
	}
	return c.actionsPager("/markets", req)
}

// GetEntityActions retrieves actions for a single entity.
func (c *Client) GetEntityActions(ctx context.Context, req ActionsRequest) Pager {
	return c.actionsPager("/entities", req)
}

// GetGroupActions retrieves actions for a group.
func (c *Client) GetGroupActions(ctx context.Context, req ActionsRequest) Pager {
	return c.actionsPager("/groups", req)
}

// GetTargetActions retrieves actions for a target's entities.
func (c *Client) GetTargetActions(ctx context.Context, req ActionsRequest) Pager {
	return c.actionsPager("/targets", req)
}

// GetTargets retrieves configured targets.
func (c *Client) GetTargets(ctx context.Context, filter []string) Pager {
	q := url.Values{}
	for _, f := range filter {
		q.Add("filter", f)
	}
	return &restPager{client: c, method: http.MethodGet, path: "/targets", query: q}
}

// GetMarket probes for a market with the given uuid.
func (c *Client) GetMarket(ctx context.Context, uuid string) (Record, error) {
	return c.getOne(ctx, "/markets/"+url.PathEscape(uuid))
}

// GetEntity probes for an entity with the given uuid.
func (c *Client) GetEntity(ctx context.Context, uuid string) (Record, error) {
	return c.getOne(ctx, "/entities/"+url.PathEscape(uuid))
}

// GetGroup probes for a group with the given uuid.
func (c *Client) GetGroup(ctx context.Context, uuid string) (Record, error) {
	return c.getOne(ctx, "/groups/"+url.PathEscape(uuid))
}

// GetTarget probes for a target with the given uuid.
func (c *Client) GetTarget(ctx context.Context, uuid string) (Record, error) {
	return c.getOne(ctx, "/targets/"+url.PathEscape(uuid))
}

func (c *Client) getOne(ctx context.Context, path string) (Record, error) {
	var rec Record
	if _, err := c.do(ctx, http.MethodGet, path, nil, nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}
