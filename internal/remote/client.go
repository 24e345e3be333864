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
	"time"

	"github.com/zerotrust-ops/config-management/internal/catalog"
)

const listPageSize = 500

// Client talks to the remote configuration API for one tenant session. It
// implements Directory by building operations from the product catalog, so a
// type without a create capability simply has no Create closure.
type Client struct {
	httpClient *http.Client
	baseURL    string
	product    string
	tokens     *TokenManager
	limiter    Limiter
}

type ClientConfig struct {
	BaseURL      string
	Product      string
	TokenManager *TokenManager
	Limiter      Limiter
	Timeout      time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NoopLimiter{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		product:    cfg.Product,
		tokens:     cfg.TokenManager,
		limiter:    limiter,
	}
}

// Ops implements Directory.
func (c *Client) Ops(resourceType string) (ResourceOps, bool) {
	def, ok := catalog.Lookup(c.product, resourceType)
	if !ok {
		return ResourceOps{}, false
	}

	ops := ResourceOps{}
	if def.Singleton {
		ops.List = func(ctx context.Context) ([]map[string]interface{}, error) {
			return c.listSingleton(ctx, def)
		}
		if def.CanUpdate {
			ops.Update = func(ctx context.Context, id string, payload map[string]interface{}) (map[string]interface{}, error) {
				return c.putObject(ctx, def.Endpoint, payload)
			}
		}
		return ops, true
	}

	ops.List = func(ctx context.Context) ([]map[string]interface{}, error) {
		return c.listAll(ctx, def)
	}
	if def.CanCreate {
		ops.Create = func(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
			path, err := writePath(def, payload, "")
			if err != nil {
				return nil, err
			}
			return c.postObject(ctx, path, payload)
		}
	}
	if def.CanUpdate {
		ops.Update = func(ctx context.Context, id string, payload map[string]interface{}) (map[string]interface{}, error) {
			path, err := writePath(def, payload, id)
			if err != nil {
				return nil, err
			}
			return c.putObject(ctx, path, payload)
		}
	}
	if def.CanDelete {
		ops.Delete = func(ctx context.Context, id string) error {
			_, err := c.do(ctx, http.MethodDelete, def.Endpoint+"/"+url.PathEscape(id), nil, nil)
			return err
		}
	}
	return ops, true
}

// listAll pages through a list endpoint until a short page comes back.
func (c *Client) listAll(ctx context.Context, def catalog.ResourceDef) ([]map[string]interface{}, error) {
	var all []map[string]interface{}
	for page := 1; ; page++ {
		query := url.Values{}
		for k, v := range def.ListArgs {
			query.Set(k, v)
		}
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", strconv.Itoa(listPageSize))

		body, err := c.do(ctx, http.MethodGet, def.Endpoint, query, nil)
		if err != nil {
			return nil, err
		}
		var items []map[string]interface{}
		if err := json.Unmarshal(body, &items); err != nil {
			// Some endpoints return a bare object when only one entry exists.
			var single map[string]interface{}
			if err2 := json.Unmarshal(body, &single); err2 != nil {
				return nil, fmt.Errorf("failed to decode %s list response: %w", def.Type, err)
			}
			return append(all, single), nil
		}
		all = append(all, items...)
		if len(items) < listPageSize {
			return all, nil
		}
	}
}

func (c *Client) listSingleton(ctx context.Context, def catalog.ResourceDef) ([]map[string]interface{}, error) {
	body, err := c.do(ctx, http.MethodGet, def.Endpoint, nil, nil)
	if err != nil {
		return nil, err
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", def.Type, err)
	}
	return []map[string]interface{}{obj}, nil
}

// writePath builds the write URL for one definition. Types with a
// SubtypeField key their write paths by the subtype value in the payload.
func writePath(def catalog.ResourceDef, payload map[string]interface{}, id string) (string, error) {
	path := def.Endpoint
	if def.SubtypeField != "" {
		subtype, _ := payload[def.SubtypeField].(string)
		if subtype == "" {
			return "", &APIError{Kind: KindOther, Message: fmt.Sprintf("%s payload has no %q field", def.Type, def.SubtypeField)}
		}
		path += "/" + url.PathEscape(subtype)
	}
	if id != "" {
		path += "/" + url.PathEscape(id)
	}
	return path, nil
}

func (c *Client) postObject(ctx context.Context, path string, payload map[string]interface{}) (map[string]interface{}, error) {
	return c.writeObject(ctx, http.MethodPost, path, payload)
}

func (c *Client) putObject(ctx context.Context, path string, payload map[string]interface{}) (map[string]interface{}, error) {
	return c.writeObject(ctx, http.MethodPut, path, payload)
}

func (c *Client) writeObject(ctx context.Context, method, path string, payload map[string]interface{}) (map[string]interface{}, error) {
	body, err := c.do(ctx, method, path, nil, payload)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]interface{}{}, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode write response: %w", err)
	}
	return obj, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, &APIError{Kind: KindTransient, Message: fmt.Sprintf("reading response: %v", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		c.tokens.Invalidate()
	}
	return nil, NewAPIError(resp.StatusCode, excerpt(body))
}
