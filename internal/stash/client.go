package stash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"funbatch/internal/services"
)

// HTTPDoer describes the HTTP client used by the Stash library client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Library defines the scene lookups the batch coordinator needs.
type Library interface {
	FindScene(ctx context.Context, id int) (Scene, error)
	AllScenes(ctx context.Context) ([]Scene, error)
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client (primarily for tests).
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// WithAPIKey sets the ApiKey header credential.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithSessionCookie sets the session cookie credential used when funbatch runs
// inside the Stash plugin sandbox.
func WithSessionCookie(name, value string) Option {
	return func(c *Client) {
		c.cookieName = strings.TrimSpace(name)
		c.cookieValue = strings.TrimSpace(value)
	}
}

// WithPageSize overrides the findScenes page size.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// Client talks to the Stash GraphQL endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	cookieName  string
	cookieValue string
	pageSize    int
	client      HTTPDoer
}

// New constructs a Stash client for the given server base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, services.Wrap(services.ErrConfiguration, "stash", "new client", "server URL required", nil)
	}
	client := &Client{
		baseURL:  trimmed,
		pageSize: 200,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

const findScenesQuery = `query FindScenes($filter: FindFilterType, $scene_ids: [Int!]) {
  findScenes(filter: $filter, scene_ids: $scene_ids) {
    count
    scenes { id path }
  }
}`

type findScenesPayload struct {
	FindScenes struct {
		Count  int     `json:"count"`
		Scenes []Scene `json:"scenes"`
	} `json:"findScenes"`
}

// FindScene resolves a single scene by id. A missing id is a not-found error,
// which callers treat as fatal for single-scope runs.
func (c *Client) FindScene(ctx context.Context, id int) (Scene, error) {
	variables := map[string]any{
		"filter":    map[string]any{"per_page": 1, "page": 1},
		"scene_ids": []int{id},
	}
	var payload findScenesPayload
	if err := c.execute(ctx, findScenesQuery, variables, &payload); err != nil {
		return Scene{}, err
	}
	if len(payload.FindScenes.Scenes) == 0 {
		return Scene{}, services.Wrap(services.ErrNotFound, "stash", "find scene", strconv.Itoa(id), nil)
	}
	return payload.FindScenes.Scenes[0], nil
}

// AllScenes enumerates every scene in the library, paging through findScenes.
// Order follows the server's native enumeration order.
func (c *Client) AllScenes(ctx context.Context) ([]Scene, error) {
	var all []Scene
	total := -1
	for page := 1; ; page++ {
		variables := map[string]any{
			"filter": map[string]any{"per_page": c.pageSize, "page": page},
		}
		var payload findScenesPayload
		if err := c.execute(ctx, findScenesQuery, variables, &payload); err != nil {
			return nil, err
		}
		if total < 0 {
			total = payload.FindScenes.Count
		}
		if len(payload.FindScenes.Scenes) == 0 {
			break
		}
		all = append(all, payload.FindScenes.Scenes...)
		if total >= 0 && len(all) >= total {
			break
		}
	}
	return all, nil
}

type graphQLError struct {
	Message string `json:"message"`
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("ApiKey", c.apiKey)
	}
	if c.cookieName != "" && c.cookieValue != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: c.cookieValue})
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "stash", "graphql request", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternalTool, "stash", "graphql request",
			fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read graphql response: %w", err)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return services.Wrap(services.ErrExternalTool, "stash", "graphql query", envelope.Errors[0].Message, nil)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode graphql data: %w", err)
		}
	}
	return nil
}

var _ Library = (*Client)(nil)
