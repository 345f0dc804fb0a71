package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cesargomez89/toonshelf/internal/domain"
	"github.com/cesargomez89/toonshelf/internal/httpclient"
	"github.com/cesargomez89/toonshelf/internal/logger"
)

// HTTPClient talks to the remote catalog's JSON API:
//
//	GET /v1/{kind}?cursor=...   -> {"rows": [...], "next_cursor": "..."}
//	GET /v1/version             -> {"version": 12, "cache_epoch": 3}
//	GET /v1/texts/{key}         -> {"key": "eula", "body": "..."}
type HTTPClient struct {
	BaseURL string
	client  *httpclient.Client
	logger  *logger.Logger
}

func NewHTTPClient(baseURL string, client *httpclient.Client, log *logger.Logger) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  log.WithComponent("catalog"),
	}
}

func (c *HTTPClient) FetchEntities(ctx context.Context, kind domain.EntityKind, cursor string) (*Page, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntityKind, kind)
	}
	u := fmt.Sprintf("%s/v1/%s", c.BaseURL, kind)
	if cursor != "" {
		u += "?cursor=" + url.QueryEscape(cursor)
	}

	var resp APIPage
	if err := c.get(ctx, u, &resp); err != nil {
		return nil, err
	}
	batch, err := decodeRows(kind, resp.Rows)
	if err != nil {
		return nil, err
	}
	return &Page{Batch: *batch, NextCursor: resp.NextCursor}, nil
}

func (c *HTTPClient) FetchVersion(ctx context.Context) (*VersionInfo, error) {
	var resp APIVersion
	if err := c.get(ctx, c.BaseURL+"/v1/version", &resp); err != nil {
		return nil, err
	}
	return resp.ToDomain(), nil
}

func (c *HTTPClient) FetchText(ctx context.Context, key string) (string, error) {
	var resp APIText
	if err := c.get(ctx, c.BaseURL+"/v1/texts/"+url.PathEscape(key), &resp); err != nil {
		return "", err
	}
	return resp.Body, nil
}

func (c *HTTPClient) get(ctx context.Context, u string, target interface{}) error {
	c.logger.Debug("API request", "url", u)

	resp, err := c.client.Get(ctx, u)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, u)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed: %s", resp.Status)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	return decoder.Decode(target)
}

var _ Client = (*HTTPClient)(nil)
