// Package objstore talks to the HTTP object-storage gateway that holds
// proposals, invoices, creatives, and reports. Keys map straight onto URL
// paths under the configured base URL.
package objstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agencyflow/agencyflow/internal/core/ports"
)

type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.FileStore = (*Client)(nil)

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) keyURL(key string) string {
	return c.baseURL + "/" + url.PathEscape(key)
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.keyURL(key), nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("check object %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("check object %s: unexpected status %d", key, resp.StatusCode)
	}
}

func (c *Client) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.keyURL(key), r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("store object %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("store object %s: unexpected status %d", key, resp.StatusCode)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.keyURL(key), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete object %s: unexpected status %d", key, resp.StatusCode)
	}
	return nil
}
