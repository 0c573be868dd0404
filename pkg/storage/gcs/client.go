// Package gcs implements storage.Provider on the Google Cloud Storage JSON
// API.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/vidora/vidora-backend/pkg/config"
	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/storage"
)

const (
	defaultAPIBase = "https://storage.googleapis.com"
	pingTimeout    = 5 * time.Second
)

type Client struct {
	httpClient  *http.Client
	bucket      string
	apiBase     string
	publicBase  string
	tokenSource *tokenSource
	logg        *logger.Logger
}

var _ storage.Provider = (*Client)(nil)

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, timeout time.Duration, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	if logg == nil {
		logg = logger.Nop()
	}

	httpClient := &http.Client{Timeout: timeout}

	var ts *tokenSource
	var err error
	switch {
	case gcp.CredentialsJSON != "":
		ts, err = newServiceAccountTokenSource(httpClient, gcp.CredentialsJSON)
	case gcp.ApplicationCredentials != "":
		raw, readErr := os.ReadFile(gcp.ApplicationCredentials)
		if readErr != nil {
			return nil, fmt.Errorf("reading credentials file: %w", readErr)
		}
		ts, err = newServiceAccountTokenSource(httpClient, string(raw))
	default:
		ts = newMetadataTokenSource(httpClient)
	}
	if err != nil {
		return nil, err
	}

	client := &Client{
		httpClient:  httpClient,
		bucket:      cfg.BucketName,
		apiBase:     defaultAPIBase,
		publicBase:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		tokenSource: ts,
		logg:        logg,
	}
	if client.publicBase == "" {
		client.publicBase = defaultAPIBase
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}
	logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	return client, nil
}

func (c *Client) Name() string { return "gcs" }

// Put streams obj with a simple media upload and returns its public URL.
func (c *Client) Put(ctx context.Context, obj storage.Object) (string, error) {
	if obj.Key == "" {
		return "", errors.New("object key is required")
	}
	if obj.Body == nil {
		return "", errors.New("object body is required")
	}

	u := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		c.apiBase, url.PathEscape(c.bucket), url.QueryEscape(obj.Key))
	req, err := c.newRequest(ctx, http.MethodPost, u, obj.Body)
	if err != nil {
		return "", err
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if obj.Size > 0 {
		req.ContentLength = obj.Size
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gcs upload %s: %w", obj.Key, err)
	}
	defer c.closeBody(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError("gcs upload", resp)
	}
	return c.ObjectURL(obj.Key), nil
}

// Delete removes key, reporting storage.ErrObjectNotFound on a 404.
func (c *Client) Delete(ctx context.Context, key string) error {
	if key == "" {
		return storage.ErrObjectNotFound
	}
	u := fmt.Sprintf("%s/storage/v1/b/%s/o/%s", c.apiBase, url.PathEscape(c.bucket), url.PathEscape(key))
	req, err := c.newRequest(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gcs delete %s: %w", key, err)
	}
	defer c.closeBody(ctx, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return storage.ErrObjectNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return statusError("gcs delete", resp)
	}
	return nil
}

// Ping lists at most one object, which requires storage.objects.list.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if c.bucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/storage/v1/b/%s/o?maxResults=1", c.apiBase, url.PathEscape(c.bucket))
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer c.closeBody(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return statusError("gcs object check", resp)
	}
	return nil
}

// ObjectURL returns the public address of key.
func (c *Client) ObjectURL(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return c.publicBase + "/" + url.PathEscape(c.bucket) + "/" + strings.Join(parts, "/")
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs token: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (c *Client) closeBody(ctx context.Context, body io.Closer) {
	if err := body.Close(); err != nil {
		c.logg.Warn(ctx, "gcs: closing response body failed")
	}
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(b)); msg != "" {
		return fmt.Errorf("%s failed: %s: %s", op, resp.Status, msg)
	}
	return fmt.Errorf("%s failed: %s", op, resp.Status)
}
