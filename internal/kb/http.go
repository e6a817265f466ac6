package kb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPStore talks to an external knowledge-base service over HTTP. Resources
// map onto REST collections: POST /<type>s creates, PUT /<type>s/{key}
// replaces, DELETE /<type>s/{key} removes.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore creates a client for the knowledge-base service at baseURL.
func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Add creates a resource under its natural key.
func (s *HTTPStore) Add(ctx context.Context, resource, key string, data map[string]any) error {
	body := map[string]any{"key": key, "data": data}
	return s.do(ctx, http.MethodPost, s.collectionPath(resource), body)
}

// Update applies a partial update keyed by identifier.
func (s *HTTPStore) Update(ctx context.Context, resource, key string, data map[string]any) error {
	return s.do(ctx, http.MethodPut, s.resourcePath(resource, key), map[string]any{"data": data})
}

// Delete removes a resource by key. A 404 from the service is treated as
// success: the resource is already gone.
func (s *HTTPStore) Delete(ctx context.Context, resource, key string) error {
	err := s.do(ctx, http.MethodDelete, s.resourcePath(resource, key), nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Ping reports whether the collaborator answers its health endpoint.
func (s *HTTPStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (s *HTTPStore) collectionPath(resource string) string {
	return s.baseURL + "/" + resource + "s"
}

func (s *HTTPStore) resourcePath(resource, key string) string {
	return s.collectionPath(resource) + "/" + url.PathEscape(key)
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("knowledge base rejected %s %s: status %d", method, path, resp.StatusCode)
	}
}
