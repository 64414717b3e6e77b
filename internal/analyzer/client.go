package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/clipbook/clipbook/internal/domain"
	"github.com/clipbook/clipbook/internal/utils"
)

// httpClient speaks the analysis service's JSON protocol. Timeouts are
// the callers' responsibility via context.
type httpClient struct {
	baseURL string
	http    *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

type statusInfo struct {
	Available bool   `json:"available"`
	Model     string `json:"model"`
	Processor string `json:"processor"`
	Status    string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type explainResponse struct {
	Explanation string `json:"explanation"`
}

type suggestionsResponse struct {
	Suggestions string `json:"suggestions"`
}

type relatedResponse struct {
	Queries []string `json:"queries"`
}

type searchRequest struct {
	Query     string             `json:"query"`
	Bookmarks []*domain.Bookmark `json:"bookmarks"`
}

type searchResponse struct {
	Bookmarks []*domain.Bookmark `json:"bookmarks"`
}

// status asks the remote whether the model is loaded.
func (c *httpClient) status(ctx context.Context) (*statusInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status request returned %d", resp.StatusCode)
	}

	var info statusInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	return &info, nil
}

func (c *httpClient) analyze(ctx context.Context, content string) (*Analysis, error) {
	var result Analysis
	if err := c.postJSON(ctx, "/analyze", contentRequest{Content: content}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) explain(ctx context.Context, content string) (string, error) {
	var result explainResponse
	if err := c.postJSON(ctx, "/explain", contentRequest{Content: content}, &result); err != nil {
		return "", err
	}
	return result.Explanation, nil
}

func (c *httpClient) suggestOptimizations(ctx context.Context, content string) (string, error) {
	var result suggestionsResponse
	if err := c.postJSON(ctx, "/optimize", contentRequest{Content: content}, &result); err != nil {
		return "", err
	}
	return result.Suggestions, nil
}

func (c *httpClient) relatedQueries(ctx context.Context, content string) ([]string, error) {
	var result relatedResponse
	if err := c.postJSON(ctx, "/related", contentRequest{Content: content}, &result); err != nil {
		return nil, err
	}
	return result.Queries, nil
}

func (c *httpClient) semanticSearch(ctx context.Context, query string, bookmarks []*domain.Bookmark) ([]*domain.Bookmark, error) {
	var result searchResponse
	if err := c.postJSON(ctx, "/search", searchRequest{Query: query, Bookmarks: bookmarks}, &result); err != nil {
		return nil, err
	}
	return result.Bookmarks, nil
}

// postJSON sends body to path and decodes the response into out.
// Non-200 responses surface the remote's error message when present.
func (c *httpClient) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var remote errorResponse
		if json.Unmarshal(data, &remote) == nil && remote.Error != "" {
			return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, remote.Error)
		}
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
