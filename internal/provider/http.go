package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Aman-CERP/fusemcp/internal/errors"
)

// HTTPConfig configures a JSONAdapter.
type HTTPConfig struct {
	// ID is the provider identifier this adapter registers under.
	ID ID

	// Endpoint is the search API URL. The adapter POSTs a JSON body
	// {"query": ..., "max_results": ...} to it.
	Endpoint string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Timeout bounds a single HTTP round trip (default: 10s).
	// The dispatcher applies its own per-call deadline on top.
	Timeout time.Duration
}

// JSONAdapter is a generic adapter for JSON-over-HTTP search APIs
// (Tavily-style request/response shape). Responses are validated and
// translated into the fixed Result shape at this boundary; entries
// without a URL are dropped.
type JSONAdapter struct {
	cfg    HTTPConfig
	client *http.Client
}

var _ Adapter = (*JSONAdapter)(nil)

// httpSearchRequest is the wire request body.
type httpSearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// httpSearchResponse is the wire response body.
// Content is accepted as an alias for snippet since providers disagree
// on the field name.
type httpSearchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
		Content string `json:"content"`
	} `json:"results"`
}

// NewJSONAdapter creates a generic JSON HTTP search adapter.
func NewJSONAdapter(cfg HTTPConfig, client *http.Client) (*JSONAdapter, error) {
	if strings.TrimSpace(string(cfg.ID)) == "" {
		return nil, fmt.Errorf("provider ID is required")
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("provider %q: endpoint is required", cfg.ID)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &JSONAdapter{cfg: cfg, client: client}, nil
}

// ID returns the provider identifier.
func (a *JSONAdapter) ID() ID {
	return a.cfg.ID
}

// Search executes the HTTP search call and translates the payload.
func (a *JSONAdapter) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	body, err := json.Marshal(httpSearchRequest{Query: query, MaxResults: limit})
	if err != nil {
		return nil, errors.New(errors.ErrCodeInternal, "encode search request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.New(errors.ErrCodeInternal, "build search request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.New(errors.ErrCodeProviderTimeout,
				fmt.Sprintf("provider %s: %v", a.cfg.ID, ctx.Err()), ctx.Err())
		}
		return nil, errors.New(errors.ErrCodeProviderUnavailable,
			fmt.Sprintf("provider %s unreachable", a.cfg.ID), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little for the error message, ignore the rest.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, errors.New(errors.ErrCodeProviderStatus,
			fmt.Sprintf("provider %s returned %d: %s", a.cfg.ID, resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	var payload httpSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.New(errors.ErrCodeProviderPayload,
			fmt.Sprintf("provider %s: malformed payload", a.cfg.ID), err)
	}

	results := make([]Result, 0, len(payload.Results))
	for _, r := range payload.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue // URL is the dedup key; entries without one are useless downstream
		}
		snippet := r.Snippet
		if snippet == "" {
			snippet = r.Content
		}
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: snippet,
			Source:  a.cfg.ID,
			RawRank: len(results) + 1,
		})
		if limit > 0 && len(results) >= limit {
			break
		}
	}

	return results, nil
}
