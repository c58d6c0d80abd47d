package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fuseerrors "github.com/Aman-CERP/fusemcp/internal/errors"
)

func TestJSONAdapter_TranslatesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req httpSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "openai funding", req.Query)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "A", "url": "https://x.com/1", "snippet": "first"},
				{"title": "B", "url": "", "snippet": "no url, dropped"},
				{"title": "C", "url": "https://x.com/2", "content": "content alias"},
			},
		})
	}))
	defer srv.Close()

	a, err := NewJSONAdapter(HTTPConfig{ID: IDNews, Endpoint: srv.URL, APIKey: "test-key"}, nil)
	require.NoError(t, err)

	results, err := a.Search(context.Background(), "openai funding", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "https://x.com/1", results[0].URL)
	assert.Equal(t, 1, results[0].RawRank)
	assert.Equal(t, IDNews, results[0].Source)
	assert.Equal(t, "content alias", results[1].Snippet)
	assert.Equal(t, 2, results[1].RawRank)
}

func TestJSONAdapter_LimitTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"url": "https://x.com/1"},
				{"url": "https://x.com/2"},
				{"url": "https://x.com/3"},
			},
		})
	}))
	defer srv.Close()

	a, err := NewJSONAdapter(HTTPConfig{ID: IDWeb, Endpoint: srv.URL}, nil)
	require.NoError(t, err)

	results, err := a.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestJSONAdapter_Non2xxIsProviderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a, err := NewJSONAdapter(HTTPConfig{ID: IDWeb, Endpoint: srv.URL}, nil)
	require.NoError(t, err)

	_, err = a.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Equal(t, fuseerrors.ErrCodeProviderStatus, fuseerrors.GetCode(err))
	assert.True(t, fuseerrors.IsRetryable(err))
}

func TestJSONAdapter_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	a, err := NewJSONAdapter(HTTPConfig{ID: IDWeb, Endpoint: srv.URL}, nil)
	require.NoError(t, err)

	_, err = a.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Equal(t, fuseerrors.ErrCodeProviderPayload, fuseerrors.GetCode(err))
}

func TestJSONAdapter_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	a, err := NewJSONAdapter(HTTPConfig{ID: IDWeb, Endpoint: srv.URL}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = a.Search(ctx, "q", 5)
	require.Error(t, err)
	assert.Equal(t, fuseerrors.ErrCodeProviderTimeout, fuseerrors.GetCode(err))
}

func TestNewJSONAdapter_Validation(t *testing.T) {
	_, err := NewJSONAdapter(HTTPConfig{Endpoint: "https://api.example.com"}, nil)
	assert.Error(t, err)

	_, err = NewJSONAdapter(HTTPConfig{ID: IDWeb}, nil)
	assert.Error(t, err)
}
