package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagent-ir/finagent/internal/common"
)

func TestDoJSONRetriesNon200(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var result struct {
		OK bool `json:"ok"`
	}
	err := DoJSON(context.Background(), server.Client(), nil, &Request{
		Method:   http.MethodGet,
		URL:      server.URL,
		Endpoint: "test",
	}, &result)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoJSONReturnsTypedErrorAfterExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	err := DoJSON(context.Background(), server.Client(), nil, &Request{
		Method:   http.MethodGet,
		URL:      server.URL,
		Endpoint: "test",
	}, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "test", apiErr.Endpoint)
}

func TestDoJSONPostsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	err := DoJSON(context.Background(), server.Client(), nil, &Request{
		Method:   http.MethodPost,
		URL:      server.URL,
		Headers:  map[string]string{"X-Api-Key": "secret"},
		Body:     map[string]string{"q": "x"},
		Endpoint: "test",
	}, &map[string]any{})
	assert.NoError(t, err)
}

func TestNewHTTPClientProxyValidation(t *testing.T) {
	_, err := NewHTTPClient(&common.ProviderConfig{ProxyURL: "http://proxy.local:8080"})
	assert.NoError(t, err)

	_, err = NewHTTPClient(&common.ProviderConfig{ProxyURL: "://bad"})
	assert.Error(t, err)
}
