package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAzureProviderDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "test-key", r.Header.Get("api-key"))
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := newAzureProvider(srv.URL+"/", "test-key", "layouts", srv.Client())
	require.NoError(t, err)

	_, err = NewGateway(p).GenerateLayout(context.Background(), "a login form")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	require.Equal(t, int32(1), hits.Load())
}

func TestAzureProviderNeedsKeyAndEndpoint(t *testing.T) {
	_, err := NewAzureProvider("https://example.openai.azure.com/", "", "layouts")
	require.ErrorIs(t, err, ErrNoAPIKey)
	_, err = NewAzureProvider("", "k", "layouts")
	require.Error(t, err)
}
