package eposnow

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/pos-bridge/internal/domain/integration"
	"github.com/erp/pos-bridge/internal/infrastructure/config"
	"github.com/erp/pos-bridge/internal/infrastructure/synclog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *bytes.Buffer, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var audit bytes.Buffer
	client := NewClient(&config.POSConfig{
		BaseURL:        server.URL,
		Token:          "dGVzdC10b2tlbg==",
		TimeoutSeconds: 5,
	}, synclog.New(&audit), zap.NewNop())

	return client, &audit, server
}

func TestClient_Send_Success(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody map[string]any

	client, audit, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"CustomerID": 4711}`))
	})

	result, err := client.Send(context.Background(), http.MethodPost, integration.EndpointCustomer, map[string]any{
		"Forename": "Jan",
	})
	require.NoError(t, err)

	assert.True(t, result.OK())
	id, ok := result.Int64("CustomerID")
	assert.True(t, ok)
	assert.Equal(t, int64(4711), id)

	assert.Equal(t, "Basic dGVzdC10b2tlbg==", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Jan", gotBody["Forename"])

	log := audit.String()
	assert.Contains(t, log, "#outgoing Requesting {POST}")
	assert.Contains(t, log, `"Forename": "Jan"`)
	assert.Contains(t, log, "Response OK!")
}

func TestClient_Send_EmptyBodySendsEmptyObject(t *testing.T) {
	var rawBody []byte
	client, audit, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var err error
		rawBody, err = json.Marshal(mustDecode(t, r))
		require.NoError(t, err)
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.Send(context.Background(), http.MethodGet, integration.EndpointCustomer+"17", nil)
	require.NoError(t, err)

	assert.Equal(t, "{}", string(rawBody))
	// No params block is logged for an empty body
	assert.NotContains(t, audit.String(), "with params")
}

func TestClient_Send_RejectedCarriesStatusAndBody(t *testing.T) {
	client, audit, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"Message": "Invalid CustomerID"}`))
	})

	result, err := client.Send(context.Background(), http.MethodPost, integration.EndpointCustomer, nil)
	require.NoError(t, err)

	assert.False(t, result.OK())
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.Equal(t, "Invalid CustomerID", result.Body["Message"])

	log := audit.String()
	assert.Contains(t, log, "Response ERR: 400!")
	assert.Contains(t, log, `"Message": "Invalid CustomerID"`)
}

func TestClient_Send_UnparsableResponse(t *testing.T) {
	client, audit, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	result, err := client.Send(context.Background(), http.MethodGet, integration.EndpointCustomer, nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, integration.ErrPOSInvalidResponse)
	assert.Contains(t, audit.String(), "Failed to JSON parse response: <html>maintenance</html>")
}

func TestClient_Send_TransportFailure(t *testing.T) {
	client, _, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	result, err := client.Send(context.Background(), http.MethodGet, integration.EndpointCustomer, nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, integration.ErrPOSUnavailable)
}

func TestClient_Send_LogOrderPerRequest(t *testing.T) {
	client, audit, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.Send(context.Background(), http.MethodPut, integration.EndpointTransaction+"5", map[string]any{"PaymentStatus": "Complete"})
	require.NoError(t, err)

	log := audit.String()
	requestAt := bytes.Index([]byte(log), []byte("Requesting {PUT}"))
	resultAt := bytes.Index([]byte(log), []byte("Response OK!"))
	require.GreaterOrEqual(t, requestAt, 0)
	require.Greater(t, resultAt, requestAt)
}

func TestClient_ListStock(t *testing.T) {
	t.Run("first page is unnumbered", func(t *testing.T) {
		var gotQuery string
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`[{"ProductID": 7, "LocationID": 14340, "CurrentStock": 12}]`))
		})

		listings, err := client.ListStock(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, int64(7), listings[0].ProductID)
		assert.Equal(t, int64(14340), listings[0].LocationID)
		assert.Equal(t, int64(12), listings[0].CurrentStock)
		assert.Empty(t, gotQuery)
	})

	t.Run("later pages carry the page parameter", func(t *testing.T) {
		var gotQuery string
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`[]`))
		})

		listings, err := client.ListStock(context.Background(), 3)
		require.NoError(t, err)
		assert.Empty(t, listings)
		assert.Equal(t, "page=3", gotQuery)
	})

	t.Run("null body means exhausted listing", func(t *testing.T) {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`null`))
		})

		listings, err := client.ListStock(context.Background(), 1)
		require.NoError(t, err)
		assert.Empty(t, listings)
	})

	t.Run("rejected listing surfaces status", func(t *testing.T) {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"Message": "bad token"}`))
		})

		_, err := client.ListStock(context.Background(), 0)
		assert.ErrorIs(t, err, integration.ErrPOSRequestRejected)
	})
}

func mustDecode(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}
