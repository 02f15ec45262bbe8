package broadstreet

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"adboard/internal/config/configs"
	"adboard/internal/core/port"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(configs.Broadstreet{
		BaseURL: srv.URL,
		Token:   "secret-token",
		Timeout: 2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClientSendsAccessToken(t *testing.T) {
	var gotToken, gotScope string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("access_token")
		gotScope = r.URL.Query().Get("network_id")
		w.Write([]byte(`[{"id":1,"name":"adv"}]`))
	}))

	recs, err := c.Advertisers(context.Background(), 77)
	require.NoError(t, err)
	require.Equal(t, "secret-token", gotToken)
	require.Equal(t, "77", gotScope)
	require.Len(t, recs, 1)
	require.Equal(t, 77, recs[0].NetworkID)
}

func TestClientErrorCategories(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		category port.UpstreamCategory
	}{
		{"unauthorized", http.StatusUnauthorized, port.UpstreamAuth},
		{"forbidden", http.StatusForbidden, port.UpstreamAuth},
		{"rate limited", http.StatusTooManyRequests, port.UpstreamRateLimited},
		{"server error", http.StatusInternalServerError, port.UpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			_, err := c.Networks(context.Background())
			var upstream *port.UpstreamError
			require.True(t, errors.As(err, &upstream), "want UpstreamError, got %v", err)
			require.Equal(t, tt.category, upstream.Category)
			require.Equal(t, tt.status, upstream.Status)
		})
	}
}

func TestClientToleratesEnvelopeShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"bare array", `[{"id":1},{"id":2}]`, 2},
		{"plural envelope", `{"networks":[{"id":1},{"id":2}]}`, 2},
		{"data envelope", `{"data":[{"id":3}]}`, 1},
		{"single object", `{"id":9,"name":"solo"}`, 1},
		{"malformed", `"nope"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.payload))
			}))

			recs, err := c.Networks(context.Background())
			require.NoError(t, err)
			require.Len(t, recs, tt.want)
		})
	}
}

func TestClientSkipsUndecodableRecords(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1},"not-a-record",{"id":2}]`))
	}))

	recs, err := c.Networks(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestClientSummaryFallsBackOnBadPayload(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1,2,3]`))
	}))

	sum, err := c.Summary(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, sum)
	require.Zero(t, sum.Networks.Total)
}

func TestClientBreakerOpensUnderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(configs.Broadstreet{
		BaseURL: srv.URL,
		Token:   "t",
		Timeout: time.Second,
		Breaker: true,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// enough consecutive failures to trip the breaker
	for i := 0; i < 12; i++ {
		_, err := c.Networks(context.Background())
		require.Error(t, err)
	}

	_, err := c.Networks(context.Background())
	var upstream *port.UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, port.UpstreamUnavailable, upstream.Category)
}
