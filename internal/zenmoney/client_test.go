package zenmoney

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/zenledger/internal/apperrors"
	"github.com/jask/zenledger/internal/database/repository"
)

func TestFetchDiff(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotBody diffRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v8/diff/", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"serverTimestamp": 42,
			"instrument":      []map[string]any{{"id": 1, "shortTitle": "BSE", "rate": 1.0}},
			"transaction":     []map[string]any{{"id": "tx-1", "date": "2026-08-01", "outcome": 10.0}},
			"deletion": []map[string]any{
				{"object": "transaction", "id": "tx-0"},
				{"object": "instrument", "id": 2},
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", time.Second)
	page, err := c.FetchDiff(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, int64(7), gotBody.ServerTimestamp)
	require.Equal(t, int64(42), page.ServerTimestamp)
	require.False(t, page.HasMore)
	require.Equal(t, 2, page.Records())
	require.Len(t, page.Deletions, 2)
	require.Equal(t, "tx-0", page.Deletions[0].ID)

	// instrument ids travel as numbers and still land as strings
	require.Equal(t, repository.KindInstrument, page.Deletions[1].Kind)
	require.Equal(t, "2", page.Deletions[1].ID)
}

func TestFetchDiffProtocolErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"missing cursor", `{"hasMore": false}`},
		{"cursor went backwards", `{"serverTimestamp": 3}`},
		{"not json", `<html>offline</html>`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL, "secret", time.Second)
			_, err := c.FetchDiff(context.Background(), 10)
			require.ErrorIs(t, err, apperrors.ErrProtocol)
		})
	}
}

func TestFetchDiffTransportErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "stale", time.Second)
	_, err := c.FetchDiff(context.Background(), 0)
	require.ErrorIs(t, err, apperrors.ErrTransport)
	require.ErrorContains(t, err, "401")

	srv.Close()
	_, err = c.FetchDiff(context.Background(), 0)
	require.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestSuggestCategory(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v8/suggest/", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "STARCOFFEE 221B", req["payee"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"payee": "Starcoffee",
			"tag":   []string{"tag-cafe"},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", time.Second)
	s, err := c.SuggestCategory(context.Background(), "STARCOFFEE 221B")
	require.NoError(t, err)
	require.Equal(t, "Starcoffee", s.Payee)
	require.Equal(t, []string{"tag-cafe"}, s.Tags)
	require.Nil(t, s.Merchant)
}
