package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"pdc-bot/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)

	c, err := NewClient("https://example.com///")
	require.NoError(t, err)
	require.Equal(t, "https://example.com", c.BaseURL())
}

func TestSearch_HappyPath(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/search", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotQuery = req.Query

		_, _ = w.Write([]byte(`{
			"answer":"It is about a heist.",
			"queryType":"factual",
			"sources":{"transcripts":[{"episodeTitle":"Heat","episodeNumber":4,"speakers":"A","startTimestamp":"00:01","endTimestamp":"00:02","text":"...","score":0.9}]}
		}`))
	})

	res, err := c.Search(context.Background(), "What happens in episode 4?")
	require.NoError(t, err)
	require.Equal(t, "What happens in episode 4?", gotQuery)
	require.Equal(t, "It is about a heist.", res.Answer)
	require.Equal(t, domain.QueryFactual, res.QueryType)
	require.Len(t, res.Sources.Transcripts, 1)
	require.Equal(t, 4, *res.Sources.Transcripts[0].EpisodeNumber)
}

func TestSearch_ErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"Index unavailable"}`))
	})

	_, err := c.Search(context.Background(), "q")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.HTTPStatusCode())
	require.Equal(t, "Index unavailable", err.Error())
}

func TestSearch_ErrorWithoutMessageDefaults(t *testing.T) {
	cases := []string{``, `not-json`, `{"error":""}`, `{"detail":"x"}`}
	for _, body := range cases {
		body := body
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(body))
		})
		_, err := c.Search(context.Background(), "q")
		require.EqualError(t, err, "Search failed", "body=%q", body)
	}
}

func TestSearch_MalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"answer":`))
	})
	_, err := c.Search(context.Background(), "q")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestCreateShare_JoinsBaseURL(t *testing.T) {
	var got shareRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/share", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"url":"/s/abc123","id":"abc123"}`))
	})

	result := domain.SearchResponse{Answer: "...", QueryType: domain.QueryHybrid}
	share, err := c.CreateShare(context.Background(), "What happens in episode 4?", result)
	require.NoError(t, err)
	require.Equal(t, "abc123", share.ID)
	require.Equal(t, c.BaseURL()+"/s/abc123", share.URL)
	require.Equal(t, "What happens in episode 4?", got.Query)
	require.Equal(t, result.Answer, got.Result.Answer)
}

func TestCreateShare_MissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"url":"/s/"}`))
	})
	_, err := c.CreateShare(context.Background(), "q", domain.SearchResponse{})
	require.ErrorContains(t, err, "missing id")
}

func TestSearch_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Search(ctx, "q")
	require.ErrorIs(t, err, context.Canceled)
}
