package scrydex

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", "test-team", zerolog.Nop())
}

func TestFetchPageUnwrapsEnvelope(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "test-team", r.Header.Get("X-Team-ID"))
		w.Write([]byte(`{"data": [{"id": "x"}], "page": 1, "total_count": 1}`))
	})

	data, err := c.FetchPage(EndpointCards, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": "x"}]`, string(data))
}

func TestFetchPageReturnsBareBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "y"}]`))
	})

	data, err := c.FetchPage(EndpointCards, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": "y"}]`, string(data))
}

func TestFetchPageQueryParams(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		assert.Equal(t, "prices", r.URL.Query().Get("include"))
		w.Write([]byte(`[]`))
	})

	params := url.Values{}
	params.Set("page", "3")
	params.Set("include", "prices")
	_, err := c.FetchPage(EndpointCards, params)
	require.NoError(t, err)
}

func TestFetchPageAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "no such endpoint"}`))
	})

	_, err := c.FetchPage("/nope", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "no such endpoint", apiErr.Message)
}

func TestFetchPageRateLimit(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "slow down"}`))
	})

	_, err := c.FetchPage(EndpointCards, nil)
	assert.True(t, IsRateLimit(err))
	assert.False(t, IsTransient(err))
}

func TestFetchPageEmptyBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := c.FetchPage(EndpointCards, nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestFetchPageMalformedJSON(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [truncated`))
	})

	_, err := c.FetchPage(EndpointCards, nil)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.NotEmpty(t, parseErr.RawBody)
}

func TestFetchPageTimeoutIsTransient(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	})
	c.SetTimeout(50 * time.Millisecond)

	_, err := c.FetchPage(EndpointCards, nil)
	assert.True(t, IsTransient(err))
}

func TestFetchCards(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("page_size"))
		w.Write([]byte(`{"data": [
			{"id": "base1-4", "name": "Charizard", "rarity": "Rare Holo",
			 "expansion": {"id": "base1"},
			 "variants": [{"name": "holofoil", "prices": [
				{"type": "raw", "condition": "NM", "currency": "USD", "market": 420.0},
				{"type": "graded", "company": "PSA", "grade": 10, "currency": "USD", "market": 4200.0}
			 ]}]}
		]}`))
	})

	cards, err := c.FetchCards(1, 50, true)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "base1-4", cards[0].ID)
	assert.Equal(t, "base1", cards[0].Expansion.ID)

	entries := cards[0].PriceEntries()
	require.Len(t, entries, 2)
	// Numeric grade normalizes to its string form.
	assert.Equal(t, "10", entries[1].Grade)
}

func TestFetchExpansions(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"id": "base1", "name": "Base Set", "total": 102}]}`))
	})

	expansions, err := c.FetchExpansions(1, 100)
	require.NoError(t, err)
	require.Len(t, expansions, 1)
	assert.Equal(t, 102, expansions[0].Total)
}

func TestFetchCardsNonArrayPayload(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"unexpected": "object"}}`))
	})

	_, err := c.FetchCards(1, 50, false)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}
