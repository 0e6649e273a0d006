package scrydex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/valyala/fasthttp"
)

const (
	// DefaultTimeout bounds a single upstream request.
	DefaultTimeout = 30 * time.Second

	// Endpoint paths, relative to the configured base URL.
	EndpointCards      = "/pokemon/cards"
	EndpointExpansions = "/pokemon/expansions"
)

// Client issues authenticated GET requests against the Scrydex API and maps
// its error envelopes to typed failures. It holds no cache and no sync state.
type Client struct {
	baseURL string
	apiKey  string
	teamID  string
	timeout time.Duration
	hc      *fasthttp.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     zerolog.Logger
}

// NewClient creates a Scrydex API client. The circuit breaker opens after a
// sustained failure rate so a dead upstream stops burning the request quota;
// the walker's consecutive-failure budget handles the per-run abort.
func NewClient(baseURL, apiKey, teamID string, logger zerolog.Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		teamID:  teamID,
		timeout: DefaultTimeout,
		hc:      &fasthttp.Client{},
		log:     logger.With().Str("component", "scrydex").Logger(),
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:     "scrydex-api",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return c
}

// SetTimeout overrides the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// FetchPage issues a GET against endpoint with the given query parameters and
// returns the envelope's data payload, or the raw parsed body when no
// envelope is present.
func (c *Client) FetchPage(endpoint string, params url.Values) (json.RawMessage, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(endpoint, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &TransientError{Err: err}
		}
		return nil, err
	}

	if !json.Valid(body) {
		return nil, &ParseError{RawBody: body, Err: errors.New("invalid JSON")}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Data != nil {
		return env.Data, nil
	}
	return body, nil
}

// FetchCards fetches one page of cards. includePrices controls whether the
// upstream attaches nested variant pricing.
func (c *Client) FetchCards(page, pageSize int, includePrices bool) ([]Card, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	if includePrices {
		params.Set("include", "prices")
	}

	data, err := c.FetchPage(EndpointCards, params)
	if err != nil {
		return nil, err
	}

	var cards []Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, &ParseError{RawBody: data, Err: err}
	}
	return cards, nil
}

// FetchExpansions fetches one page of expansions.
func (c *Client) FetchExpansions(page, pageSize int) ([]Expansion, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))

	data, err := c.FetchPage(EndpointExpansions, params)
	if err != nil {
		return nil, err
	}

	var expansions []Expansion
	if err := json.Unmarshal(data, &expansions); err != nil {
		return nil, &ParseError{RawBody: data, Err: err}
	}
	return expansions, nil
}

func (c *Client) get(endpoint string, params url.Values) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := c.baseURL + endpoint
	if encoded := params.Encode(); encoded != "" {
		uri += "?" + encoded
	}

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Team-ID", c.teamID)

	if err := c.hc.DoTimeout(req, resp, c.timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, &TransientError{Err: fmt.Errorf("request timed out after %s: %w", c.timeout, err)}
		}
		return nil, &TransientError{Err: err}
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)

	switch {
	case status == fasthttp.StatusTooManyRequests:
		return nil, &RateLimitError{Message: apiMessage(body)}
	case status < 200 || status > 299:
		return nil, &APIError{StatusCode: status, Message: apiMessage(body)}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyResponse
	}
	return body, nil
}

// apiMessage pulls a human-readable message out of an upstream error
// envelope, falling back to the raw body.
func apiMessage(body []byte) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	const max = 200
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
