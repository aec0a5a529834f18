// Package dictionary looks up baseline definitions from the Free Dictionary API.
package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for the public API.
const (
	DefaultBaseURL  = "https://api.dictionaryapi.dev"
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 250 * time.Millisecond
)

// Status classifies a lookup that did not fail.
type Status int

const (
	// Found means a definition string was returned.
	Found Status = iota
	// NotFound means the service does not know the word.
	NotFound
	// NoDefinition means the word is known but has no usable definition text.
	NoDefinition
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case NoDefinition:
		return "no_definition"
	default:
		return "unknown"
	}
}

// Result is the outcome of a successful lookup.
type Result struct {
	Status       Status
	Definition   string
	PartOfSpeech string
}

// Definer is implemented by anything that can produce a baseline meaning.
type Definer interface {
	Define(ctx context.Context, word string) (Result, error)
}

type apiDefinition struct {
	Definition string `json:"definition"`
	Example    string `json:"example"`
}

type apiMeaning struct {
	PartOfSpeech string          `json:"partOfSpeech"`
	Definitions  []apiDefinition `json:"definitions"`
}

type apiEntry struct {
	Word     string       `json:"word"`
	Meanings []apiMeaning `json:"meanings"`
}

// Client is a Free Dictionary API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host (tests, mirrors).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithInterval sets the minimum spacing between requests. Zero disables pacing.
func WithInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewClient creates a new dictionary client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(DefaultInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Define looks up word and returns the first definition of its first meaning.
func (c *Client) Define(ctx context.Context, word string) (Result, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return Result{Status: NotFound}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("dictionary: wait: %w", err)
	}

	reqURL := c.baseURL + "/api/v2/entries/en/" + url.PathEscape(word)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("dictionary: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("dictionary: fetch definition: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Result{Status: NotFound}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("dictionary: API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("dictionary: read response: %w", err)
	}

	var entries []apiEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		// The API answers some misses with an object instead of an array.
		return Result{Status: NotFound}, nil
	}
	return firstDefinition(entries), nil
}

func firstDefinition(entries []apiEntry) Result {
	if len(entries) == 0 || len(entries[0].Meanings) == 0 {
		return Result{Status: NotFound}
	}
	m := entries[0].Meanings[0]
	if len(m.Definitions) == 0 || strings.TrimSpace(m.Definitions[0].Definition) == "" {
		return Result{Status: NoDefinition, PartOfSpeech: m.PartOfSpeech}
	}
	return Result{
		Status:       Found,
		Definition:   strings.TrimSpace(m.Definitions[0].Definition),
		PartOfSpeech: m.PartOfSpeech,
	}
}
