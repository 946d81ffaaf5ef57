// Package retrieval fetches short background text for quiz topics from the
// Wikipedia REST API. Every lookup is best effort: failures read as "no
// context" and never surface as errors.
package retrieval

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/abhisek/quizgen/internal/cache"
)

// DefaultBaseURL is the Wikipedia REST API root.
const DefaultBaseURL = "https://en.wikipedia.org/api/rest_v1"

const (
	summaryMaxRunes  = 1500
	pageInfoMaxRunes = 800

	summaryTTL  = 24 * time.Hour
	pageInfoTTL = 12 * time.Hour

	// maxBodyBytes bounds how much of a summary response is read.
	maxBodyBytes = 1 << 20
)

// Page types reported by FetchPageInfo.
const (
	TypeStandard       = "standard"
	TypeDisambiguation = "disambiguation"
)

// PageInfo describes the Wikipedia page a topic resolves to.
type PageInfo struct {
	// Title is the canonical page title, or the input topic when Wikipedia
	// gave none.
	Title   string `json:"title"`
	Extract string `json:"extract"`
	// Type is TypeDisambiguation or TypeStandard.
	Type string `json:"type"`
}

// Client queries the Wikipedia summary endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another REST root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a Client that caches lookups in c (may be nil).
func New(c *cache.Cache, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cl := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      c,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// FetchSummary returns a plain-text summary of topic, preferring the
// article extract over the one-line description.
func (c *Client) FetchSummary(ctx context.Context, topic string) (string, bool) {
	key := "wiki:summary:" + strings.ToLower(topic)

	var cached string
	if c.cache != nil && c.cache.Get(ctx, key, &cached) && cached != "" {
		return cached, true
	}

	doc, ok := c.fetch(ctx, topic)
	if !ok {
		return "", false
	}

	text := doc.Get("extract").String()
	if text == "" {
		text = doc.Get("description").String()
	}
	text = truncateRunes(text, summaryMaxRunes)
	if text == "" {
		return "", false
	}

	if c.cache != nil {
		c.cache.Set(ctx, key, text, summaryTTL)
	}
	return text, true
}

// FetchPageInfo returns the canonical title, a short extract and the page
// type for topic.
func (c *Client) FetchPageInfo(ctx context.Context, topic string) (*PageInfo, bool) {
	key := "wiki:pageinfo:" + strings.ToLower(topic)

	var cached PageInfo
	if c.cache != nil && c.cache.Get(ctx, key, &cached) && cached.Title != "" {
		return &cached, true
	}

	doc, ok := c.fetch(ctx, topic)
	if !ok {
		return nil, false
	}

	info := &PageInfo{
		Title: topic,
		Type:  TypeStandard,
	}
	if t := doc.Get("title"); t.Type == gjson.String && t.Str != "" {
		info.Title = t.Str
	}
	if doc.Get("type").String() == TypeDisambiguation {
		info.Type = TypeDisambiguation
	}
	extract := doc.Get("extract").String()
	if extract == "" {
		extract = doc.Get("description").String()
	}
	info.Extract = truncateRunes(extract, pageInfoMaxRunes)

	if c.cache != nil {
		c.cache.Set(ctx, key, info, pageInfoTTL)
	}
	return info, true
}

// fetch GETs the summary document for topic.
func (c *Client) fetch(ctx context.Context, topic string) (gjson.Result, bool) {
	u := fmt.Sprintf("%s/page/summary/%s", c.baseURL, url.PathEscape(topic))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.logger.DebugContext(ctx, "wikipedia request build failed", "topic", topic, "error", err)
		return gjson.Result{}, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "wikipedia request failed", "topic", topic, "error", err)
		return gjson.Result{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.DebugContext(ctx, "wikipedia non-2xx", "topic", topic, "status", resp.StatusCode)
		return gjson.Result{}, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.logger.DebugContext(ctx, "wikipedia read failed", "topic", topic, "error", err)
		return gjson.Result{}, false
	}
	if !gjson.ValidBytes(body) {
		c.logger.DebugContext(ctx, "wikipedia response is not JSON", "topic", topic)
		return gjson.Result{}, false
	}
	return gjson.ParseBytes(body), true
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
