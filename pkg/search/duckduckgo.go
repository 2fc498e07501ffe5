// Package search queries DuckDuckGo's HTML endpoint for text results.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/johncui/vega/pkg/model"
)

// DefaultEndpoint is the JavaScript-free DuckDuckGo results page.
const DefaultEndpoint = "https://html.duckduckgo.com/html/"

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"

// ErrNoResults is returned when the page parsed but held no results.
var ErrNoResults = errors.New("search: no results")

// Options configures a DuckDuckGo client.
type Options struct {
	Endpoint   string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger
}

// DuckDuckGo implements model.Searcher.
type DuckDuckGo struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger
}

func New(opt Options) *DuckDuckGo {
	if opt.Endpoint == "" {
		opt.Endpoint = DefaultEndpoint
	}
	if opt.HTTPClient == nil {
		opt.HTTPClient = http.DefaultClient
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 15 * time.Second
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &DuckDuckGo{
		endpoint: opt.Endpoint,
		client:   opt.HTTPClient,
		timeout:  opt.Timeout,
		logger:   opt.Logger,
	}
}

// Search returns up to limit results for query.
func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request: HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}
	results := parseResults(doc, limit)
	d.logger.Debug("search done", "query", query, "results", len(results))
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return results, nil
}

func parseResults(doc *html.Node, limit int) []model.SearchResult {
	var out []model.SearchResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if limit > 0 && len(out) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result__body") {
			if r := extract(n); r.Title != "" || r.Body != "" {
				out = append(out, r)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func extract(n *html.Node) model.SearchResult {
	var r model.SearchResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				r.Title = text(n)
				r.Href = cleanHref(attr(n, "href"))
				return
			case hasClass(n, "result__snippet"):
				r.Body = text(n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return r
}

// cleanHref unwraps DuckDuckGo's redirect links.
func cleanHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" && strings.HasSuffix(u.Path, "/l/") {
		return target
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
