// Package web fetches pages for the agent and reduces HTML to readable
// text.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout  = 30 * time.Second
	MinTimeout      = 1 * time.Second
	MaxTimeout      = 300 * time.Second
	DefaultCacheTTL = 15 * time.Minute
	cacheSize       = 128

	// MaxBodyBytes bounds how much of a response is read.
	MaxBodyBytes = 2 << 20
	// MaxTextLength bounds the extracted text.
	MaxTextLength = 15000

	userAgent = "agentcore/1.0 (+web_fetch)"
)

var (
	ErrTimeout  = errors.New("fetch timed out")
	ErrScheme   = errors.New("only http and https URLs are supported")
	ErrRedirect = errors.New("redirected to a different host")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string { return "HTTP " + e.Status }

// Page is the text form of a fetched URL.
type Page struct {
	URL         string
	FinalURL    string
	Title       string
	ContentType string
	Text        string
	Cached      bool
}

type cacheEntry struct {
	page     Page
	storedAt time.Time
}

// Fetcher retrieves URLs with a shared client, caching results for a TTL
// and collapsing concurrent fetches of the same URL.
type Fetcher struct {
	client *http.Client
	cache  *lru.Cache[string, cacheEntry]
	ttl    time.Duration
	group  singleflight.Group
	log    *zap.Logger
	now    func() time.Time
}

// NewFetcher returns a Fetcher using a copy of client (a default one when
// nil). Redirects are limited to ten and must stay on the original host.
func NewFetcher(client *http.Client, log *zap.Logger) *Fetcher {
	c := &http.Client{}
	if client != nil {
		*c = *client
	}
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("stopped after 10 redirects")
		}
		if req.URL.Hostname() != via[0].URL.Hostname() {
			return fmt.Errorf("%w: %s", ErrRedirect, req.URL)
		}
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	cache, _ := lru.New[string, cacheEntry](cacheSize)
	return &Fetcher{client: c, cache: cache, ttl: DefaultCacheTTL, log: log, now: time.Now}
}

// ClampTimeout bounds d to [MinTimeout, MaxTimeout]; zero or less means
// DefaultTimeout.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	}
	return d
}

// Fetch returns the text of rawURL. Exceeding timeout yields ErrTimeout;
// a redirect to another host yields ErrRedirect with the target named.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (Page, error) {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return Page{}, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Page{}, ErrScheme
	}
	key := u.String()
	if e, ok := f.cache.Get(key); ok {
		if f.now().Sub(e.storedAt) < f.ttl {
			p := e.page
			p.Cached = true
			return p, nil
		}
		f.cache.Remove(key)
	}

	timeout = ClampTimeout(timeout)
	v, err, _ := f.group.Do(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		p, err := f.fetch(fetchCtx, key)
		if err != nil {
			if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return Page{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
			}
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return Page{}, fmt.Errorf("%w: %v", ErrTimeout, err)
			}
			return Page{}, err
		}
		f.cache.Add(key, cacheEntry{page: p, storedAt: f.now()})
		return p, nil
	})
	if err != nil {
		f.log.Debug("fetch failed", zap.String("url", key), zap.Error(err))
		return Page{}, err
	}
	return v.(Page), nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain,application/json;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return Page{}, fmt.Errorf("read response: %w", err)
	}

	ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	p := Page{URL: rawURL, FinalURL: final, ContentType: ct}
	if ct == "" || ct == "text/html" || ct == "application/xhtml+xml" {
		p.Title, p.Text, err = HTMLToText(string(body))
		if err != nil {
			return Page{}, fmt.Errorf("parse HTML: %w", err)
		}
	} else {
		p.Text = string(body)
	}
	p.Text = truncate(p.Text, MaxTextLength)
	return p, nil
}

// HTMLToText drops page chrome and returns the title and the readable
// text: headings as markdown, paragraphs, list items and code blocks in
// document order.
func HTMLToText(html string) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}
	doc.Find("script, style, noscript, nav, footer, header, aside, iframe, svg, form").Remove()
	title = strings.TrimSpace(doc.Find("title").First().Text())

	var sb strings.Builder
	if title != "" {
		sb.WriteString("# " + title + "\n\n")
	}
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td").Each(func(_ int, s *goquery.Selection) {
		// text inside a list item or cell is emitted by that element
		if s.ParentsFiltered("li, pre, blockquote, td").Length() > 0 {
			return
		}
		tag := goquery.NodeName(s)
		raw := s.Text()
		if tag == "pre" {
			sb.WriteString("```\n" + strings.Trim(raw, "\n") + "\n```\n\n")
			return
		}
		t := strings.Join(strings.Fields(raw), " ")
		if t == "" {
			return
		}
		switch tag {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			sb.WriteString(strings.Repeat("#", int(tag[1]-'0')) + " " + t + "\n\n")
		case "li":
			sb.WriteString("- " + t + "\n")
		case "blockquote":
			sb.WriteString("> " + t + "\n\n")
		default:
			sb.WriteString(t + "\n\n")
		}
	})
	text = strings.TrimSpace(sb.String())
	if text == "" {
		text = strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	}
	return title, text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut] + "\n\n[content truncated]"
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }
