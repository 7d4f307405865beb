// Package images resolves a single illustration URL for an article. A
// feed-supplied image wins; otherwise the article page is fetched and its
// Open Graph / Twitter card metadata is consulted. Every failure degrades
// to "no image", since a text-only post is always acceptable.
package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Resolver finds and validates an image URL for an article.
type Resolver struct {
	client *http.Client
}

func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{client: &http.Client{Timeout: timeout}}
}

// Resolve returns an image URL or "" when nothing usable was found.
// rawImageURL is the image the feed advertised, tried first.
func (r *Resolver) Resolve(ctx context.Context, rawImageURL, articleURL string) string {
	if rawImageURL != "" {
		if r.validate(ctx, rawImageURL) {
			return rawImageURL
		}
		slog.Debug("feed image failed validation, trying article page", "url", rawImageURL)
	}

	if articleURL == "" {
		return ""
	}

	imageURL, err := r.fromPage(ctx, articleURL)
	if err != nil {
		slog.Debug("image resolution failed", "article", articleURL, "error", err)
		return ""
	}
	if imageURL != "" && !r.validate(ctx, imageURL) {
		return ""
	}
	return imageURL
}

// fromPage fetches the article page and extracts og:image, falling back to
// twitter:image. Relative URLs are resolved against the page.
func (r *Resolver) fromPage(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(strings.ToLower(ct), "html") {
		return "", fmt.Errorf("content type %q is not html", ct)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	for _, sel := range []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
	} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && content != "" {
			return absoluteURL(articleURL, content), nil
		}
	}
	return "", nil
}

// validate issues a HEAD request and accepts only image content types.
func (r *Resolver) validate(ctx context.Context, imageURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	return strings.HasPrefix(strings.ToLower(resp.Header.Get("Content-Type")), "image")
}

// absoluteURL resolves ref against the page URL. Covers root-relative and
// page-relative refs alike; an already-absolute ref resolves to itself.
func absoluteURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(u).String()
}
