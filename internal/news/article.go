// Package news holds the canonical article model and the filter engine
// that decides which fetched entries are worth publishing.
package news

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Article is one normalized feed entry. Immutable once created; downstream
// stages read it and attach enrichment separately.
type Article struct {
	SourceLabel string
	Title       string
	Summary     string
	Link        string
	PublishedAt time.Time // zero when the feed gave no usable date
	RawImageURL string    // image advertised by the feed itself, may be empty
}

// Translation is one language's rendering of an article.
type Translation struct {
	Title   string
	Summary string
}

// EnrichedArticle is an Article plus optional translations and a resolved
// image. Translations are strictly additive: a missing language entry means
// that translation was unavailable, never an error. The original-language
// text is always present via the embedded Article.
type EnrichedArticle struct {
	Article
	Translations     map[string]Translation // language code -> translated text
	ResolvedImageURL string
}

// Fingerprint derives the stable dedup identity of an article. The link is
// canonicalized so tracking-parameter churn does not defeat dedup; entries
// without a link fall back to title plus timestamp.
func (a Article) Fingerprint() string {
	var key string
	if a.Link != "" {
		key = canonicalLink(a.Link)
	} else {
		key = fmt.Sprintf("%s|%d", strings.ToLower(strings.TrimSpace(a.Title)), a.PublishedAt.Unix())
	}

	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])[:16]
}

func canonicalLink(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(link), "/")
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	path := strings.TrimRight(u.Path, "/")
	return host + path
}
