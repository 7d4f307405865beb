// Package compose renders the final multi-language Telegram post. Output
// is deterministic: the same enriched article always produces the same
// bytes, so tests and dedup debugging can compare output directly.
package compose

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"pressleaf/internal/news"
)

const blockSeparator = "======================================"

// langFlags decorates known language blocks; unknown codes fall back to
// the uppercased code itself.
var langFlags = map[string]string{
	"en": "\U0001F1FA\U0001F1F8",
	"uz": "\U0001F1FA\U0001F1FF",
	"ru": "\U0001F1F7\U0001F1FA",
	"uk": "\U0001F1FA\U0001F1E6",
	"de": "\U0001F1E9\U0001F1EA",
	"tr": "\U0001F1F9\U0001F1F7",
}

// Message is the final artifact handed to the publisher.
type Message struct {
	Body     string
	ImageURL string
}

// Composer assembles post bodies from enriched articles.
type Composer struct {
	languages   []string // translation block order
	keywords    []string // for hashtag derivation
	channelLink string   // footer, may be empty
}

func New(languages, keywords []string, channelLink string) *Composer {
	return &Composer{languages: languages, keywords: keywords, channelLink: channelLink}
}

// Compose renders the article: original-language block first, then one
// block per present translation in configured order, then the article
// link, hashtags and the static footer.
func (c *Composer) Compose(a news.EnrichedArticle) Message {
	var b strings.Builder

	writeBlock(&b, "en", a.Title, a.Summary, false)

	for _, lang := range c.languages {
		tr, ok := a.Translations[lang]
		if !ok {
			continue
		}
		b.WriteString("\n" + blockSeparator + "\n\n")
		writeBlock(&b, lang, tr.Title, tr.Summary, true)
	}

	if a.Link != "" {
		b.WriteString(fmt.Sprintf("\n<a href=\"%s\">Read more</a>\n", a.Link))
	}

	b.WriteString("\n" + c.hashtags(a.Article) + "\n")

	if c.channelLink != "" {
		b.WriteString(fmt.Sprintf("\U0001F4F0 PressLeaf - %s\n", c.channelLink))
	}

	return Message{Body: b.String(), ImageURL: a.ResolvedImageURL}
}

func writeBlock(b *strings.Builder, lang, title, summary string, italic bool) {
	flag := langFlags[lang]
	if flag == "" {
		flag = strings.ToUpper(lang)
	}

	b.WriteString(fmt.Sprintf("%s:\n<b>%s</b>\n", flag, title))
	if summary != "" {
		if italic {
			b.WriteString(fmt.Sprintf("\n<i>%s</i>\n", summary))
		} else {
			b.WriteString(fmt.Sprintf("\n%s\n", summary))
		}
	}
}

// hashtags derives tags from matched keywords plus the source label,
// deduplicated and sorted for stable output. #news when nothing matched.
func (c *Composer) hashtags(a news.Article) string {
	seen := make(map[string]struct{})
	var tags []string

	add := func(raw string) {
		tag := hashtagify(raw)
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, kw := range news.MatchedKeywords(a, c.keywords) {
		add(kw)
	}
	add(a.SourceLabel)

	if len(tags) == 0 {
		tags = append(tags, "#news")
	}

	sort.Strings(tags)
	return strings.Join(tags, " ")
}

// hashtagify strips anything that cannot appear in a Telegram hashtag.
func hashtagify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "#" + b.String()
}
