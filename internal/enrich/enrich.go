// Package enrich runs the two per-article sub-pipelines, translation and
// image resolution, and joins their results. Both degrade on failure;
// enrichment can lessen an article but never reject it.
package enrich

import (
	"context"
	"sync"

	"pressleaf/internal/news"
)

// Translator is the translation chain consumed by the enricher.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, bool)
}

// ImageResolver finds an image URL for an article, or "" when none.
type ImageResolver interface {
	Resolve(ctx context.Context, rawImageURL, articleURL string) string
}

// Enricher produces EnrichedArticles. A nil Translator or ImageResolver
// means that feature is disabled and simply yields the degraded result.
type Enricher struct {
	translator Translator
	images     ImageResolver
	languages  []string // target languages, configured order
}

func New(translator Translator, images ImageResolver, languages []string) *Enricher {
	return &Enricher{translator: translator, images: images, languages: languages}
}

// Enrich runs both sub-pipelines for one article. Languages are translated
// concurrently and joined before returning; the image is resolved
// alongside. The returned article always carries the original text.
func (e *Enricher) Enrich(ctx context.Context, a news.Article) news.EnrichedArticle {
	enriched := news.EnrichedArticle{
		Article:      a,
		Translations: make(map[string]news.Translation),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	if e.translator != nil {
		for _, lang := range e.languages {
			lang := lang
			wg.Add(1)
			go func() {
				defer wg.Done()
				tr, ok := e.translateOne(ctx, a, lang)
				if !ok {
					return
				}
				mu.Lock()
				enriched.Translations[lang] = tr
				mu.Unlock()
			}()
		}
	}

	if e.images != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img := e.images.Resolve(ctx, a.RawImageURL, a.Link)
			mu.Lock()
			enriched.ResolvedImageURL = img
			mu.Unlock()
		}()
	}

	wg.Wait()
	return enriched
}

// translateOne requires a translated title; a missing summary translation
// falls back to the translated title alone rather than dropping the
// language entirely.
func (e *Enricher) translateOne(ctx context.Context, a news.Article, lang string) (news.Translation, bool) {
	title, ok := e.translator.Translate(ctx, a.Title, lang)
	if !ok {
		return news.Translation{}, false
	}

	tr := news.Translation{Title: title}
	if a.Summary != "" {
		if summary, ok := e.translator.Translate(ctx, a.Summary, lang); ok {
			tr.Summary = summary
		}
	}
	return tr, true
}
